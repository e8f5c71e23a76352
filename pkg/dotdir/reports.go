package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const reportsDir = "reports"

// SaveReport writes v as indented JSON to reports/<name>.json and returns the
// written path.
func (m *Manager) SaveReport(overrideDir, name string, v any) (string, error) {
	if v == nil {
		return "", errors.New("cannot save nil report")
	}
	if strings.TrimSpace(name) == "" {
		return "", errors.New("report name is required")
	}

	dir, err := m.Subdir(overrideDir, reportsDir)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	return path, nil
}

// LoadReport decodes reports/<name>.json into v.
func (m *Manager) LoadReport(overrideDir, name string, v any) error {
	dir, err := m.Subdir(overrideDir, reportsDir)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(dir, name+".json"))
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing report: %w", err)
	}
	return nil
}

// ListReports returns saved report names in lexical order.
func (m *Manager) ListReports(overrideDir string) ([]string, error) {
	dir, err := m.Subdir(overrideDir, reportsDir)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}
