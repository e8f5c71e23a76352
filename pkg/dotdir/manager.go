// Package dotdir manages the .advisor/ and ~/.advisor directories.
//
// The directory holds config.toml, the default sqlite-vec notes database and
// saved session reports.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the advisor directory.
	dirName = ".advisor"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the absolute path to an .advisor/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.advisor/ dir
//  3. Home ~/.advisor/ dir, created if missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating advisor directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// Subdir resolves the target directory and ensures the named child exists.
func (m *Manager) Subdir(overrideDir, name string) (string, error) {
	root, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s directory: %w", name, err)
	}
	return dir, nil
}

func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
