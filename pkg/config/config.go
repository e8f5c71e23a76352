package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/advisor/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns all supported configuration key names in the
// order of the TOML section layout.
func ValidConfigKeys() []string {
	ordered := []string{
		"azure.deployment_model",
		"azure.embedding_model",
		"azure.endpoint",
		"azure.api_version",
		"agent.provider",
		"agent.target",
		"agent.temperature",
		"agent.max_steps",
		"agent.memory_turns",
		"agent.memory_tokens",
		"agent.timeout_seconds",
		"agent.summarize",
		"db.provider",
		"db.collection_name",
		"db.persist_path",
		"db.target",
		"db.n_results",
		"db.similarity_threshold",
		"embedding.provider",
		"embedding.target",
		"embedding.dimensions",
		"dispatcher.workers",
		"dispatcher.queue_size",
		"events.provider",
		"events.brokers",
		"events.topic",
		"api.listen",
	}

	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range ordered {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}

	return result
}

// IsValidConfigKey returns true if the given key, dotted or legacy, is a
// supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[CanonicalKey(key)]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the target .advisor/ directory.
// A missing file yields NewDefaultConfig(); fields set in the file override
// the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, md, err := parseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg, md)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
// Temperature, memory turns and summarize are legitimately zero and are
// left alone; a similarity threshold of 0.0 is kept when the file sets it.
func applyDefaults(cfg *Config, md toml.MetaData) {
	d := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = d.Version
	}

	if cfg.Azure.DeploymentModel == "" {
		cfg.Azure.DeploymentModel = d.Azure.DeploymentModel
	}
	if cfg.Azure.EmbeddingModel == "" {
		cfg.Azure.EmbeddingModel = d.Azure.EmbeddingModel
	}
	if cfg.Azure.APIVersion == "" {
		cfg.Azure.APIVersion = d.Azure.APIVersion
	}

	if cfg.Agent.Provider == "" {
		cfg.Agent.Provider = d.Agent.Provider
	}
	if cfg.Agent.MaxSteps == 0 {
		cfg.Agent.MaxSteps = d.Agent.MaxSteps
	}
	if cfg.Agent.TimeoutSeconds == 0 {
		cfg.Agent.TimeoutSeconds = d.Agent.TimeoutSeconds
	}

	if cfg.DB.Provider == "" {
		cfg.DB.Provider = d.DB.Provider
	}
	if cfg.DB.CollectionName == "" {
		cfg.DB.CollectionName = d.DB.CollectionName
	}
	if cfg.DB.PersistPath == "" {
		cfg.DB.PersistPath = d.DB.PersistPath
	}
	if cfg.DB.NResults == 0 {
		cfg.DB.NResults = d.DB.NResults
	}
	if cfg.DB.SimilarityThreshold == 0 && !md.IsDefined("db", "similarity_threshold") {
		cfg.DB.SimilarityThreshold = d.DB.SimilarityThreshold
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = d.Embedding.Provider
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = d.Embedding.Dimensions
	}

	if cfg.Dispatcher.Workers == 0 {
		cfg.Dispatcher.Workers = d.Dispatcher.Workers
	}
	if cfg.Dispatcher.QueueSize == 0 {
		cfg.Dispatcher.QueueSize = d.Dispatcher.QueueSize
	}

	if cfg.Events.Provider == "" {
		cfg.Events.Provider = d.Events.Provider
	}
	if cfg.Events.Topic == "" {
		cfg.Events.Topic = d.Events.Topic
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = d.API.Listen
	}
}

// SaveConfig persists the configuration to config.toml in the target .advisor/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Legacy flat keys such as db_n_results are accepted.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[CanonicalKey(key)]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[CanonicalKey(key)]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// Validate checks the ranges the advisor UI exposed for tuning.
func (cfg *Config) Validate() error {
	if cfg.DB.NResults < 1 || cfg.DB.NResults > 10 {
		return fmt.Errorf("db.n_results must be between 1 and 10, got %d", cfg.DB.NResults)
	}
	if cfg.DB.SimilarityThreshold < 0 || cfg.DB.SimilarityThreshold > 2 {
		return fmt.Errorf("db.similarity_threshold must be between 0.0 and 2.0, got %g", cfg.DB.SimilarityThreshold)
	}
	if cfg.Agent.MaxSteps < 1 {
		return fmt.Errorf("agent.max_steps must be positive, got %d", cfg.Agent.MaxSteps)
	}
	if cfg.Dispatcher.Workers < 1 {
		return fmt.Errorf("dispatcher.workers must be positive, got %d", cfg.Dispatcher.Workers)
	}
	return nil
}

// PresetConfig returns a Config with sane defaults for the named provider preset.
// Supported presets: "azure", "openai", "anthropic", "ollama".
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "azure":
		return cfg, nil

	case "openai":
		cfg.Agent.Provider = "openai"
		cfg.Embedding.Provider = "openai"
		cfg.Azure.DeploymentModel = "gpt-4o-mini"
		return cfg, nil

	case "anthropic":
		// Anthropic has no embeddings endpoint, notes stay on OpenAI.
		cfg.Agent.Provider = "anthropic"
		cfg.Azure.DeploymentModel = "claude-sonnet-4-5"
		cfg.Embedding.Provider = "openai"
		return cfg, nil

	case "ollama":
		cfg.Agent.Provider = "ollama"
		cfg.Agent.Target = "http://localhost:11434"
		cfg.Azure.DeploymentModel = "llama3.1"
		cfg.Embedding.Provider = "ollama"
		cfg.Embedding.Target = "http://localhost:11434"
		cfg.Embedding.Dimensions = 768
		cfg.Azure.EmbeddingModel = "nomic-embed-text"
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"azure", "openai", "anthropic", "ollama"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg, _, err := parseConfigTOML(data)
	return cfg, err
}

func parseConfigTOML(data []byte) (*Config, toml.MetaData, error) {
	cfg := &Config{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, md, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, md, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, md, nil
}
