package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent advisor configuration stored as
// config.toml in the .advisor/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Azure      AzureConfig      `toml:"azure"`
	Agent      AgentConfig      `toml:"agent"`
	DB         DBConfig         `toml:"db"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Dispatcher DispatcherConfig `toml:"dispatcher"`
	Events     EventsConfig     `toml:"events"`
	API        APIConfig        `toml:"api"`
}

// AzureConfig names the Azure OpenAI deployments. Keys and endpoints with
// secrets are read from the environment, never from config.toml.
type AzureConfig struct {
	DeploymentModel string `toml:"deployment_model,omitempty"`
	EmbeddingModel  string `toml:"embedding_model,omitempty"`
	Endpoint        string `toml:"endpoint,omitempty"`
	APIVersion      string `toml:"api_version,omitempty"`
}

// AgentConfig holds reasoning loop settings.
type AgentConfig struct {
	Provider       string  `toml:"provider,omitempty"`
	Target         string  `toml:"target,omitempty"`
	Temperature    float32 `toml:"temperature"`
	MaxSteps       int     `toml:"max_steps,omitempty"`
	MemoryTurns    int     `toml:"memory_turns"`
	MemoryTokens   int     `toml:"memory_tokens"`
	TimeoutSeconds int     `toml:"timeout_seconds,omitempty"`
	Summarize      bool    `toml:"summarize"`
}

// DBConfig holds note store settings.
type DBConfig struct {
	Provider            string  `toml:"provider,omitempty"`
	CollectionName      string  `toml:"collection_name,omitempty"`
	PersistPath         string  `toml:"persist_path,omitempty"`
	Target              string  `toml:"target,omitempty"`
	NResults            int     `toml:"n_results,omitempty"`
	SimilarityThreshold float32 `toml:"similarity_threshold,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// DispatcherConfig bounds concurrent agent invocations.
type DispatcherConfig struct {
	Workers   int `toml:"workers,omitempty"`
	QueueSize int `toml:"queue_size,omitempty"`
}

// EventsConfig selects where analysis results are published.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = n
			return nil
		},
	}
}

func float32Key(name string, field func(c *Config) *float32) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatFloat(float64(*field(c)), 'f', -1, 32) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 32)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = float32(f)
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"azure.deployment_model": stringKey(func(c *Config) *string { return &c.Azure.DeploymentModel }),
	"azure.embedding_model":  stringKey(func(c *Config) *string { return &c.Azure.EmbeddingModel }),
	"azure.endpoint":         stringKey(func(c *Config) *string { return &c.Azure.Endpoint }),
	"azure.api_version":      stringKey(func(c *Config) *string { return &c.Azure.APIVersion }),

	"agent.provider":        stringKey(func(c *Config) *string { return &c.Agent.Provider }),
	"agent.target":          stringKey(func(c *Config) *string { return &c.Agent.Target }),
	"agent.temperature":     float32Key("agent.temperature", func(c *Config) *float32 { return &c.Agent.Temperature }),
	"agent.max_steps":       intKey("agent.max_steps", func(c *Config) *int { return &c.Agent.MaxSteps }),
	"agent.memory_turns":    intKey("agent.memory_turns", func(c *Config) *int { return &c.Agent.MemoryTurns }),
	"agent.memory_tokens":   intKey("agent.memory_tokens", func(c *Config) *int { return &c.Agent.MemoryTokens }),
	"agent.timeout_seconds": intKey("agent.timeout_seconds", func(c *Config) *int { return &c.Agent.TimeoutSeconds }),
	"agent.summarize": {
		get: func(c *Config) string { return strconv.FormatBool(c.Agent.Summarize) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for agent.summarize: %w", err)
			}
			c.Agent.Summarize = b
			return nil
		},
	},

	"db.provider":             stringKey(func(c *Config) *string { return &c.DB.Provider }),
	"db.collection_name":      stringKey(func(c *Config) *string { return &c.DB.CollectionName }),
	"db.persist_path":         stringKey(func(c *Config) *string { return &c.DB.PersistPath }),
	"db.target":               stringKey(func(c *Config) *string { return &c.DB.Target }),
	"db.n_results":            intKey("db.n_results", func(c *Config) *int { return &c.DB.NResults }),
	"db.similarity_threshold": float32Key("db.similarity_threshold", func(c *Config) *float32 { return &c.DB.SimilarityThreshold }),

	"embedding.provider": stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":   stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.dimensions": {
		get: func(c *Config) string {
			if c.Embedding.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Embedding.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for embedding.dimensions: %w", err)
			}
			c.Embedding.Dimensions = uint(n)
			return nil
		},
	},

	"dispatcher.workers":    intKey("dispatcher.workers", func(c *Config) *int { return &c.Dispatcher.Workers }),
	"dispatcher.queue_size": intKey("dispatcher.queue_size", func(c *Config) *int { return &c.Dispatcher.QueueSize }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = nil
			for b := range strings.SplitSeq(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.Events.Brokers = append(c.Events.Brokers, b)
				}
			}
			return nil
		},
	},

	"api.listen": stringKey(func(c *Config) *string { return &c.API.Listen }),
}

// legacyKeys maps the flat option names used by the original deployment
// scripts onto dotted keys.
var legacyKeys = map[string]string{
	"azure_deployment_model": "azure.deployment_model",
	"azure_embedding_model":  "azure.embedding_model",
	"db_collection_name":     "db.collection_name",
	"db_persist_path":        "db.persist_path",
	"db_n_results":           "db.n_results",
	"similarity_threshold":   "db.similarity_threshold",
}

// CanonicalKey resolves a legacy flat key to its dotted form. Dotted keys are
// returned unchanged.
func CanonicalKey(key string) string {
	if k, ok := legacyKeys[key]; ok {
		return k
	}
	return key
}
