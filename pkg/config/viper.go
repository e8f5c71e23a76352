package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/advisor/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ADVISOR_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ADVISOR_DB_N_RESULTS, ADVISOR_AZURE_DEPLOYMENT_MODEL, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the resolved configuration into a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Azure: AzureConfig{
			DeploymentModel: v.GetString("azure.deployment_model"),
			EmbeddingModel:  v.GetString("azure.embedding_model"),
			Endpoint:        v.GetString("azure.endpoint"),
			APIVersion:      v.GetString("azure.api_version"),
		},
		Agent: AgentConfig{
			Provider:       v.GetString("agent.provider"),
			Target:         v.GetString("agent.target"),
			Temperature:    float32(v.GetFloat64("agent.temperature")),
			MaxSteps:       v.GetInt("agent.max_steps"),
			MemoryTurns:    v.GetInt("agent.memory_turns"),
			MemoryTokens:   v.GetInt("agent.memory_tokens"),
			TimeoutSeconds: v.GetInt("agent.timeout_seconds"),
			Summarize:      v.GetBool("agent.summarize"),
		},
		DB: DBConfig{
			Provider:            v.GetString("db.provider"),
			CollectionName:      v.GetString("db.collection_name"),
			PersistPath:         v.GetString("db.persist_path"),
			Target:              v.GetString("db.target"),
			NResults:            v.GetInt("db.n_results"),
			SimilarityThreshold: float32(v.GetFloat64("db.similarity_threshold")),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		Dispatcher: DispatcherConfig{
			Workers:   v.GetInt("dispatcher.workers"),
			QueueSize: v.GetInt("dispatcher.queue_size"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetStringSlice("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Azure
	v.SetDefault("azure.deployment_model", d.Azure.DeploymentModel)
	v.SetDefault("azure.embedding_model", d.Azure.EmbeddingModel)
	v.SetDefault("azure.endpoint", d.Azure.Endpoint)
	v.SetDefault("azure.api_version", d.Azure.APIVersion)

	// Agent
	v.SetDefault("agent.provider", d.Agent.Provider)
	v.SetDefault("agent.target", d.Agent.Target)
	v.SetDefault("agent.temperature", d.Agent.Temperature)
	v.SetDefault("agent.max_steps", d.Agent.MaxSteps)
	v.SetDefault("agent.memory_turns", d.Agent.MemoryTurns)
	v.SetDefault("agent.memory_tokens", d.Agent.MemoryTokens)
	v.SetDefault("agent.timeout_seconds", d.Agent.TimeoutSeconds)
	v.SetDefault("agent.summarize", d.Agent.Summarize)

	// Note store
	v.SetDefault("db.provider", d.DB.Provider)
	v.SetDefault("db.collection_name", d.DB.CollectionName)
	v.SetDefault("db.persist_path", d.DB.PersistPath)
	v.SetDefault("db.target", d.DB.Target)
	v.SetDefault("db.n_results", d.DB.NResults)
	v.SetDefault("db.similarity_threshold", d.DB.SimilarityThreshold)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Dispatcher
	v.SetDefault("dispatcher.workers", d.Dispatcher.Workers)
	v.SetDefault("dispatcher.queue_size", d.Dispatcher.QueueSize)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)

	// API
	v.SetDefault("api.listen", d.API.Listen)
}
