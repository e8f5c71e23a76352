// Package wiring builds the advisor components from the resolved
// configuration. Secrets are read from the environment only.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/dispatcher"
	embeddingutils "github.com/papercomputeco/advisor/pkg/embeddings/utils"
	"github.com/papercomputeco/advisor/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/advisor/pkg/eventstream/utils"
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/notes"
	"github.com/papercomputeco/advisor/pkg/retrieval"
	"github.com/papercomputeco/advisor/pkg/session"
	vectorutils "github.com/papercomputeco/advisor/pkg/vector/utils"
)

// Environment variables holding secrets and endpoints.
const (
	EnvAzureAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvAzureAPIBase    = "AZURE_OPENAI_API_BASE"
	EnvAzureAPIVersion = "AZURE_OPENAI_API_VERSION"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvQdrantAPIKey    = "QDRANT_API_KEY"
)

// historyLimit bounds the calls kept for cost reporting.
const historyLimit = 1000

// LoadConfig resolves the configuration for cmd: registered flags, then
// ADVISOR_ environment variables, then config.toml, then defaults.
func LoadConfig(cmd *cobra.Command, flagKeys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *config.Config) {
	if base := os.Getenv(EnvAzureAPIBase); base != "" && cfg.Azure.Endpoint == "" {
		cfg.Azure.Endpoint = base
	}
	if version := os.Getenv(EnvAzureAPIVersion); version != "" {
		cfg.Azure.APIVersion = version
	}
}

// Deps holds the long-lived components shared by commands.
type Deps struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *notes.Store
	Retrieval retrieval.Config

	// Chat is nil until EnableAgent succeeds.
	Chat    llm.Client
	History *llm.History
	Pricing llm.PricingTable

	// Tokens is set when agent.memory_tokens limits the memory context.
	Tokens llm.TokenCounter
}

// NewStore opens the note store only. Commands that never call the model
// (seed, search) stop here.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Deps, error) {
	embedder, err := embeddingutils.NewEmbedder(embedderOpts(cfg))
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType:   cfg.DB.Provider,
		CollectionName: cfg.DB.CollectionName,
		PersistPath:    cfg.DB.PersistPath,
		TargetURL:      cfg.DB.Target,
		APIKey:         os.Getenv(EnvQdrantAPIKey),
		Dimensions:     cfg.Embedding.Dimensions,
		Logger:         logger,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("creating note store: %w", err)
	}

	pricing := llm.DefaultPricing()
	return &Deps{
		Config: cfg,
		Logger: logger,
		Store:  notes.NewStore(embedder, driver, logger),
		Retrieval: retrieval.Config{
			K:                   cfg.DB.NResults,
			SimilarityThreshold: cfg.DB.SimilarityThreshold,
		}.Clamped(),
		Pricing: pricing,
		History: llm.NewHistory(pricing, historyLimit),
	}, nil
}

func embedderOpts(cfg *config.Config) *embeddingutils.NewEmbedderOpts {
	o := &embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Azure.EmbeddingModel,
		Dimensions:   cfg.Embedding.Dimensions,
	}
	switch cfg.Embedding.Provider {
	case embeddingutils.ProviderAzure:
		o.APIKey = os.Getenv(EnvAzureAPIKey)
		o.APIVersion = cfg.Azure.APIVersion
		if o.TargetURL == "" {
			o.TargetURL = cfg.Azure.Endpoint
		}
	case embeddingutils.ProviderOpenAI:
		o.APIKey = os.Getenv(EnvOpenAIAPIKey)
	}
	return o
}

// EnableAgent creates the chat client.
func (d *Deps) EnableAgent() error {
	cfg := d.Config
	o := provider.Opts{
		ProviderType: cfg.Agent.Provider,
		Model:        cfg.Azure.DeploymentModel,
		TargetURL:    cfg.Agent.Target,
	}
	switch cfg.Agent.Provider {
	case provider.Azure:
		o.APIKey = os.Getenv(EnvAzureAPIKey)
		o.APIVersion = cfg.Azure.APIVersion
		if o.TargetURL == "" {
			o.TargetURL = cfg.Azure.Endpoint
		}
	case provider.OpenAI:
		o.APIKey = os.Getenv(EnvOpenAIAPIKey)
	case provider.Anthropic:
		o.APIKey = os.Getenv(EnvAnthropicAPIKey)
	}

	client, err := provider.New(o)
	if err != nil {
		return fmt.Errorf("creating chat client: %w", err)
	}
	d.Chat = client

	if cfg.Agent.MemoryTurns > 0 && cfg.Agent.MemoryTokens > 0 {
		counter, err := llm.NewTokenCounter(cfg.Azure.DeploymentModel)
		if err != nil {
			d.Logger.Warn("memory token budget disabled", "error", err)
		} else {
			d.Tokens = counter
		}
	}
	return nil
}

// RunnerFactory builds one agent per invocation. Agents share memory when
// memory is non-nil.
func (d *Deps) RunnerFactory(memory *agent.Memory) dispatcher.RunnerFactory {
	return func() (dispatcher.Runner, error) {
		if d.Chat == nil {
			return nil, errors.New("chat client is not configured")
		}

		var summarizer llm.Client
		if d.Config.Agent.Summarize {
			summarizer = d.Chat
		}
		tools := agent.StandardTools(retrieval.NewTool(d.Store, d.Retrieval), summarizer, d.Config.Azure.DeploymentModel)

		return agent.New(d.Chat, tools,
			agent.WithMaxSteps(d.Config.Agent.MaxSteps),
			agent.WithModel(d.Config.Azure.DeploymentModel),
			agent.WithTemperature(float64(d.Config.Agent.Temperature)),
			agent.WithPricing(d.Pricing),
			agent.WithHistory(d.History),
			agent.WithTimeout(time.Duration(d.Config.Agent.TimeoutSeconds)*time.Second),
			agent.WithMemory(memory),
			agent.WithContextBudget(d.Tokens, d.Config.Agent.MemoryTokens),
			agent.WithLogger(d.Logger),
		), nil
	}
}

// NewPublisher creates the result event publisher.
func (d *Deps) NewPublisher() (eventstream.Publisher, error) {
	return eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: d.Config.Events.Provider,
		Brokers:      d.Config.Events.Brokers,
		Topic:        d.Config.Events.Topic,
		Logger:       d.Logger,
	})
}

// NewSession builds a session with its own memory and publisher.
func (d *Deps) NewSession() (*session.Session, error) {
	publisher, err := d.NewPublisher()
	if err != nil {
		return nil, fmt.Errorf("creating publisher: %w", err)
	}

	memory := agent.NewMemory(d.Config.Agent.MemoryTurns)
	return session.New(&session.Config{
		Runner:    d.RunnerFactory(memory),
		Memory:    memory,
		Publisher: publisher,
		Provider:  d.Config.Agent.Provider,
		Model:     d.Config.Azure.DeploymentModel,
		Workers:   uint(max(d.Config.Dispatcher.Workers, 0)),
		QueueSize: uint(max(d.Config.Dispatcher.QueueSize, 0)),
		Logger:    d.Logger,
	})
}

// Close releases the note store.
func (d *Deps) Close() error {
	if d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
