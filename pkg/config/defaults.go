package config

const (
	defaultDeploymentModel = "gpt-4o"
	defaultEmbeddingModel  = "text-embedding-3-small"
	defaultAPIVersion      = "2024-06-01"

	defaultAgentProvider  = "azure"
	defaultMaxSteps       = 6
	defaultTimeoutSeconds = 60

	defaultDBProvider          = "sqlite"
	defaultCollectionName      = "bank_call_agent"
	defaultPersistPath         = "./bank_call_agent_db"
	defaultNResults            = 3
	defaultSimilarityThreshold = 1.0

	defaultEmbeddingProvider   = "azure"
	defaultEmbeddingDimensions = 1536

	defaultWorkers   = 3
	defaultQueueSize = 64

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "advisor.results"

	defaultAPIListen = ":8081"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Azure: AzureConfig{
			DeploymentModel: defaultDeploymentModel,
			EmbeddingModel:  defaultEmbeddingModel,
			APIVersion:      defaultAPIVersion,
		},
		Agent: AgentConfig{
			Provider:       defaultAgentProvider,
			MaxSteps:       defaultMaxSteps,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		DB: DBConfig{
			Provider:            defaultDBProvider,
			CollectionName:      defaultCollectionName,
			PersistPath:         defaultPersistPath,
			NResults:            defaultNResults,
			SimilarityThreshold: defaultSimilarityThreshold,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Dimensions: defaultEmbeddingDimensions,
		},
		Dispatcher: DispatcherConfig{
			Workers:   defaultWorkers,
			QueueSize: defaultQueueSize,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
