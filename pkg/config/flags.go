package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so --n-results means the
// same thing on "advisor analyze" and "advisor serve".
type Flag struct {
	// Name is the long flag name (e.g. "n-results").
	Name string

	// Shorthand is the one-letter short flag (e.g. "k"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "db.n_results").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagDeploymentModel = "deployment-model"
	FlagEmbeddingModel  = "embedding-model"
	FlagAgentProvider   = "agent-provider"
	FlagTemperature     = "temperature"
	FlagMaxSteps        = "max-steps"
	FlagMemoryTurns     = "memory-turns"
	FlagDBProvider      = "db-provider"
	FlagCollection      = "collection"
	FlagPersistPath     = "persist-path"
	FlagDBTarget        = "db-target"
	FlagNResults        = "n-results"
	FlagThreshold       = "similarity-threshold"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagWorkers         = "workers"
	FlagEventsProvider  = "events-provider"
	FlagEventsTopic     = "events-topic"
	FlagAPIListen       = "listen"
)

// Flags is the registry shared by every advisor command.
var Flags = FlagSet{
	FlagDeploymentModel: {Name: "deployment-model", ViperKey: "azure.deployment_model", Description: "Chat model deployment name"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "azure.embedding_model", Description: "Embedding model deployment name"},
	FlagAgentProvider:   {Name: "agent-provider", ViperKey: "agent.provider", Description: "Chat model provider (azure, openai, ollama)"},
	FlagTemperature:     {Name: "temperature", ViperKey: "agent.temperature", Description: "Sampling temperature for the agent"},
	FlagMaxSteps:        {Name: "max-steps", ViperKey: "agent.max_steps", Description: "Maximum think/act steps per utterance"},
	FlagMemoryTurns:     {Name: "memory-turns", ViperKey: "agent.memory_turns", Description: "Prior utterances kept as agent context (0 disables)"},
	FlagDBProvider:      {Name: "db-provider", ViperKey: "db.provider", Description: "Note store backend (sqlite, chroma, qdrant, pgvector)"},
	FlagCollection:      {Name: "collection", ViperKey: "db.collection_name", Description: "Note collection name"},
	FlagPersistPath:     {Name: "persist-path", ViperKey: "db.persist_path", Description: "On-disk location of the sqlite note store"},
	FlagDBTarget:        {Name: "db-target", ViperKey: "db.target", Description: "Note store URL or connection string"},
	FlagNResults:        {Name: "n-results", Shorthand: "k", ViperKey: "db.n_results", Description: "Results retrieved from search (1-10)"},
	FlagThreshold:       {Name: "similarity-threshold", Shorthand: "t", ViperKey: "db.similarity_threshold", Description: "Maximum distance for a note to count as relevant (0.0-2.0)"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider (azure, openai, ollama)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding provider URL"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensionality"},
	FlagWorkers:         {Name: "workers", Shorthand: "w", ViperKey: "dispatcher.workers", Description: "Concurrent agent invocations"},
	FlagEventsProvider:  {Name: "events-provider", ViperKey: "events.provider", Description: "Result event sink (nop, kafka)"},
	FlagEventsTopic:     {Name: "events-topic", ViperKey: "events.topic", Description: "Topic for published results"},
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *int) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaults().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddFloat32Flag registers a float32 flag on cmd from the given FlagSet.
func AddFloat32Flag(cmd *cobra.Command, fs FlagSet, registryKey string, target *float32) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := float32(defaults().GetFloat64(def.ViperKey))
	if def.Shorthand != "" {
		cmd.Flags().Float32VarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().Float32Var(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
