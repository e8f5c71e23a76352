package wiring

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/logger"
)

// flagValues only backs registered flags; values are read back through
// viper once the flags are bound.
type flagValues struct {
	deploymentModel string
	embeddingModel  string
	agentProvider   string
	temperature     float32
	maxSteps        int
	memoryTurns     int
	dbProvider      string
	collection      string
	persistPath     string
	dbTarget        string
	nResults        int
	threshold       float32
	embeddingProv   string
	embeddingTarget string
	embeddingDims   uint
	workers         int
	eventsProvider  string
	eventsTopic     string
	listen          string
}

// AddStoreFlags registers the note store flags on cmd and returns their
// registry keys for LoadConfig.
func AddStoreFlags(cmd *cobra.Command) []string {
	v := &flagValues{}
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingModel, &v.embeddingModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagDBProvider, &v.dbProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagCollection, &v.collection)
	config.AddStringFlag(cmd, config.Flags, config.FlagPersistPath, &v.persistPath)
	config.AddStringFlag(cmd, config.Flags, config.FlagDBTarget, &v.dbTarget)
	config.AddIntFlag(cmd, config.Flags, config.FlagNResults, &v.nResults)
	config.AddFloat32Flag(cmd, config.Flags, config.FlagThreshold, &v.threshold)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingProv, &v.embeddingProv)
	config.AddStringFlag(cmd, config.Flags, config.FlagEmbeddingTgt, &v.embeddingTarget)
	config.AddUintFlag(cmd, config.Flags, config.FlagEmbeddingDims, &v.embeddingDims)

	return []string{
		config.FlagEmbeddingModel,
		config.FlagDBProvider,
		config.FlagCollection,
		config.FlagPersistPath,
		config.FlagDBTarget,
		config.FlagNResults,
		config.FlagThreshold,
		config.FlagEmbeddingProv,
		config.FlagEmbeddingTgt,
		config.FlagEmbeddingDims,
	}
}

// AddAgentFlags registers the agent, dispatcher and event flags on cmd.
func AddAgentFlags(cmd *cobra.Command) []string {
	v := &flagValues{}
	config.AddStringFlag(cmd, config.Flags, config.FlagDeploymentModel, &v.deploymentModel)
	config.AddStringFlag(cmd, config.Flags, config.FlagAgentProvider, &v.agentProvider)
	config.AddFloat32Flag(cmd, config.Flags, config.FlagTemperature, &v.temperature)
	config.AddIntFlag(cmd, config.Flags, config.FlagMaxSteps, &v.maxSteps)
	config.AddIntFlag(cmd, config.Flags, config.FlagMemoryTurns, &v.memoryTurns)
	config.AddIntFlag(cmd, config.Flags, config.FlagWorkers, &v.workers)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsProvider, &v.eventsProvider)
	config.AddStringFlag(cmd, config.Flags, config.FlagEventsTopic, &v.eventsTopic)

	return []string{
		config.FlagDeploymentModel,
		config.FlagAgentProvider,
		config.FlagTemperature,
		config.FlagMaxSteps,
		config.FlagMemoryTurns,
		config.FlagWorkers,
		config.FlagEventsProvider,
		config.FlagEventsTopic,
	}
}

// AddListenFlag registers --listen.
func AddListenFlag(cmd *cobra.Command) []string {
	v := &flagValues{}
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &v.listen)
	return []string{config.FlagAPIListen}
}

// NewLogger logs to stderr, colorized when stderr is a terminal.
func NewLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithWriter(os.Stderr),
		logger.WithAutoPretty(os.Stderr),
	)
}

// NewServiceLogger logs JSON to stdout for long-running services.
func NewServiceLogger(cmd *cobra.Command) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriter(os.Stdout),
	)
}
