// Package cli implements the docqa command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/app"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/metrics"
)

var version = "dev"

var (
	configPath string
	verbose    bool
)

// Services used by commands. Populated lazily by ensureServices.
var (
	retrievalService driving.RetrievalService
	uploadService    driving.UploadService
	qaService        driving.QAService
	appMetrics       *metrics.Metrics
	currentSettings  = domain.DefaultSettings()
	statusLine       string
	application      *app.App
)

// loadServices builds the services. Tests replace it.
var loadServices = loadServicesFromConfig

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa indexes PDF, DOCX and text files and answers questions about them
using retrieval-augmented generation.

Run 'docqa config init' to choose embedding and LLM providers, then
'docqa ingest <file>' to add documents and 'docqa ask "<question>"' to query them.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.docqa/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	defer closeServices()
	defer logger.Sync()
	return rootCmd.Execute()
}

// ensureServices loads configuration and wires the services on first use.
func ensureServices(cmd *cobra.Command) error {
	if retrievalService != nil {
		return nil
	}
	return loadServices(cmd)
}

func loadServicesFromConfig(cmd *cobra.Command) error {
	settings, err := file.Load(configPath)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), settings)
	if err != nil {
		return err
	}

	for _, w := range a.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}

	application = a
	currentSettings = settings
	appMetrics = a.Metrics
	retrievalService = a.Retrieval
	uploadService = a.Uploads
	qaService = a.QA

	statusLine = "embeddings: " + a.EmbeddingSpace()
	if model := a.LLMModel(); model != "" {
		statusLine += " | llm: " + model
	} else {
		statusLine += " | llm: disabled"
	}
	return nil
}

func closeServices() {
	if application == nil {
		return
	}
	if err := application.Close(); err != nil {
		logger.Warn("Closing resources: %v", err)
	}
	application = nil
}
