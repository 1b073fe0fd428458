package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// configValidator pings providers chosen in the wizard. Tests replace it.
var configValidator driven.AIConfigValidator = ai.NewConfigValidator()

var skipValidation bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and configure AI providers, the vector index and other options.

Settings are read from ~/.docqa/config.toml (or --config) and can be
overridden with DOCQA_* environment variables, e.g. DOCQA_LLM_MODEL.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		cmd.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure providers and storage step by step.`,
	RunE:  runConfigInit,
}

var configEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return editConfig(cmd, configureEmbeddingProvider)
	},
}

var configLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return editConfig(cmd, configureLLMProvider)
	},
}

func init() {
	configCmd.PersistentFlags().BoolVar(&skipValidation, "skip-validation", false, "do not ping providers")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEmbeddingCmd)
	configCmd.AddCommand(configLLMCmd)
	rootCmd.AddCommand(configCmd)
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return file.DefaultPath()
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	settings, err := file.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	cmd.Println("Current Configuration")
	cmd.Println("=====================")
	cmd.Printf("File: %s\n", path)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Listen: %s\n", settings.Server.Listen)
	cmd.Printf("  CORS origins: %s\n", strings.Join(settings.Server.CORSOrigins, ", "))
	cmd.Printf("  Request timeout: %ds\n", settings.Server.RequestTimeoutSeconds)
	cmd.Printf("  Max upload: %d MB\n", settings.Server.MaxUploadMB)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	if settings.Embedding.Provider != domain.AIProviderNone {
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
		cmd.Printf("  Base URL: %s\n", orDefault(settings.Embedding.BaseURL, "(provider default)"))
		showAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	}
	cmd.Printf("  Fallback dimensions: %d\n", settings.Embedding.FallbackDimensions)
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "fallback vectors only"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	if settings.LLM.Provider != domain.AIProviderNone {
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		cmd.Printf("  Base URL: %s\n", orDefault(settings.LLM.BaseURL, "(provider default)"))
		showAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	}
	status = "configured"
	if !settings.LLM.IsConfigured() {
		status = "answers disabled"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Index: %s (collection %s)\n", settings.Index.Backend, settings.Index.Collection)
	cmd.Printf("  Registry: %s\n", settings.Storage.Registry)
	cmd.Printf("  Data dir: %s\n", orDefault(settings.Storage.DataDir, "~/.docqa"))
	cmd.Printf("  Embedding cache: %s\n", settings.Cache.Backend)
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docqa config init' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func showAPIKey(cmd *cobra.Command, p domain.AIProvider, key string) {
	if !p.RequiresAPIKey() {
		return
	}
	if key == "" {
		cmd.Printf("  API Key: (not set)\n")
		return
	}
	cmd.Printf("  API Key: %s\n", maskAPIKey(key))
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	settings, err := file.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	cmd.Println("docqa Setup Wizard")
	cmd.Println("==================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Embedding Provider")
	cmd.Println("--------------------------")
	if err := configureEmbeddingProvider(cmd, reader, &settings); err != nil {
		return err
	}

	cmd.Println("Step 2: LLM Provider")
	cmd.Println("--------------------")
	if err := configureLLMProvider(cmd, reader, &settings); err != nil {
		return err
	}

	cmd.Println("Step 3: Vector Index")
	cmd.Println("--------------------")
	backends := []domain.IndexBackend{domain.IndexBackendChromem, domain.IndexBackendSQLite, domain.IndexBackendMemory}
	def := 1
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b)
		if b == settings.Index.Backend {
			def = i + 1
		}
	}
	cmd.Printf("\nEnter choice [%d]: ", def)
	settings.Index.Backend = backends[parseChoice(readLine(reader), len(backends), def)-1]
	if settings.Index.Backend.Persistent() {
		settings.Storage.Registry = domain.RegistryBackendSQLite
	} else {
		settings.Storage.Registry = domain.RegistryBackendMemory
	}
	cmd.Printf("Index backend: %s (registry: %s)\n\n", settings.Index.Backend, settings.Storage.Registry)

	if err := file.Write(path, settings); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Printf("Saved to %s\n", path)
	return nil
}

// editConfig loads the config, applies one wizard step and saves it.
func editConfig(cmd *cobra.Command, step func(*cobra.Command, *bufio.Reader, *domain.Settings) error) error {
	settings, err := file.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err := step(cmd, bufio.NewReader(cmd.InOrStdin()), &settings); err != nil {
		return err
	}
	if err := file.Write(path, settings); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	cmd.Printf("Saved to %s\n", path)
	return nil
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader, settings *domain.Settings) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	selected := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	cfg := settings.Embedding
	cfg.Provider = selected
	if selected == domain.AIProviderNone {
		cfg.Model, cfg.BaseURL, cfg.APIKey = "", "", ""
		settings.Embedding = cfg
		cmd.Println("Embeddings will use local fallback vectors.")
		cmd.Println()
		return nil
	}

	var err error
	cfg.Model, cfg.BaseURL, cfg.APIKey, err = promptProviderDetails(cmd, reader, selected,
		domain.DefaultEmbeddingModels()[selected])
	if err != nil {
		return err
	}

	if !skipValidation {
		cmd.Print("Validating configuration... ")
		if err := configValidator.ValidateEmbedding(&cfg); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	settings.Embedding = cfg
	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selected.Description(), cfg.Model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader, settings *domain.Settings) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	selected := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	cfg := settings.LLM
	cfg.Provider = selected
	if selected == domain.AIProviderNone {
		cfg.Model, cfg.BaseURL, cfg.APIKey = "", "", ""
		settings.LLM = cfg
		cmd.Println("Answer generation disabled; queries return sources only.")
		cmd.Println()
		return nil
	}

	var err error
	cfg.Model, cfg.BaseURL, cfg.APIKey, err = promptProviderDetails(cmd, reader, selected,
		domain.DefaultLLMModels()[selected])
	if err != nil {
		return err
	}

	if !skipValidation {
		cmd.Print("Validating configuration... ")
		if err := configValidator.ValidateLLM(&cfg); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("LLM configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	settings.LLM = cfg
	cmd.Printf("LLM provider configured: %s (%s)\n\n", selected.Description(), cfg.Model)
	return nil
}

// promptProviderDetails asks for model, base URL and API key.
func promptProviderDetails(
	cmd *cobra.Command,
	reader *bufio.Reader,
	p domain.AIProvider,
	defaultModel string,
) (model, baseURL, apiKey string, err error) {
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model = orDefault(readLine(reader), defaultModel)

	if defaultURL, ok := domain.DefaultBaseURLs()[p]; ok {
		cmd.Printf("Enter base URL [%s]: ", defaultURL)
		baseURL = orDefault(readLine(reader), defaultURL)
	}

	if p.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return "", "", "", errors.New("API key is required for this provider")
		}
	}
	return model, baseURL, apiKey, nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
