package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the generation mode, language model provider and
other options.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure generation step by step.`,
	RunE:  runSettingsWizard,
}

var settingsModeCmd = &cobra.Command{
	Use:   "mode [local|single|two_stage]",
	Short: "Set generation mode",
	Long: `Set how rounds are generated. Without an argument a menu is shown.

Available modes:
  local     - Deterministic local synthesis (no setup required)
  single    - The language model writes whole rounds from the history
  two_stage - The language model curates a pool first, then writes rounds

Both language model modes fall back to local synthesis on failure.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsMode,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the language model provider used to write and curate rounds.`,
	RunE:  runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsModeCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if err := requireService("settings service", settingsService); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Generation]")
	cmd.Printf("  Mode: %s\n", settings.Generation.Mode.Description())
	cmd.Printf("  Default rounds: %d\n", settings.Generation.RoundsDefault)
	if settings.Generation.Mode == domain.GenerationModeTwoStage {
		cmd.Printf("  Curated pool: %d\n", domain.ClampPickN(settings.Generation.PickN))
	}
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.CuratorModel != "" {
		cmd.Printf("  Curator model: %s\n", settings.LLM.CuratorModel)
	}
	if settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[History]")
	cmd.Printf("  Stop threshold: %d\n", settings.History.StopThreshold)
	if settings.Taxonomy.TypeMapPath != "" {
		cmd.Printf("  Type map: %s\n", settings.Taxonomy.TypeMapPath)
	}
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'historycourt settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if err := requireService("settings service", settingsService); err != nil {
		return err
	}

	cmd.Println("historycourt Settings Wizard")
	cmd.Println("============================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Select Generation Mode")
	cmd.Println("------------------------------")
	selectedMode := promptMode(cmd, reader, 1)
	if err := settingsService.SetGenerationMode(selectedMode); err != nil {
		return fmt.Errorf("failed to set generation mode: %w", err)
	}
	cmd.Printf("Set generation mode to: %s\n\n", selectedMode.Description())

	if settingsService.RequiresLLM() {
		cmd.Println("Step 2: Configure LLM Provider")
		cmd.Println("------------------------------")
		cmd.Println("This mode uses a language model. Please configure a provider.")
		cmd.Println()

		if err := configureLLMProvider(cmd, reader); err != nil {
			return err
		}
	} else {
		cmd.Println("Step 2: LLM Provider (skipped)")
		cmd.Println("------------------------------")
		cmd.Println("Not required for local generation.")
		cmd.Println()
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsMode(cmd *cobra.Command, args []string) error {
	if err := requireService("settings service", settingsService); err != nil {
		return err
	}

	var selectedMode domain.GenerationMode
	if len(args) == 1 {
		selectedMode = domain.GenerationMode(args[0])
		if !selectedMode.IsValid() {
			return fmt.Errorf("invalid generation mode %q", args[0])
		}
	} else {
		cmd.Println("Select Generation Mode")
		cmd.Println("----------------------")
		selectedMode = promptMode(cmd, bufio.NewReader(cmd.InOrStdin()), 0)
		if selectedMode == "" {
			return errors.New("invalid selection")
		}
	}

	if err := settingsService.SetGenerationMode(selectedMode); err != nil {
		return fmt.Errorf("failed to set generation mode: %w", err)
	}
	cmd.Printf("Generation mode set to: %s\n", selectedMode.Description())

	if selectedMode.RequiresLLM() {
		settings, _ := settingsService.Get() //nolint:errcheck // Best-effort check
		if settings != nil && !settings.LLM.IsConfigured() {
			cmd.Println("\nNote: This mode needs an LLM provider; until one is set rounds are generated locally.")
			cmd.Println("Run 'historycourt settings llm' to configure.")
		}
	}

	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if err := requireService("settings service", settingsService); err != nil {
		return err
	}
	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

// promptMode lists the modes and reads a choice. An invalid choice yields
// the mode at defaultChoice, or "" when defaultChoice is zero.
func promptMode(cmd *cobra.Command, reader *bufio.Reader, defaultChoice int) domain.GenerationMode {
	modes := domain.AllGenerationModes()
	for i, mode := range modes {
		cmd.Printf("  %d. %s\n", i+1, mode.Description())
	}
	if defaultChoice > 0 {
		cmd.Printf("\nEnter choice [%d]: ", defaultChoice)
	} else {
		cmd.Print("\nEnter choice: ")
	}
	idx := parseChoice(readLine(reader), len(modes), defaultChoice)
	if idx == 0 {
		return ""
	}
	return modes[idx-1]
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selectedProvider := providers[idx-1]

	defaultModel := domain.DefaultLLMModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

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

// readPassword reads without echo on a terminal and falls back to reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
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
