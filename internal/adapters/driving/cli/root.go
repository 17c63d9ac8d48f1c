// Package cli provides the cobra command tree for historycourt.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/historycourt/internal/core/ports/driving"
	"github.com/custodia-labs/historycourt/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// PromptWatcher reloads prompt files as they change.
type PromptWatcher interface {
	Watch(ctx context.Context, onReload func(file string)) error
}

// Services are the ports the commands drive.
type Services struct {
	History   driving.HistoryService
	Game      driving.GameService
	Generator driving.RoundGenerator
	Settings  driving.SettingsService

	// Metrics is served at /metrics by serve.
	Metrics http.Handler

	// Health reports readiness at /healthz.
	Health func(ctx context.Context) error

	// Prompts is watched by serve. Optional.
	Prompts PromptWatcher

	// ServerAddr is the default listen address for serve.
	ServerAddr string
}

var (
	historyService  driving.HistoryService
	gameService     driving.GameService
	roundGenerator  driving.RoundGenerator
	settingsService driving.SettingsService
	serveDeps       Services
)

var rootCmd = &cobra.Command{
	Use:   "historycourt",
	Short: "Two truths and a lie from your browsing history",
	Long: `historycourt turns an exported browsing history into rounds of
"two truths and a lie": two real pages you visited and one invented one.

Upload a history to create a session, create a case from the session,
then play it here, over the HTTP API or through MCP.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose") //nolint:errcheck // flag is registered below
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log pipeline details to stderr")
}

// SetServices injects the services used by the commands.
func SetServices(s Services) {
	historyService = s.History
	gameService = s.Game
	roundGenerator = s.Generator
	settingsService = s.Settings
	serveDeps = s
}

// SetVersion sets the version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
