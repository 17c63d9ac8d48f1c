package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/historycourt/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/historycourt/internal/adapters/driving/mcp"
	"github.com/custodia-labs/historycourt/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves the JSON API used by the web client, with the MCP endpoint at
/mcp, Prometheus metrics at /metrics and a readiness probe at /healthz.

Prompt files are watched while serving and reloaded on change.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	serveCmd.Flags().Bool("no-mcp", false, "do not mount the MCP endpoint")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireService("history service", historyService); err != nil {
		return err
	}
	if err := requireService("game service", gameService); err != nil {
		return err
	}

	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}
	if addr == "" {
		addr = serveDeps.ServerAddr
	}
	noMCP, _ := cmd.Flags().GetBool("no-mcp") //nolint:errcheck // flag is registered in init

	opts := httpapi.Options{
		Metrics: serveDeps.Metrics,
		Health:  serveDeps.Health,
	}
	if !noMCP && roundGenerator != nil {
		mcpServer, err := mcp.NewServer(&mcp.Ports{
			Generator: roundGenerator,
			History:   historyService,
			Game:      gameService,
		})
		if err != nil {
			return err
		}
		opts.MCP = mcpServer.Handler()
	}

	api, err := httpapi.NewServer(httpapi.Ports{History: historyService, Game: gameService}, opts)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return api.Run(ctx, addr)
	})
	if serveDeps.Prompts != nil {
		g.Go(func() error {
			return serveDeps.Prompts.Watch(ctx, func(file string) {
				logger.Info("reloaded prompt %s", file)
			})
		})
	}

	cmd.Printf("Serving on http://%s\n", addr)
	return g.Wait()
}
