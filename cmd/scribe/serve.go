package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/abapscribe/scribe/internal/config"
	"github.com/abapscribe/scribe/internal/home"
	"github.com/abapscribe/scribe/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Scribe server",
	Long: `Start the Scribe HTTP server.

The server exposes the section split, synchronous bundle generation, the
background job queue, usage metrics, the LLM call log, and the swagger
docs. Generated DOCX artifacts land in the home data directory.

Provider settings hot-reload from the config file while the server runs.

Examples:
  scribe serve                    # Start on the configured address
  scribe serve --port 3000        # Start on custom port
  scribe serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load config, preferring an explicit --config over the home copy
		cfgPath := cfgFile
		if cfgPath == "" && h.ConfigExists() {
			cfgPath = h.ConfigPath()
		}
		manager, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		manager.WatchConfig()

		// Flags override the configured listen address
		host := serveHost
		if host == "" {
			host = manager.Get().Server.Host
		}
		port := servePort
		if port == "" {
			port = manager.Get().Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: manager,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
