package main

import (
	"github.com/rankgate/rankgate/bootstrap"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the RankGate API server.

The server will:
  - Load configuration from rankgate.yaml (or --config)
  - Or load configuration from RANKGATE_* environment variables
  - Open the database and apply migrations
  - Serve the metered /api endpoints with per-key quotas

Environment variables (for Docker deployments):
  RANKGATE_DATABASE_DSN      - Database path (default: rankgate.db)
  RANKGATE_SERVER_PORT       - Server port (default: 8772)
  RANKGATE_AUTH_HEADER       - API key header (default: X-API-Key)
  RANKGATE_QUOTA_FREE        - Daily ceiling for the free tier
  RANKGATE_LOG_LEVEL         - Log level: debug, info, warn, error

Examples:
  rankgate serve
  rankgate serve --config /etc/rankgate/config.yaml
  rankgate serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "enable hot reload of quota configuration")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		HotReload:  hotReload,
	})
	if err != nil {
		return err
	}
	return a.Run()
}
