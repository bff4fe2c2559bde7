package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FreePeak/inventory-dashboard/internal/config"
	"github.com/FreePeak/inventory-dashboard/internal/logger"
	"github.com/FreePeak/inventory-dashboard/pkg/db"
)

type cmdGlobal struct {
	flagLogLevel string
	flagEnvFile  string

	config *config.Config
}

// preRun loads the configuration and sets up logging for every subcommand
func (g *cmdGlobal) preRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigFrom(g.flagEnvFile)
	if err != nil {
		return err
	}
	if g.flagLogLevel != "" {
		cfg.LogLevel = g.flagLogLevel
	}

	logger.Initialize(cfg.LogLevel)
	g.config = cfg
	return nil
}

// connect opens the configured database and checks it answers
func (g *cmdGlobal) connect(ctx context.Context) (db.Database, error) {
	database, err := db.Open(g.config.Database())
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, g.config.QueryTimeout)
	defer cancel()
	if err := database.Ping(pingCtx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("database %s is not reachable: %w", database.ConnectionString(), err)
	}
	return database, nil
}

func newApp() *cobra.Command {
	globalCmd := &cmdGlobal{}

	app := &cobra.Command{
		Use:   "inventory",
		Short: "Inventory dashboard and query tool",
		Long: `Edit an inventory table through a web dashboard, run structured
queries against it and launch the dashboard container.`,
		SilenceUsage:      true,
		PersistentPreRunE: globalCmd.preRun,
	}
	app.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	app.PersistentFlags().StringVar(&globalCmd.flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	app.PersistentFlags().StringVar(&globalCmd.flagEnvFile, "env-file", config.DefaultEnvFile, "Environment file to load")

	serveCmd := cmdServe{global: globalCmd}
	app.AddCommand(serveCmd.command())

	queryCmd := cmdQuery{global: globalCmd}
	app.AddCommand(queryCmd.command())

	launchCmd := cmdLaunch{global: globalCmd}
	app.AddCommand(launchCmd.command())

	return app
}

func main() {
	if err := newApp().Execute(); err != nil {
		os.Exit(1)
	}
}
