package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FreePeak/inventory-dashboard/internal/inventory"
	"github.com/FreePeak/inventory-dashboard/internal/logger"
	"github.com/FreePeak/inventory-dashboard/internal/server"
)

type cmdServe struct {
	global *cmdGlobal

	flagPort int
}

func (c *cmdServe) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inventory dashboard",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	cmd.Flags().IntVar(&c.flagPort, "port", 0, "Port to listen on (defaults to SERVER_PORT)")
	return cmd
}

func (c *cmdServe) run(cmd *cobra.Command, args []string) error {
	cfg := c.global.config
	port := cfg.ServerPort
	if c.flagPort != 0 {
		port = c.flagPort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := c.global.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("Failed to close database: %v", err)
		}
	}()

	session := inventory.NewSession(database, cfg.Inventory.Table, cfg.Inventory.KeyColumn)
	loadCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
	err = session.Reload(loadCtx)
	cancel()
	if err != nil {
		logger.Warn("Inventory not loaded yet: %v", err)
	}

	srv, err := server.NewServer(session, database)
	if err != nil {
		return err
	}

	if err := srv.Serve(ctx, port); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
