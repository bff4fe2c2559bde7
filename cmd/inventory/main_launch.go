package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FreePeak/inventory-dashboard/internal/bootstrap"
)

type cmdLaunch struct {
	global *cmdGlobal

	flagName    string
	flagPort    int
	flagContext string
}

func (c *cmdLaunch) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Build, create and start the dashboard container",
		Long: `Build the dashboard image and create its container when it does not
exist yet, then start the container when it is not running.`,
		Args: cobra.NoArgs,
		RunE: c.run,
	}
	cmd.Flags().StringVar(&c.flagName, "name", "", "Container and image name (defaults to CONTAINER_NAME)")
	cmd.Flags().IntVar(&c.flagPort, "port", 0, "Published port (defaults to SERVER_PORT)")
	cmd.Flags().StringVar(&c.flagContext, "context", "", "Docker build context (defaults to CONTAINER_CONTEXT)")
	return cmd
}

func (c *cmdLaunch) run(cmd *cobra.Command, args []string) error {
	cfg := c.global.config

	launcher := bootstrap.NewLauncher(cfg.Container.Name, cfg.ServerPort, cfg.Container.ContextDir)
	if c.flagName != "" {
		launcher.Name = c.flagName
	}
	if c.flagPort != 0 {
		launcher.Port = c.flagPort
	}
	if c.flagContext != "" {
		launcher.ContextDir = c.flagContext
	}

	state, err := launcher.EnsureContainer(cmd.Context())
	if err != nil {
		return err
	}

	switch {
	case state.Created:
		fmt.Fprintf(cmd.OutOrStdout(), "Created and started container %s\n", launcher.Name)
	case state.Started:
		fmt.Fprintf(cmd.OutOrStdout(), "Started container %s\n", launcher.Name)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Container %s is already running\n", launcher.Name)
	}
	return nil
}
