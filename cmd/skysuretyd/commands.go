package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skysurety/skysurety-node/config"
	"github.com/skysurety/skysurety-node/core"
	"github.com/skysurety/skysurety-node/logger"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func InitRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(startCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())
}

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the insurance ledger daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(homeFlag)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			cfg.NodeHome = homeFlag

			log := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogSampler)

			client, err := core.NewClient(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return client.Start(ctx)
		},
	}
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file to the node home",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteDefault(homeFlag)
			if err != nil {
				return err
			}
			fmt.Printf("Wrote default config to %s\n", path)
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print skysuretyd version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("skysuretyd %s\n", Version)
		},
	}
}
