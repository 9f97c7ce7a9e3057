package main

import (
	"github.com/spf13/cobra"

	"github.com/skysurety/skysurety-node/constant"
)

var homeFlag string

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "skysuretyd",
		Short: "SkySurety flight-delay insurance ledger daemon",
	}

	rootCmd.PersistentFlags().StringVar(&homeFlag, "home", constant.DefaultNodeHome, "node home directory")

	InitRootCmd(rootCmd) // add subcommands like `start` and `version`

	return rootCmd
}
