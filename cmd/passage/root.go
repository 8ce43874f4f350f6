package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "passage",
		Short:         "Passage authentication service",
		Long:          `passage verifies Passage auth tokens and serves the authenticated user.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to passage.yaml (default: ./passage.yaml or ./config/passage.yaml)")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newPublishCmd())
	return rootCmd
}
