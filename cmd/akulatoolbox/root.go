package main

import (
	"github.com/ledgerwatch/log/v3"
	"github.com/spf13/cobra"

	"github.com/zsluedem/akula-go/turbo/logging"
)

var logger log.Logger = log.Root()

var rootCmd = &cobra.Command{
	Use:           "akulatoolbox",
	Short:         "Utilities for operating on an akula-go chaindata directory",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.SetupLoggerCmd("akulatoolbox", cmd)
	},
}

func init() {
	logging.AddFlags(rootCmd)
	rootCmd.AddCommand(
		dbStatsCmd,
		dbQueryCmd,
		dbWalkCmd,
		checkEqualCmd,
		blockhashesCmd,
		executeWithSourceCmd,
	)
}
