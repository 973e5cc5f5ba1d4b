package main

import (
	"github.com/spf13/cobra"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/kv/mdbx"
	"github.com/zsluedem/akula-go/stagedsync"
	"github.com/zsluedem/akula-go/stages"
)

var blockhashesCmd = &cobra.Command{
	Use:   "blockhashes <chaindata>",
	Short: "Build the block-hash-to-number inverse index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := mdbx.Open(mdbx.Opts{Path: args[0], Logger: logger}, kv.ChaindataTablesCfg)
		if err != nil {
			return err
		}
		defer env.Close()

		sync := stagedsync.New([]*stagedsync.Stage{
			stages.NewBlockHashes(logger),
		}, logger)
		return sync.Run(cmd.Context(), env, true)
	},
}
