package main

import (
	"github.com/spf13/cobra"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/kv/mdbx"
	"github.com/zsluedem/akula-go/stagedsync"
	"github.com/zsluedem/akula-go/stages"
)

var (
	executeWithSourceChaindata       string
	executeWithSourceErigonChaindata string
)

var executeWithSourceCmd = &cobra.Command{
	Use:   "execute-with-source",
	Short: "Import a foreign (Erigon-layout) chaindata and run the staged-sync pipeline over it",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := mdbx.Open(mdbx.Opts{Path: executeWithSourceErigonChaindata, ReadOnly: true, Logger: logger}, kv.ChaindataTablesCfg)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := mdbx.Open(mdbx.Opts{Path: executeWithSourceChaindata, Logger: logger}, kv.ChaindataTablesCfg)
		if err != nil {
			return err
		}
		defer dst.Close()

		cfg := stages.DefaultCfg()
		done := false

		pipeline := []*stagedsync.Stage{
			stages.NewConvertHeaders(src, cfg, logger),
			stages.NewConvertHeadersTD(src, cfg, logger),
			stages.NewConvertCanonical(src, cfg, logger),
			stages.NewConvertBodies(src, cfg, logger),
			stages.NewBlockHashes(logger),
			stages.NewSenderRecovery(noopRecoverer{}, cfg, logger),
			stages.NewExecution(noopExecutor{}, stages.ExecutionCfg{Cfg: cfg, BatchSize: 10_000}, logger),
			stages.NewTerminatingStage(func() { done = true }, logger),
		}

		sync := stagedsync.New(pipeline, logger)
		if err := sync.Run(cmd.Context(), dst, true); err != nil {
			return err
		}
		if !done {
			logger.Warn("pipeline returned without reaching the terminating stage")
		}
		return nil
	},
}

func init() {
	executeWithSourceCmd.Flags().StringVar(&executeWithSourceChaindata, "chaindata", "", "destination chaindata path")
	executeWithSourceCmd.Flags().StringVar(&executeWithSourceErigonChaindata, "erigon-chaindata", "", "source (foreign) chaindata path")
	_ = executeWithSourceCmd.MarkFlagRequired("chaindata")
	_ = executeWithSourceCmd.MarkFlagRequired("erigon-chaindata")
}
