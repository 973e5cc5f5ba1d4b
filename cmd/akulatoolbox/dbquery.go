package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/kv/mdbx"
)

var (
	dbQueryChaindata string
	dbQueryTable     string
	dbQueryKeyHex    string
)

var dbQueryCmd = &cobra.Command{
	Use:   "db-query",
	Short: "Look up a single key in a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := hex.DecodeString(dbQueryKeyHex)
		if err != nil {
			return fmt.Errorf("decoding --key: %w", err)
		}
		env, err := mdbx.Open(mdbx.Opts{Path: dbQueryChaindata, ReadOnly: true, Logger: logger}, kv.ChaindataTablesCfg)
		if err != nil {
			return err
		}
		defer env.Close()

		return env.View(cmd.Context(), func(tx kv.Tx) error {
			v, err := tx.GetOne(dbQueryTable, key)
			if err != nil {
				return err
			}
			if v == nil {
				fmt.Println("<nil>")
				return nil
			}
			fmt.Println(hex.EncodeToString(v))
			return nil
		})
	},
}

func init() {
	dbQueryCmd.Flags().StringVar(&dbQueryChaindata, "chaindata", "", "chaindata path")
	dbQueryCmd.Flags().StringVar(&dbQueryTable, "table", "", "table name")
	dbQueryCmd.Flags().StringVar(&dbQueryKeyHex, "key", "", "hex-encoded key")
	_ = dbQueryCmd.MarkFlagRequired("chaindata")
	_ = dbQueryCmd.MarkFlagRequired("table")
	_ = dbQueryCmd.MarkFlagRequired("key")
}
