package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/kv/mdbx"
)

var (
	dbWalkChaindata   string
	dbWalkTable       string
	dbWalkStartKeyHex string
	dbWalkMaxEntries  int
)

var dbWalkCmd = &cobra.Command{
	Use:   "db-walk",
	Short: "Walk a table's entries in key order",
	RunE: func(cmd *cobra.Command, args []string) error {
		var startKey []byte
		if dbWalkStartKeyHex != "" {
			var err error
			startKey, err = hex.DecodeString(dbWalkStartKeyHex)
			if err != nil {
				return fmt.Errorf("decoding --starting-key: %w", err)
			}
		}

		env, err := mdbx.Open(mdbx.Opts{Path: dbWalkChaindata, ReadOnly: true, Logger: logger}, kv.ChaindataTablesCfg)
		if err != nil {
			return err
		}
		defer env.Close()

		return env.View(cmd.Context(), func(tx kv.Tx) error {
			c, err := tx.Cursor(dbWalkTable)
			if err != nil {
				return err
			}
			defer c.Close()

			var k, v []byte
			if startKey != nil {
				k, v, err = c.Seek(startKey)
			} else {
				k, v, err = c.First()
			}
			if err != nil {
				return err
			}
			for i := 0; k != nil && (dbWalkMaxEntries <= 0 || i < dbWalkMaxEntries); i++ {
				fmt.Printf("%d / %s / %s\n", i, hex.EncodeToString(k), hex.EncodeToString(v))
				k, v, err = c.Next()
				if err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	dbWalkCmd.Flags().StringVar(&dbWalkChaindata, "chaindata", "", "chaindata path")
	dbWalkCmd.Flags().StringVar(&dbWalkTable, "table", "", "table name")
	dbWalkCmd.Flags().StringVar(&dbWalkStartKeyHex, "starting-key", "", "hex-encoded key to start from")
	dbWalkCmd.Flags().IntVar(&dbWalkMaxEntries, "max-entries", 0, "stop after this many entries (0 = unbounded)")
	_ = dbWalkCmd.MarkFlagRequired("chaindata")
	_ = dbWalkCmd.MarkFlagRequired("table")
}
