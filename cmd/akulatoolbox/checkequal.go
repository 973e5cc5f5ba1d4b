package main

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/kv/mdbx"
)

var (
	checkEqualDB1   string
	checkEqualDB2   string
	checkEqualTable string
)

var checkEqualCmd = &cobra.Command{
	Use:   "check-equal",
	Short: "Check that a table holds identical entries in two databases",
	RunE: func(cmd *cobra.Command, args []string) error {
		env1, err := mdbx.Open(mdbx.Opts{Path: checkEqualDB1, ReadOnly: true, Logger: logger}, kv.ChaindataTablesCfg)
		if err != nil {
			return err
		}
		defer env1.Close()
		env2, err := mdbx.Open(mdbx.Opts{Path: checkEqualDB2, ReadOnly: true, Logger: logger}, kv.ChaindataTablesCfg)
		if err != nil {
			return err
		}
		defer env2.Close()

		tx1, err := env1.BeginRo(cmd.Context())
		if err != nil {
			return err
		}
		defer tx1.Rollback()
		tx2, err := env2.BeginRo(cmd.Context())
		if err != nil {
			return err
		}
		defer tx2.Rollback()

		c1, err := tx1.Cursor(checkEqualTable)
		if err != nil {
			return err
		}
		defer c1.Close()
		c2, err := tx2.Cursor(checkEqualTable)
		if err != nil {
			return err
		}
		defer c2.Close()

		k1, v1, err := c1.First()
		if err != nil {
			return err
		}
		k2, v2, err := c2.First()
		if err != nil {
			return err
		}

		var i, excess int
		for k1 != nil || k2 != nil {
			if i%1_000_000 == 0 {
				logger.Info("checked entries", "count", i)
			}
			switch {
			case k1 != nil && k2 != nil:
				if !bytes.Equal(k1, k2) || !bytes.Equal(v1, v2) {
					return fmt.Errorf("mismatch at entry %d: %s:%s != %s:%s",
						i, hex.EncodeToString(k1), hex.EncodeToString(v1), hex.EncodeToString(k2), hex.EncodeToString(v2))
				}
				if k1, v1, err = c1.Next(); err != nil {
					return err
				}
				if k2, v2, err = c2.Next(); err != nil {
					return err
				}
			case k1 != nil:
				excess--
				if k1, v1, err = c1.Next(); err != nil {
					return err
				}
			default:
				excess++
				if k2, v2, err = c2.Next(); err != nil {
					return err
				}
			}
			i++
		}

		switch {
		case excess < 0:
			return fmt.Errorf("db1 longer than db2 by %d entries", -excess)
		case excess > 0:
			return fmt.Errorf("db2 longer than db1 by %d entries", excess)
		}
		return nil
	},
}

func init() {
	checkEqualCmd.Flags().StringVar(&checkEqualDB1, "db1", "", "first chaindata path")
	checkEqualCmd.Flags().StringVar(&checkEqualDB2, "db2", "", "second chaindata path")
	checkEqualCmd.Flags().StringVar(&checkEqualTable, "table", "", "table name")
	_ = checkEqualCmd.MarkFlagRequired("db1")
	_ = checkEqualCmd.MarkFlagRequired("db2")
	_ = checkEqualCmd.MarkFlagRequired("table")
}
