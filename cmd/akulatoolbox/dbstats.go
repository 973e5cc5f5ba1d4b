package main

import (
	"fmt"
	"sort"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/cobra"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/kv/mdbx"
)

var dbStatsCSV bool

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats <chaindata>",
	Short: "Print per-table on-disk sizes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := mdbx.Open(mdbx.Opts{Path: args[0], ReadOnly: true, Logger: logger}, kv.ChaindataTablesCfg)
		if err != nil {
			return err
		}
		defer env.Close()

		sizes, err := env.TableSizes()
		if err != nil {
			return err
		}

		type row struct {
			table string
			size  uint64
		}
		rows := make([]row, 0, len(sizes))
		for table, size := range sizes {
			rows = append(rows, row{table, size})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].size < rows[j].size })

		var total uint64
		if dbStatsCSV {
			fmt.Println("Table,Size")
			for _, r := range rows {
				fmt.Printf("%s,%d\n", r.table, r.size)
				total += r.size
			}
			return nil
		}
		for _, r := range rows {
			fmt.Printf("%s - %s\n", r.table, datasize.ByteSize(r.size).String())
			total += r.size
		}
		fmt.Printf("TOTAL: %s\n", datasize.ByteSize(total).String())
		return nil
	},
}

func init() {
	dbStatsCmd.Flags().BoolVar(&dbStatsCSV, "csv", false, "print as CSV instead of human-readable")
}
