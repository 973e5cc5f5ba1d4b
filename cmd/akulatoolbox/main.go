// Command akulatoolbox is a set of small utilities for operating on an
// akula-go chaindata directory: inspecting tables, walking entries,
// diffing two databases, and driving a staged-sync import from a
// foreign (Erigon-layout) source database.
package main

import (
	"os"

	"github.com/ledgerwatch/log/v3"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Root().Error(err.Error())
		os.Exit(1)
	}
}
