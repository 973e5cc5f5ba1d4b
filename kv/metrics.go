package kv

import "github.com/VictoriaMetrics/metrics"

// Package-level counters exposed to whatever scrapes this process's
// metrics registry. Named and grouped the way erigon-lib's kv package
// does it: one counter per commit/rollback outcome, one per cursor
// open, so a dashboard can plot commit rate and cursor churn without
// the mdbx binding itself knowing anything about metrics.
var (
	TxCommit     = metrics.NewCounter(`kv_tx_commit_total`)
	TxRollback   = metrics.NewCounter(`kv_tx_rollback_total`)
	CursorOpened = metrics.NewCounter(`kv_cursor_opened_total`)
)
