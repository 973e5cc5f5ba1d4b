// Package stages implements the Erigon-importer convert stages (bulk
// table conversion from a foreign source database) and the glue
// stages that complete a staged-sync pipeline around them.
package stages

import (
	"runtime"
	"time"

	"github.com/c2h5oh/datasize"
)

// Cfg holds the knobs spec.md §9 Open Question (b) asks to be
// configurable rather than hard-coded: how many entries a convert
// stage buffers before draining them, how long it may run before a
// forced commit, and how many goroutines decode/re-encode in
// parallel.
type Cfg struct {
	// BufferingFactor caps how many entries a convert stage reads from
	// the source before draining them into the destination. ConvertBodies
	// counts the transactions its bodies own instead, and keeps reading
	// bodies while that count is at or below the cap, so one batch can
	// pass it by the last body's transactions. The original toolbox
	// used a fixed 500_000; here it is a default.
	BufferingFactor int
	// FlushDeadline bounds how long a convert stage may run before it
	// must commit its progress and yield, even mid-source. The
	// original toolbox used a fixed 30 seconds; here it is a default.
	FlushDeadline time.Duration
	// Workers bounds how many goroutines decode/re-encode entries in
	// parallel before the serial append drain. Zero means
	// runtime.GOMAXPROCS(0).
	Workers int
	// CommitThreshold is the number of bytes a convert stage may append
	// in one Execute call before it stops and returns MustCommit (with
	// Done false), checked after each drained batch; expressed with
	// github.com/c2h5oh/datasize so configuration files can use
	// human units ("512MB") rather than a raw byte count.
	CommitThreshold datasize.ByteSize
}

// DefaultBufferingFactor matches the original toolbox's constant.
const DefaultBufferingFactor = 500_000

// DefaultFlushDeadline matches the original toolbox's constant.
const DefaultFlushDeadline = 30 * time.Second

// DefaultCommitThreshold is a conservative default batch-commit size.
const DefaultCommitThreshold = 512 * datasize.MB

// DefaultCfg returns a Cfg populated with the original toolbox's
// constants, workers defaulting to GOMAXPROCS.
func DefaultCfg() Cfg {
	return Cfg{
		BufferingFactor: DefaultBufferingFactor,
		FlushDeadline:   DefaultFlushDeadline,
		Workers:         runtime.GOMAXPROCS(0),
		CommitThreshold: DefaultCommitThreshold,
	}
}

func (c Cfg) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c Cfg) bufferingFactor() int {
	if c.BufferingFactor > 0 {
		return c.BufferingFactor
	}
	return DefaultBufferingFactor
}

func (c Cfg) flushDeadline() time.Duration {
	if c.FlushDeadline > 0 {
		return c.FlushDeadline
	}
	return DefaultFlushDeadline
}

func (c Cfg) commitThreshold() datasize.ByteSize {
	if c.CommitThreshold > 0 {
		return c.CommitThreshold
	}
	return DefaultCommitThreshold
}
