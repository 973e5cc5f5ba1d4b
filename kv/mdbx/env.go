// Package mdbx backs kv.RoDB/kv.RwDB with github.com/torquem-ch/mdbx-go,
// the embedded ordered-map B-tree store spec.md §6 describes: named
// sub-databases, dup-sort support, single-writer/multi-reader MVCC.
package mdbx

import (
	"context"
	"fmt"

	"github.com/ledgerwatch/log/v3"
	"github.com/torquem-ch/mdbx-go/mdbx"

	"github.com/zsluedem/akula-go/kv"
)

// Env is a kv.RwDB backed by a single mdbx.Env.
type Env struct {
	env      *mdbx.Env
	path     string
	readOnly bool
	cfg      kv.TableCfg
	dbis     map[string]mdbx.DBI
	logger   log.Logger
}

// Opts configures Open.
type Opts struct {
	Path     string
	ReadOnly bool
	// MapSize is the maximum size the environment may grow to.
	MapSize uint64
	Logger  log.Logger
}

// Open opens (creating if necessary, unless ReadOnly) an MDBX
// environment at opts.Path with every table in cfg registered as a
// named sub-database.
func Open(opts Opts, cfg kv.TableCfg) (*Env, error) {
	env, err := mdbx.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kv.ErrStoreUnavailable, err)
	}
	if err := env.SetOption(mdbx.OptMaxDB, uint64(len(cfg)+8)); err != nil {
		return nil, fmt.Errorf("%w: %v", kv.ErrStoreUnavailable, err)
	}
	mapSize := opts.MapSize
	if mapSize == 0 {
		mapSize = 2 << 30 // 2GiB default
	}
	if err := env.SetGeometry(-1, -1, int(mapSize), -1, -1, -1); err != nil {
		return nil, fmt.Errorf("%w: %v", kv.ErrStoreUnavailable, err)
	}

	flags := uint(mdbx.NoSubdir)
	if opts.ReadOnly {
		flags |= mdbx.Readonly
	}
	if err := env.Open(opts.Path, flags, 0664); err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", kv.ErrStoreUnavailable, opts.Path, err)
	}

	e := &Env{
		env:      env,
		path:     opts.Path,
		readOnly: opts.ReadOnly,
		cfg:      cfg,
		dbis:     make(map[string]mdbx.DBI, len(cfg)),
		logger:   opts.Logger,
	}
	if e.logger == nil {
		e.logger = log.Root()
	}

	if !e.readOnly {
		// Create every registered table's sub-database up front, inside
		// its own write transaction, so later read-only transactions
		// never race the first writer to create a DBI.
		txn, err := env.BeginTxn(nil, 0)
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("%w: %v", kv.ErrStoreUnavailable, err)
		}
		for name, item := range cfg {
			if _, err := txn.OpenDBI(name, uint(mdbx.Create)|uint(item.Flags)); err != nil {
				txn.Abort()
				env.Close()
				return nil, fmt.Errorf("%w: table %s: %v", kv.ErrSchemaMismatch, name, err)
			}
		}
		if err := txn.Commit(); err != nil {
			env.Close()
			return nil, fmt.Errorf("%w: %v", kv.ErrStoreUnavailable, err)
		}
	}
	return e, nil
}

func (e *Env) ReadOnly() bool         { return e.readOnly }
func (e *Env) AllTables() kv.TableCfg { return e.cfg }

func (e *Env) Close() {
	if e.env != nil {
		e.env.Close()
	}
}

func (e *Env) TableSizes() (map[string]uint64, error) {
	out := make(map[string]uint64, len(e.cfg))
	tx, err := e.BeginRo(context.Background())
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	for name := range e.cfg {
		sz, err := tx.BucketSize(name)
		if err != nil {
			return nil, err
		}
		out[name] = sz
	}
	return out, nil
}

func (e *Env) View(ctx context.Context, f func(tx kv.Tx) error) error {
	roTx, err := e.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer roTx.Rollback()
	return f(roTx)
}

func (e *Env) Update(ctx context.Context, f func(tx kv.RwTx) error) error {
	rwTx, err := e.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer rwTx.Rollback()
	if err := f(rwTx); err != nil {
		return err
	}
	return rwTx.Commit()
}

func (e *Env) BeginRo(ctx context.Context) (kv.Tx, error) {
	txn, err := e.env.BeginTxn(nil, mdbx.Readonly)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kv.ErrStoreUnavailable, err)
	}
	t := &Tx{env: e, txn: txn}
	if err := t.openDBIs(false); err != nil {
		txn.Abort()
		return nil, err
	}
	return t, nil
}

func (e *Env) BeginRw(ctx context.Context) (kv.RwTx, error) {
	if e.readOnly {
		return nil, fmt.Errorf("%w: environment opened read-only", kv.ErrWriterBusy)
	}
	txn, err := e.env.BeginTxn(nil, 0)
	if err != nil {
		if mdbx.IsBusy(err) {
			return nil, fmt.Errorf("%w: %v", kv.ErrWriterBusy, err)
		}
		return nil, fmt.Errorf("%w: %v", kv.ErrStoreUnavailable, err)
	}
	t := &Tx{env: e, txn: txn, writable: true}
	if err := t.openDBIs(true); err != nil {
		txn.Abort()
		return nil, err
	}
	return t, nil
}
