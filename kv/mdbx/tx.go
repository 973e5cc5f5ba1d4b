package mdbx

import (
	"bytes"
	"fmt"

	"github.com/torquem-ch/mdbx-go/mdbx"

	"github.com/zsluedem/akula-go/kv"
)

// Tx wraps an mdbx.Txn, read-only or read-write.
type Tx struct {
	env      *Env
	txn      *mdbx.Txn
	writable bool
	dbis     map[string]mdbx.DBI
	done     bool
}

func (t *Tx) openDBIs(create bool) error {
	t.dbis = make(map[string]mdbx.DBI, len(t.env.cfg))
	flags := uint(0)
	if create {
		flags = uint(mdbx.Create)
	}
	for name, item := range t.env.cfg {
		dbi, err := t.txn.OpenDBI(name, flags|uint(item.Flags))
		if err != nil {
			return fmt.Errorf("%w: table %s: %v", kv.ErrSchemaMismatch, name, err)
		}
		t.dbis[name] = dbi
	}
	return nil
}

func (t *Tx) dbi(table string) (mdbx.DBI, error) {
	d, ok := t.dbis[table]
	if !ok {
		return 0, fmt.Errorf("%w: unknown table %s", kv.ErrSchemaMismatch, table)
	}
	return d, nil
}

func (t *Tx) Has(table string, key []byte) (bool, error) {
	v, err := t.GetOne(table, key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (t *Tx) GetOne(table string, key []byte) ([]byte, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return nil, err
	}
	v, err := t.txn.Get(dbi, key)
	if err != nil {
		if mdbx.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (t *Tx) ForEach(table string, fromPrefix []byte, walker func(k, v []byte) error) error {
	c, err := t.Cursor(table)
	if err != nil {
		return err
	}
	defer c.Close()
	for k, v, err := c.Seek(fromPrefix); k != nil; k, v, err = c.Next() {
		if err != nil {
			return err
		}
		if !bytes.HasPrefix(k, fromPrefix) {
			break
		}
		if err := walker(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tx) BucketSize(table string) (uint64, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return 0, err
	}
	stat, err := t.txn.StatDBI(dbi)
	if err != nil {
		return 0, err
	}
	return (stat.BranchPages + stat.LeafPages + stat.OverflowPages) * uint64(stat.PSize), nil
}

func (t *Tx) Cursor(table string) (kv.Cursor, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return nil, err
	}
	c, err := t.txn.OpenCursor(dbi)
	if err != nil {
		return nil, err
	}
	kv.CursorOpened.Inc()
	return &Cursor{txn: t.txn, c: c}, nil
}

func (t *Tx) CursorDupSort(table string) (kv.CursorDupSort, error) {
	c, err := t.Cursor(table)
	if err != nil {
		return nil, err
	}
	return &DupCursor{Cursor: c.(*Cursor)}, nil
}

func (t *Tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	_, err := t.txn.Commit()
	if err == nil {
		kv.TxCommit.Inc()
	}
	return err
}

func (t *Tx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	t.txn.Abort()
	kv.TxRollback.Inc()
}

func (t *Tx) Put(table string, k, v []byte) error {
	dbi, err := t.dbi(table)
	if err != nil {
		return err
	}
	return t.txn.Put(dbi, k, v, 0)
}

func (t *Tx) Delete(table string, k []byte) error {
	dbi, err := t.dbi(table)
	if err != nil {
		return err
	}
	err = t.txn.Del(dbi, k, nil)
	if mdbx.IsNotFound(err) {
		return nil
	}
	return err
}

func (t *Tx) IncrementSequence(table string, amount uint64) (uint64, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return 0, err
	}
	return t.txn.Sequence(dbi, amount)
}

func (t *Tx) ReadSequence(table string) (uint64, error) {
	dbi, err := t.dbi(table)
	if err != nil {
		return 0, err
	}
	return t.txn.Sequence(dbi, 0)
}

func (t *Tx) Append(table string, k, v []byte) error {
	dbi, err := t.dbi(table)
	if err != nil {
		return err
	}
	err = t.txn.Put(dbi, k, v, mdbx.Append)
	if mdbx.IsKeyExists(err) {
		return kv.ErrOutOfOrderAppend
	}
	return err
}

func (t *Tx) AppendDup(table string, k, v []byte) error {
	dbi, err := t.dbi(table)
	if err != nil {
		return err
	}
	err = t.txn.Put(dbi, k, v, mdbx.AppendDup)
	if mdbx.IsKeyExists(err) {
		return kv.ErrOutOfOrderAppend
	}
	return err
}

func (t *Tx) RwCursor(table string) (kv.RwCursor, error) {
	c, err := t.Cursor(table)
	if err != nil {
		return nil, err
	}
	return c.(*Cursor), nil
}

func (t *Tx) RwCursorDupSort(table string) (kv.RwCursorDupSort, error) {
	dc, err := t.CursorDupSort(table)
	if err != nil {
		return nil, err
	}
	return dc.(*DupCursor), nil
}
