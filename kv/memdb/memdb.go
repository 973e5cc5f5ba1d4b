// Package memdb provides an in-memory RwDB implementation backed by
// github.com/google/btree, used throughout this module's tests in
// place of a real, cgo-backed MDBX environment. It reproduces the
// ordered-map contract (§6) that the on-disk store guarantees, minus
// durability and transaction isolation: every write goes straight to
// the shared tables, is visible to every open transaction at once, and
// is not undone by Rollback. Dup-sort tables are not supported.
package memdb

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/google/btree"

	"github.com/zsluedem/akula-go/kv"
)

type entry struct {
	key, value []byte
}

func (e *entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(*entry).key) < 0
}

// DB is an in-memory, btree-backed RwDB.
type DB struct {
	mu     sync.Mutex
	tables map[string]*btree.BTree
	seq    map[string]uint64
	cfg    kv.TableCfg
	writer bool
}

// New creates an empty in-memory environment with tables registered
// per cfg.
func New(cfg kv.TableCfg) *DB {
	d := &DB{
		tables: make(map[string]*btree.BTree),
		seq:    make(map[string]uint64),
		cfg:    cfg,
	}
	for name := range cfg {
		d.tables[name] = btree.New(32)
	}
	return d
}

func (d *DB) table(name string) *btree.BTree {
	t, ok := d.tables[name]
	if !ok {
		t = btree.New(32)
		d.tables[name] = t
	}
	return t
}

func (d *DB) ReadOnly() bool       { return false }
func (d *DB) Close()               {}
func (d *DB) AllTables() kv.TableCfg { return d.cfg }

func (d *DB) TableSizes() (map[string]uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]uint64, len(d.tables))
	for name, t := range d.tables {
		var size uint64
		t.Ascend(func(i btree.Item) bool {
			e := i.(*entry)
			size += uint64(len(e.key) + len(e.value))
			return true
		})
		out[name] = size
	}
	return out, nil
}

func (d *DB) View(ctx context.Context, f func(tx kv.Tx) error) error {
	tx, err := d.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (d *DB) Update(ctx context.Context, f func(tx kv.RwTx) error) error {
	tx, err := d.BeginRw(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) BeginRo(ctx context.Context) (kv.Tx, error) {
	return &tx{db: d}, nil
}

func (d *DB) BeginRw(ctx context.Context) (kv.RwTx, error) {
	d.mu.Lock()
	if d.writer {
		d.mu.Unlock()
		return nil, kv.ErrWriterBusy
	}
	d.writer = true
	d.mu.Unlock()
	return &tx{db: d, writable: true}, nil
}

type tx struct {
	db       *DB
	writable bool
	done     bool
}

func (t *tx) Has(table string, key []byte) (bool, error) {
	v, err := t.GetOne(table, key)
	return v != nil, err
}

func (t *tx) GetOne(table string, key []byte) ([]byte, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	bt := t.db.table(table)
	item := bt.Get(&entry{key: key})
	if item == nil {
		return nil, nil
	}
	return item.(*entry).value, nil
}

func (t *tx) ForEach(table string, fromPrefix []byte, walker func(k, v []byte) error) error {
	t.db.mu.Lock()
	bt := t.db.table(table)
	var items []*entry
	bt.AscendGreaterOrEqual(&entry{key: fromPrefix}, func(i btree.Item) bool {
		e := i.(*entry)
		if !bytes.HasPrefix(e.key, fromPrefix) {
			return false
		}
		items = append(items, e)
		return true
	})
	t.db.mu.Unlock()
	for _, e := range items {
		if err := walker(e.key, e.value); err != nil {
			return err
		}
	}
	return nil
}

func (t *tx) BucketSize(table string) (uint64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	var size uint64
	t.db.table(table).Ascend(func(i btree.Item) bool {
		e := i.(*entry)
		size += uint64(len(e.key) + len(e.value))
		return true
	})
	return size, nil
}

func (t *tx) Cursor(table string) (kv.Cursor, error) {
	return newCursor(t, table), nil
}

func (t *tx) CursorDupSort(table string) (kv.CursorDupSort, error) {
	return nil, fmt.Errorf("memdb: dup-sort tables not implemented")
}

func (t *tx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if t.writable {
		t.db.mu.Lock()
		t.db.writer = false
		t.db.mu.Unlock()
	}
	return nil
}

func (t *tx) Rollback() {
	if t.done {
		return
	}
	t.done = true
	if t.writable {
		t.db.mu.Lock()
		t.db.writer = false
		t.db.mu.Unlock()
	}
}

func (t *tx) Put(table string, k, v []byte) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	kk := append([]byte(nil), k...)
	vv := append([]byte(nil), v...)
	t.db.table(table).ReplaceOrInsert(&entry{key: kk, value: vv})
	return nil
}

func (t *tx) Delete(table string, k []byte) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.table(table).Delete(&entry{key: k})
	return nil
}

func (t *tx) IncrementSequence(table string, amount uint64) (uint64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	cur := t.db.seq[table]
	t.db.seq[table] = cur + amount
	return cur, nil
}

func (t *tx) ReadSequence(table string) (uint64, error) {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return t.db.seq[table], nil
}

func (t *tx) Append(table string, k, v []byte) error {
	t.db.mu.Lock()
	bt := t.db.table(table)
	var max *entry
	if bt.Len() > 0 {
		max = bt.Max().(*entry)
	}
	if max != nil && bytes.Compare(k, max.key) <= 0 {
		t.db.mu.Unlock()
		return kv.ErrOutOfOrderAppend
	}
	kk := append([]byte(nil), k...)
	vv := append([]byte(nil), v...)
	bt.ReplaceOrInsert(&entry{key: kk, value: vv})
	t.db.mu.Unlock()
	return nil
}

// AppendDup is Append: memdb keeps one value per key, so a repeated key
// is rejected with ErrOutOfOrderAppend rather than added as a duplicate.
func (t *tx) AppendDup(table string, k, v []byte) error {
	return t.Append(table, k, v)
}

func (t *tx) RwCursor(table string) (kv.RwCursor, error) {
	return newCursor(t, table), nil
}

func (t *tx) RwCursorDupSort(table string) (kv.RwCursorDupSort, error) {
	return nil, fmt.Errorf("memdb: dup-sort tables not implemented")
}

// cursor is a snapshot-ordered walk over a table: it materializes the
// key order once, at creation, and then walks that slice. This is
// sufficient for the stages, which never mutate a table through one
// cursor while walking it through another in the same direction.
type cursor struct {
	t     *tx
	table string
	keys  [][]byte
	pos   int
	ok    bool
}

func newCursor(t *tx, table string) *cursor {
	t.db.mu.Lock()
	bt := t.db.table(table)
	keys := make([][]byte, 0, bt.Len())
	bt.Ascend(func(i btree.Item) bool {
		keys = append(keys, i.(*entry).key)
		return true
	})
	t.db.mu.Unlock()
	return &cursor{t: t, table: table, keys: keys, pos: -1}
}

func (c *cursor) at(i int) (k, v []byte, err error) {
	if i < 0 || i >= len(c.keys) {
		c.ok = false
		return nil, nil, nil
	}
	c.pos = i
	c.ok = true
	v, err = c.t.GetOne(c.table, c.keys[i])
	if err != nil {
		return nil, nil, err
	}
	if v == nil {
		// deleted since the cursor snapshot was taken; skip forward.
		return c.Next()
	}
	return c.keys[i], v, nil
}

func (c *cursor) First() (k, v []byte, err error) { return c.at(0) }
func (c *cursor) Last() (k, v []byte, err error)  { return c.at(len(c.keys) - 1) }

func (c *cursor) Seek(seek []byte) (k, v []byte, err error) {
	idx := sortSearch(c.keys, seek)
	return c.at(idx)
}

func (c *cursor) SeekExact(key []byte) (v []byte, err error) {
	idx := sortSearch(c.keys, key)
	if idx >= len(c.keys) || !bytes.Equal(c.keys[idx], key) {
		return nil, nil
	}
	_, v, err = c.at(idx)
	return v, err
}

func (c *cursor) Next() (k, v []byte, err error) {
	if !c.ok {
		return c.at(0)
	}
	return c.at(c.pos + 1)
}

func (c *cursor) Prev() (k, v []byte, err error) {
	if !c.ok {
		return c.at(len(c.keys) - 1)
	}
	return c.at(c.pos - 1)
}

func (c *cursor) Current() (k, v []byte, err error) {
	if !c.ok {
		return nil, nil, nil
	}
	return c.at(c.pos)
}

func (c *cursor) Count() (uint64, error) { return uint64(len(c.keys)), nil }
func (c *cursor) Close()                 {}

func (c *cursor) Put(k, v []byte) error {
	return c.t.Put(c.table, k, v)
}

func (c *cursor) Append(k, v []byte) error {
	return c.t.Append(c.table, k, v)
}

func (c *cursor) Delete(k []byte) error {
	return c.t.Delete(c.table, k)
}

func (c *cursor) DeleteCurrent() error {
	if !c.ok {
		return kv.ErrCursorInvalidated
	}
	return c.t.Delete(c.table, c.keys[c.pos])
}

func sortSearch(keys [][]byte, seek []byte) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if bytes.Compare(keys[mid], seek) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
