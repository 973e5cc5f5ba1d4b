package mdbx

import (
	"github.com/torquem-ch/mdbx-go/mdbx"

	"github.com/zsluedem/akula-go/kv"
)

// Cursor wraps an mdbx.Cursor over a non-dup-sort table.
type Cursor struct {
	txn *mdbx.Txn
	c   *mdbx.Cursor
}

func notFoundNil(k, v []byte, err error) ([]byte, []byte, error) {
	if err != nil {
		if mdbx.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return k, v, nil
}

func (c *Cursor) First() ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(nil, nil, mdbx.First))
}

func (c *Cursor) Seek(seek []byte) ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(seek, nil, mdbx.SetRange))
}

func (c *Cursor) SeekExact(key []byte) ([]byte, error) {
	_, v, err := notFoundNil(c.c.Get(key, nil, mdbx.Set))
	return v, err
}

func (c *Cursor) Next() ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(nil, nil, mdbx.Next))
}

func (c *Cursor) Prev() ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(nil, nil, mdbx.Prev))
}

func (c *Cursor) Last() ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(nil, nil, mdbx.Last))
}

func (c *Cursor) Current() ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(nil, nil, mdbx.GetCurrent))
}

func (c *Cursor) Count() (uint64, error) {
	return c.c.Count()
}

func (c *Cursor) Close() { c.c.Close() }

func (c *Cursor) Put(k, v []byte) error {
	return c.c.Put(k, v, 0)
}

func (c *Cursor) Append(k, v []byte) error {
	err := c.c.Put(k, v, mdbx.Append)
	if mdbx.IsKeyExists(err) {
		return kv.ErrOutOfOrderAppend
	}
	return err
}

func (c *Cursor) Delete(k []byte) error {
	if _, _, err := c.c.Get(k, nil, mdbx.Set); err != nil {
		if mdbx.IsNotFound(err) {
			return nil
		}
		return err
	}
	return c.c.Del(0)
}

func (c *Cursor) DeleteCurrent() error {
	return c.c.Del(0)
}

// DupCursor adds dup-sort navigation over Cursor.
type DupCursor struct {
	*Cursor
}

func (c *DupCursor) SeekBothExact(key, value []byte) ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(key, value, mdbx.GetBoth))
}

func (c *DupCursor) SeekBothRange(key, value []byte) ([]byte, error) {
	_, v, err := notFoundNil(c.c.Get(key, value, mdbx.GetBothRange))
	return v, err
}

func (c *DupCursor) FirstDup() ([]byte, error) {
	_, v, err := notFoundNil(c.c.Get(nil, nil, mdbx.FirstDup))
	return v, err
}

func (c *DupCursor) NextDup() ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(nil, nil, mdbx.NextDup))
}

func (c *DupCursor) NextNoDup() ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(nil, nil, mdbx.NextNoDup))
}

func (c *DupCursor) PrevDup() ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(nil, nil, mdbx.PrevDup))
}

func (c *DupCursor) PrevNoDup() ([]byte, []byte, error) {
	return notFoundNil(c.c.Get(nil, nil, mdbx.PrevNoDup))
}

func (c *DupCursor) LastDup() ([]byte, error) {
	_, v, err := notFoundNil(c.c.Get(nil, nil, mdbx.LastDup))
	return v, err
}

func (c *DupCursor) CountDuplicates() (uint64, error) {
	return c.c.Count()
}

func (c *DupCursor) PutNoDupData(k, v []byte) error {
	return c.c.Put(k, v, mdbx.NoDupData)
}

func (c *DupCursor) DeleteCurrentDuplicates() error {
	return c.c.Del(mdbx.AllDups)
}

func (c *DupCursor) DeleteExact(k1, k2 []byte) error {
	if _, _, err := c.c.Get(k1, k2, mdbx.GetBoth); err != nil {
		if mdbx.IsNotFound(err) {
			return nil
		}
		return err
	}
	return c.c.Del(0)
}

func (c *DupCursor) AppendDup(k, v []byte) error {
	err := c.c.Put(k, v, mdbx.AppendDup)
	if mdbx.IsKeyExists(err) {
		return kv.ErrOutOfOrderAppend
	}
	return err
}
