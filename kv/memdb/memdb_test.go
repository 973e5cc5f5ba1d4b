package memdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zsluedem/akula-go/kv"
)

func TestAppendMonotonicity(t *testing.T) {
	db := New(kv.ChaindataTablesCfg)
	ctx := context.Background()

	err := db.Update(ctx, func(tx kv.RwTx) error {
		require.NoError(t, tx.Append(kv.SyncStageProgress, kv.EncodeBlockNumber(1), []byte("a")))
		require.NoError(t, tx.Append(kv.SyncStageProgress, kv.EncodeBlockNumber(2), []byte("b")))
		err := tx.Append(kv.SyncStageProgress, kv.EncodeBlockNumber(2), []byte("c"))
		require.ErrorIs(t, err, kv.ErrOutOfOrderAppend)
		return nil
	})
	require.NoError(t, err)
}

func TestCursorWalkOrder(t *testing.T) {
	db := New(kv.ChaindataTablesCfg)
	ctx := context.Background()

	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		for _, n := range []kv.BlockNumber{5, 1, 3} {
			if err := tx.Put(kv.SyncStageProgress, kv.EncodeBlockNumber(n), []byte{byte(n)}); err != nil {
				return err
			}
		}
		return nil
	}))

	var seen []kv.BlockNumber
	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		c, err := tx.Cursor(kv.SyncStageProgress)
		require.NoError(t, err)
		defer c.Close()
		for k, _, err := c.First(); k != nil; k, _, err = c.Next() {
			require.NoError(t, err)
			n, err := kv.DecodeBlockNumber(k)
			require.NoError(t, err)
			seen = append(seen, n)
		}
		return nil
	}))
	require.Equal(t, []kv.BlockNumber{1, 3, 5}, seen)
}

func TestWriterBusy(t *testing.T) {
	db := New(kv.ChaindataTablesCfg)
	ctx := context.Background()
	tx, err := db.BeginRw(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = db.BeginRw(ctx)
	require.ErrorIs(t, err, kv.ErrWriterBusy)
}

func TestSeekFindsFirstAtOrAfter(t *testing.T) {
	db := New(kv.ChaindataTablesCfg)
	ctx := context.Background()
	require.NoError(t, db.Update(ctx, func(tx kv.RwTx) error {
		return tx.Put(kv.SyncStageProgress, kv.EncodeBlockNumber(10), []byte{1})
	}))

	require.NoError(t, db.View(ctx, func(tx kv.Tx) error {
		c, err := tx.Cursor(kv.SyncStageProgress)
		require.NoError(t, err)
		defer c.Close()
		k, _, err := c.Seek(kv.EncodeBlockNumber(5))
		require.NoError(t, err)
		n, err := kv.DecodeBlockNumber(k)
		require.NoError(t, err)
		require.Equal(t, kv.BlockNumber(10), n)
		return nil
	}))
}
