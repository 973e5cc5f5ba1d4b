package stages

import (
	"context"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/kv/memdb"
)

func newSourceWithBodies(t *testing.T, blocks int, txsPerBlock uint32) memSource {
	db := memdb.New(kv.ChaindataTablesCfg)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		var nextTxID uint64
		for i := 1; i <= blocks; i++ {
			var h kv.Hash
			h[0] = byte(i)
			body := kv.BodyForStorage{BaseTxId: nextTxID, TxAmount: txsPerBlock}
			key := kv.EncodeBlockKey(kv.BlockKey{Number: kv.BlockNumber(i), Hash: h})
			if err := tx.Put(kv.BlockBody, key, kv.EncodeBodyForStorage(body)); err != nil {
				return err
			}
			for j := uint32(0); j < txsPerBlock; j++ {
				if err := tx.Put(kv.EthTx, kv.EncodeTxID(nextTxID), []byte{byte(i), byte(j)}); err != nil {
					return err
				}
				nextTxID++
			}
		}
		return nil
	}))
	return memSource{db: db}
}

func TestConvertBodiesCopiesContiguousTxRange(t *testing.T) {
	src := newSourceWithBodies(t, 3, 2)
	dst := memdb.New(kv.ChaindataTablesCfg)

	require.NoError(t, dst.Update(context.Background(), func(tx kv.RwTx) error {
		out, err := convertBodies(context.Background(), src, tx, kv.EncodeBlockSeekKey(1), 0, DefaultCfg(), log.Root())
		require.NoError(t, err)
		require.True(t, out.Done)
		require.Equal(t, kv.BlockNumber(3), out.Progress)
		return nil
	}))

	require.NoError(t, dst.View(context.Background(), func(tx kv.Tx) error {
		var txCount int
		require.NoError(t, tx.ForEach(kv.EthTx, nil, func(k, v []byte) error { txCount++; return nil }))
		require.Equal(t, 6, txCount)

		var h kv.Hash
		h[0] = 2
		v, err := tx.GetOne(kv.BlockBody, kv.EncodeBlockKey(kv.BlockKey{Number: 2, Hash: h}))
		require.NoError(t, err)
		body, err := kv.DecodeBodyForStorage(v)
		require.NoError(t, err)
		require.Equal(t, uint64(2), body.BaseTxId)
		require.Equal(t, uint32(2), body.TxAmount)
		return nil
	}))
}

func TestUnwindBodiesRemovesTailAndItsTxs(t *testing.T) {
	src := newSourceWithBodies(t, 5, 1)
	dst := memdb.New(kv.ChaindataTablesCfg)

	require.NoError(t, dst.Update(context.Background(), func(tx kv.RwTx) error {
		_, err := convertBodies(context.Background(), src, tx, kv.EncodeBlockSeekKey(1), 0, DefaultCfg(), log.Root())
		return err
	}))

	require.NoError(t, dst.Update(context.Background(), func(tx kv.RwTx) error {
		return unwindBodies(tx, 2)
	}))

	require.NoError(t, dst.View(context.Background(), func(tx kv.Tx) error {
		var bodyCount, txCount int
		require.NoError(t, tx.ForEach(kv.BlockBody, nil, func(k, v []byte) error { bodyCount++; return nil }))
		require.NoError(t, tx.ForEach(kv.EthTx, nil, func(k, v []byte) error { txCount++; return nil }))
		require.Equal(t, 2, bodyCount)
		require.Equal(t, 2, txCount)
		return nil
	}))
}
