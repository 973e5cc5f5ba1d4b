package stages

import (
	"context"
	"testing"

	"github.com/ledgerwatch/log/v3"
	"github.com/stretchr/testify/require"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/kv/memdb"
	"github.com/zsluedem/akula-go/stagedsync"
)

func TestBlockHashesBuildsInverseIndex(t *testing.T) {
	db := memdb.New(kv.ChaindataTablesCfg)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		for i := 1; i <= 3; i++ {
			var h kv.Hash
			h[0] = byte(i)
			if err := tx.Put(kv.HeaderCanonical, kv.EncodeCanonicalKey(kv.BlockNumber(i)), kv.EncodeHash(h)); err != nil {
				return err
			}
		}
		return nil
	}))

	stage := NewBlockHashes(log.Root())
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		out, err := stage.Execute(context.Background(), tx, stagedsync.StageInput{Stage: &stagedsync.StageState{ID: stage.ID}})
		require.NoError(t, err)
		require.True(t, out.Done)
		require.Equal(t, kv.BlockNumber(3), out.Progress)
		return nil
	}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		var h kv.Hash
		h[0] = 2
		v, err := tx.GetOne(kv.HeaderNumber, kv.EncodeHash(h))
		require.NoError(t, err)
		n, err := kv.DecodeBlockNumber(v)
		require.NoError(t, err)
		require.Equal(t, kv.BlockNumber(2), n)
		return nil
	}))
}

type fakeRecoverer struct{}

func (fakeRecoverer) Recover(rlpTx []byte) ([]byte, error) {
	addr := make([]byte, addressLen)
	if len(rlpTx) > 0 {
		addr[0] = rlpTx[0]
	}
	return addr, nil
}

func TestSenderRecoveryStoresAddressesInOrder(t *testing.T) {
	db := memdb.New(kv.ChaindataTablesCfg)
	var blockKey []byte
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		var h kv.Hash
		h[0] = 1
		blockKey = kv.EncodeBlockKey(kv.BlockKey{Number: 1, Hash: h})
		body := kv.BodyForStorage{BaseTxId: 0, TxAmount: 2}
		if err := tx.Put(kv.BlockBody, blockKey, kv.EncodeBodyForStorage(body)); err != nil {
			return err
		}
		if err := tx.Put(kv.EthTx, kv.EncodeTxID(0), []byte{0xAA}); err != nil {
			return err
		}
		return tx.Put(kv.EthTx, kv.EncodeTxID(1), []byte{0xBB})
	}))

	stage := NewSenderRecovery(fakeRecoverer{}, DefaultCfg(), log.Root())
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		out, err := stage.Execute(context.Background(), tx, stagedsync.StageInput{Stage: &stagedsync.StageState{ID: stage.ID}})
		require.NoError(t, err)
		require.True(t, out.Done)
		return nil
	}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		v, err := tx.GetOne(kv.Senders, blockKey)
		require.NoError(t, err)
		require.Len(t, v, 2*addressLen)
		require.Equal(t, byte(0xAA), v[0])
		require.Equal(t, byte(0xBB), v[addressLen])
		return nil
	}))
}

type fakeExecutor struct{ executed []kv.BlockNumber }

func (f *fakeExecutor) ExecuteBlock(ctx context.Context, tx kv.RwTx, blockKey kv.BlockKey, body kv.BodyForStorage) error {
	f.executed = append(f.executed, blockKey.Number)
	return nil
}

func TestExecutionRespectsBatchSize(t *testing.T) {
	db := memdb.New(kv.ChaindataTablesCfg)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		for i := 1; i <= 3; i++ {
			var h kv.Hash
			h[0] = byte(i)
			key := kv.EncodeBlockKey(kv.BlockKey{Number: kv.BlockNumber(i), Hash: h})
			if err := tx.Put(kv.BlockBody, key, kv.EncodeBodyForStorage(kv.BodyForStorage{})); err != nil {
				return err
			}
		}
		return nil
	}))

	exec := &fakeExecutor{}
	stage := NewExecution(exec, ExecutionCfg{Cfg: DefaultCfg(), BatchSize: 2}, log.Root())

	progress := kv.BlockNumber(0)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		out, err := stage.Execute(context.Background(), tx, stagedsync.StageInput{Stage: &stagedsync.StageState{ID: stage.ID, BlockNumber: progress}})
		require.NoError(t, err)
		require.False(t, out.Done)
		progress = out.Progress
		return nil
	}))
	require.Equal(t, []kv.BlockNumber{1, 2}, exec.executed)

	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		out, err := stage.Execute(context.Background(), tx, stagedsync.StageInput{Stage: &stagedsync.StageState{ID: stage.ID, BlockNumber: progress}})
		require.NoError(t, err)
		require.True(t, out.Done)
		return nil
	}))
	require.Equal(t, []kv.BlockNumber{1, 2, 3}, exec.executed)
}

func TestTerminatingStageInvokesCallback(t *testing.T) {
	called := false
	stage := NewTerminatingStage(func() { called = true }, log.Root())
	db := memdb.New(kv.ChaindataTablesCfg)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		out, err := stage.Execute(context.Background(), tx, stagedsync.StageInput{Stage: &stagedsync.StageState{ID: stage.ID, BlockNumber: 9}})
		require.NoError(t, err)
		require.True(t, out.Done)
		require.Equal(t, kv.BlockNumber(9), out.Progress)
		return nil
	}))
	require.True(t, called)
}
