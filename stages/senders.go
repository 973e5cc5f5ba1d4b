package stages

import (
	"context"

	"github.com/ledgerwatch/log/v3"

	"github.com/zsluedem/akula-go/kv"
	"github.com/zsluedem/akula-go/stagedsync"
)

// SendersID names the sender-recovery stage.
const SendersID stagedsync.StageID = "Senders"

// Recoverer recovers the sender address of a single RLP-encoded
// transaction. Signature/consensus cryptography is explicitly out of
// scope (spec.md §1 Non-goals: consensus modules), so this stage
// depends on an injected Recoverer rather than implementing one.
type Recoverer interface {
	Recover(rlpTx []byte) ([]byte, error)
}

// NewSenderRecovery builds the Senders stage: for every block body
// not yet processed, recover and store the sender address of each of
// its transactions, in order, under kv.Senders.
func NewSenderRecovery(recover Recoverer, cfg Cfg, logger log.Logger) *stagedsync.Stage {
	if logger == nil {
		logger = log.Root()
	}
	return &stagedsync.Stage{
		ID:          SendersID,
		Description: "recover transaction sender addresses",
		Execute: func(ctx context.Context, tx kv.RwTx, input stagedsync.StageInput) (stagedsync.ExecOutput, error) {
			bodyCur, err := tx.Cursor(kv.BlockBody)
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			defer bodyCur.Close()

			txCur, err := tx.Cursor(kv.EthTx)
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			defer txCur.Close()

			var highest kv.BlockNumber
			k, v, err := bodyCur.Seek(kv.EncodeBlockSeekKey(input.Stage.BlockNumber + 1))
			if err != nil {
				return stagedsync.ExecOutput{}, err
			}
			workers := cfg.workers()
			count := 0
			for k != nil {
				blockKey, err := kv.DecodeBlockKey(k)
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}
				body, err := kv.DecodeBodyForStorage(v)
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}

				txs := make([][]byte, 0, body.TxAmount)
				tk, tv, err := txCur.Seek(kv.EncodeTxID(body.BaseTxId))
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}
				for i := uint32(0); i < body.TxAmount; i++ {
					if tk == nil {
						break
					}
					txs = append(txs, append([]byte(nil), tv...))
					tk, tv, err = txCur.Next()
					if err != nil {
						return stagedsync.ExecOutput{}, err
					}
				}

				senders, err := decodeReencode(ctx, workers, txs, recover.Recover)
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}
				if err := tx.Put(kv.Senders, append([]byte(nil), k...), flattenSenders(senders)); err != nil {
					return stagedsync.ExecOutput{}, err
				}

				if blockKey.Number > highest {
					highest = blockKey.Number
				}
				count++
				if count >= cfg.bufferingFactor() {
					logger.Info("senders recovered", "to", highest)
					return stagedsync.ExecOutput{Progress: highest, Done: false, MustCommit: true}, nil
				}
				k, v, err = bodyCur.Next()
				if err != nil {
					return stagedsync.ExecOutput{}, err
				}
			}
			if highest < input.Stage.BlockNumber {
				highest = input.Stage.BlockNumber
			}
			return stagedsync.ExecOutput{Progress: highest, Done: true, MustCommit: true}, nil
		},
		Unwind: func(ctx context.Context, tx kv.RwTx, input stagedsync.UnwindInput) error {
			return unwindBlockKeyedTable(tx, kv.Senders, input.Stage.UnwindTo)
		},
	}
}

const addressLen = 20

func flattenSenders(addrs [][]byte) []byte {
	out := make([]byte, 0, len(addrs)*addressLen)
	for _, a := range addrs {
		out = append(out, a...)
	}
	return out
}
