package stages

import (
	"github.com/zsluedem/akula-go/kv"
)

// unwindBlockKeyedTable implements the convert-stage unwind algorithm
// (spec.md §9 Open Question a, left unspecified by the original): walk
// table backward from its tail and delete every entry whose
// compound (BlockNumber,BlockHash) key decodes to a block number past
// unwindTo, stopping as soon as an entry at or before unwindTo is
// reached.
func unwindBlockKeyedTable(tx kv.RwTx, table string, unwindTo kv.BlockNumber) error {
	c, err := tx.RwCursor(table)
	if err != nil {
		return err
	}
	defer c.Close()

	k, _, err := c.Last()
	if err != nil {
		return err
	}
	for k != nil {
		blockKey, err := kv.DecodeBlockKey(k)
		if err != nil {
			return err
		}
		if blockKey.Number <= unwindTo {
			break
		}
		if err := c.DeleteCurrent(); err != nil {
			return err
		}
		k, _, err = c.Prev()
		if err != nil {
			return err
		}
	}
	return nil
}

// unwindBlockNumberKeyedTable is unwindBlockKeyedTable's counterpart
// for tables keyed by a bare block number (CanonicalHeader,
// SyncStageProgress is handled separately by the engine itself).
func unwindBlockNumberKeyedTable(tx kv.RwTx, table string, unwindTo kv.BlockNumber) error {
	c, err := tx.RwCursor(table)
	if err != nil {
		return err
	}
	defer c.Close()

	k, _, err := c.Last()
	if err != nil {
		return err
	}
	for k != nil {
		n, err := kv.DecodeBlockNumber(k)
		if err != nil {
			return err
		}
		if n <= unwindTo {
			break
		}
		if err := c.DeleteCurrent(); err != nil {
			return err
		}
		k, _, err = c.Prev()
		if err != nil {
			return err
		}
	}
	return nil
}
