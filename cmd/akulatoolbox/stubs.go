package main

import (
	"context"

	"github.com/zsluedem/akula-go/kv"
)

// noopRecoverer and noopExecutor stand in for the signature-recovery
// and EVM execution this toolbox otherwise has no business doing
// (consensus/crypto internals are out of scope): they let
// execute-with-source exercise the full pipeline end to end without
// pulling in an EVM or a secp256k1 recovery dependency this module
// never needs elsewhere.
type noopRecoverer struct{}

func (noopRecoverer) Recover(rlpTx []byte) ([]byte, error) {
	return make([]byte, 20), nil
}

type noopExecutor struct{}

func (noopExecutor) ExecuteBlock(ctx context.Context, tx kv.RwTx, blockKey kv.BlockKey, body kv.BodyForStorage) error {
	return nil
}
