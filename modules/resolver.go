// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	log "github.com/inconshreveable/log15"
	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/ledger"
	"github.com/ava-labs/snapshotvm/vmerr"
)

var errCorruptModule = errors.New("stored bytecode does not match its hash")

// Resolver recovers bytecode that contract instances reference but the
// caller did not supply.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns one contract-code record for each WASM hash referenced by
// an instance in [records] that has no code record in [records]. Lookups run
// in order and the first failure aborts the pass with no records returned.
func (r *Resolver) Resolve(ctx context.Context, records []ledger.Record) ([]ledger.Record, error) {
	present := make(map[xdr.Hash]struct{})
	for _, rec := range records {
		if hash, ok := rec.CodeHash(); ok {
			present[hash] = struct{}{}
		}
	}

	var inferred []ledger.Record
	for _, rec := range records {
		hash, ok := rec.WasmHash()
		if !ok {
			continue
		}
		if _, ok := present[hash]; ok {
			continue
		}

		id := ids.ID(hash)
		code, err := r.store.Get(ctx, id.Hex())
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, vmerr.NotFound(id)
		case err != nil:
			return nil, vmerr.Unavailable(fmt.Errorf("failed to fetch module %s: %w", id.Hex(), err))
		case Hash(code) != id:
			return nil, vmerr.Unavailable(fmt.Errorf("module %s: %w", id.Hex(), errCorruptModule))
		}

		inferred = append(inferred, ledger.ContractCodeRecord(hash, code, ledger.MaxLifetime))
		present[hash] = struct{}{}
		log.Debug("inferred contract code", "hash", id.Hex(), "size", len(code))
	}
	return inferred, nil
}
