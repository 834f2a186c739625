// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/snapshotvm/vmerr"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// ValidateWasm checks that [code] starts with the WASM magic and carries
// something after it.
func ValidateWasm(code []byte) error {
	if len(code) <= len(wasmMagic) || !bytes.HasPrefix(code, wasmMagic) {
		return vmerr.Validationf("provided binary is not valid wasm")
	}
	return nil
}

// Hash is the content address of [code].
func Hash(code []byte) ids.ID {
	return hashing.ComputeHash256Array(code)
}

// Upload validates [code] and stores it under its hash.
func Upload(ctx context.Context, store Store, code []byte) (ids.ID, error) {
	if err := ValidateWasm(code); err != nil {
		return ids.Empty, err
	}
	hash := Hash(code)
	if err := store.Put(ctx, hash.Hex(), code); err != nil {
		return ids.Empty, vmerr.Unavailable(fmt.Errorf("failed to store module %s: %w", hash.Hex(), err))
	}
	log.Debug("uploaded module", "hash", hash.Hex(), "size", len(code))
	return hash, nil
}
