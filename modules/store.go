// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package modules stores contract bytecode by content hash and recovers the
// bytecode a ledger snapshot references but does not carry.
package modules

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Store.Get for an unknown hash.
var ErrNotFound = errors.New("module not found")

// Store is a key-value store of WASM modules keyed by the lowercase hex
// SHA-256 of the bytecode. Implementations are safe for concurrent use.
type Store interface {
	Put(ctx context.Context, hexHash string, code []byte) error
	Get(ctx context.Context, hexHash string) ([]byte, error)
	Close() error
}
