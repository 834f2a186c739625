// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"context"
	"errors"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/snapshotvm/ledger"
	"github.com/ava-labs/snapshotvm/vmerr"
)

func validWasm(body string) []byte {
	return append([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}, body...)
}

// countingStore counts lookups and can be told to fail them.
type countingStore struct {
	Store
	gets int
	err  error
}

func (s *countingStore) Get(ctx context.Context, hexHash string) ([]byte, error) {
	s.gets++
	if s.err != nil {
		return nil, s.err
	}
	return s.Store.Get(ctx, hexHash)
}

func instance(contract byte, code []byte) ledger.Record {
	return ledger.ContractInstanceRecord(xdr.Hash{contract}, xdr.Hash(Hash(code)), ledger.Permanent())
}

func TestResolveInfersMissingCode(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	store := &countingStore{Store: NewMemStore()}
	code := validWasm("counter")
	_, err := Upload(ctx, store, code)
	require.NoError(err)

	records := []ledger.Record{instance(1, code)}
	inferred, err := NewResolver(store).Resolve(ctx, records)
	require.NoError(err)
	require.Len(inferred, 1)

	hash, ok := inferred[0].CodeHash()
	require.True(ok)
	require.Equal(xdr.Hash(Hash(code)), hash)
	require.Equal(code, inferred[0].Entry.Data.ContractCode.Code)
	require.Equal(ledger.MaxLifetime, inferred[0].Lifetime)
}

func TestResolveSkipsSuppliedAndDuplicateHashes(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	store := &countingStore{Store: NewMemStore()}
	supplied := validWasm("supplied")
	shared := validWasm("shared")
	_, err := Upload(ctx, store, shared)
	require.NoError(err)

	records := []ledger.Record{
		instance(1, supplied),
		ledger.ContractCodeRecord(xdr.Hash(Hash(supplied)), supplied, ledger.Permanent()),
		instance(2, shared),
		instance(3, shared),
	}
	inferred, err := NewResolver(store).Resolve(ctx, records)
	require.NoError(err)
	require.Len(inferred, 1)
	require.Equal(1, store.gets)
}

func TestResolveIsIdempotent(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	store := &countingStore{Store: NewMemStore()}
	code := validWasm("idempotent")
	_, err := Upload(ctx, store, code)
	require.NoError(err)

	resolver := NewResolver(store)
	records := []ledger.Record{instance(1, code)}
	inferred, err := resolver.Resolve(ctx, records)
	require.NoError(err)

	again, err := resolver.Resolve(ctx, append(records, inferred...))
	require.NoError(err)
	require.Empty(again)
}

func TestResolveMissingModule(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	store := &countingStore{Store: NewMemStore()}
	present := validWasm("present")
	missing := validWasm("missing")
	_, err := Upload(ctx, store, present)
	require.NoError(err)

	records := []ledger.Record{instance(1, present), instance(2, missing)}
	inferred, err := NewResolver(store).Resolve(ctx, records)
	require.ErrorIs(err, vmerr.ErrModuleNotFound)
	require.Nil(inferred)

	var vmErr *vmerr.Error
	require.ErrorAs(err, &vmErr)
	require.Equal(Hash(missing), vmErr.Hash)
}

func TestResolveStoreUnavailable(t *testing.T) {
	require := require.New(t)

	cause := errors.New("connection reset")
	store := &countingStore{Store: NewMemStore(), err: cause}
	records := []ledger.Record{instance(1, validWasm("a")), instance(2, validWasm("b"))}

	inferred, err := NewResolver(store).Resolve(context.Background(), records)
	require.ErrorIs(err, vmerr.ErrStoreUnavailable)
	require.ErrorIs(err, cause)
	require.Nil(inferred)
	require.Equal(1, store.gets)
}

func TestResolveRejectsCorruptModule(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	store := NewMemStore()
	code := validWasm("real")
	require.NoError(store.Put(ctx, Hash(code).Hex(), validWasm("tampered")))

	_, err := NewResolver(store).Resolve(ctx, []ledger.Record{instance(1, code)})
	require.ErrorIs(err, vmerr.ErrStoreUnavailable)
	require.ErrorIs(err, errCorruptModule)
}

func TestUploadValidatesMagic(t *testing.T) {
	tests := []struct {
		name  string
		code  []byte
		valid bool
	}{
		{"empty", nil, false},
		{"truncated magic", []byte{0x00, 0x61, 0x73}, false},
		{"magic only", []byte{0x00, 0x61, 0x73, 0x6d}, false},
		{"wrong magic", []byte{0x7f, 'E', 'L', 'F', 0x02}, false},
		{"magic and body", []byte{0x00, 0x61, 0x73, 0x6d, 0x01}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			store := NewMemStore()
			hash, err := Upload(context.Background(), store, tt.code)
			if !tt.valid {
				require.ErrorIs(err, vmerr.ErrValidation)
				require.Equal(ids.Empty, hash)
				return
			}
			require.NoError(err)
			require.Equal(Hash(tt.code), hash)

			code, err := store.Get(context.Background(), hash.Hex())
			require.NoError(err)
			require.Equal(tt.code, code)
		})
	}
}
