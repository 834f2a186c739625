// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"bytes"
	"sort"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"
)

func dataRecord(contract byte, sym string, val uint32, lifetime Lifetime) Record {
	contractID := xdr.Hash{contract}
	symbol := xdr.ScSymbol(sym)
	v := xdr.Uint32(val)
	key := xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract:   contractAddress(contractID),
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &symbol},
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	}
	return Record{
		Key: key,
		Entry: xdr.LedgerEntry{
			Data: xdr.LedgerEntryData{
				Type: xdr.LedgerEntryTypeContractData,
				ContractData: &xdr.ContractDataEntry{
					Contract:   key.ContractData.Contract,
					Key:        key.ContractData.Key,
					Durability: xdr.ContractDataDurabilityPersistent,
					Val:        xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &v},
				},
			},
		},
		Lifetime: lifetime,
	}
}

func storedU32(t *testing.T, rec Record) uint32 {
	t.Helper()
	require.NotNil(t, rec.Entry.Data.ContractData)
	require.NotNil(t, rec.Entry.Data.ContractData.Val.U32)
	return uint32(*rec.Entry.Data.ContractData.Val.U32)
}

func TestRecordStorePutGet(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	store := NewRecordStore(db)
	rec := dataRecord(1, "COUNTER", 7, LiveUntil(100))
	require.NoError(store.Put(rec))
	require.NoError(store.Commit())

	// a fresh store has a cold cache and decodes from the database
	reopened := NewRecordStore(db)
	got, err := reopened.Get(rec.Key)
	require.NoError(err)
	require.Equal(uint32(7), storedU32(t, got))
	require.Equal(LiveUntil(100), got.Lifetime)

	gotKey, err := got.Key.MarshalBinary()
	require.NoError(err)
	wantKey, err := rec.Key.MarshalBinary()
	require.NoError(err)
	require.Equal(wantKey, gotKey)
}

func TestRecordStoreMissing(t *testing.T) {
	require := require.New(t)

	store := NewRecordStore(memdb.New())
	_, err := store.Get(ContractCodeKey(xdr.Hash{9}))
	require.ErrorIs(err, database.ErrNotFound)

	has, err := store.Has(ContractCodeKey(xdr.Hash{9}))
	require.NoError(err)
	require.False(has)
}

func TestRecordStorePutOverwrites(t *testing.T) {
	require := require.New(t)

	store := NewRecordStore(memdb.New())
	require.NoError(store.Put(dataRecord(1, "COUNTER", 1, Permanent())))
	require.NoError(store.Put(dataRecord(1, "COUNTER", 2, Permanent())))

	got, err := store.Get(dataRecord(1, "COUNTER", 0, Permanent()).Key)
	require.NoError(err)
	require.Equal(uint32(2), storedU32(t, got))

	records, err := store.Records()
	require.NoError(err)
	require.Len(records, 1)
}

func TestRecordStorePutIfAbsent(t *testing.T) {
	require := require.New(t)

	store := NewRecordStore(memdb.New())
	inserted, err := store.PutIfAbsent(dataRecord(1, "COUNTER", 1, Permanent()))
	require.NoError(err)
	require.True(inserted)

	inserted, err = store.PutIfAbsent(dataRecord(1, "COUNTER", 2, Permanent()))
	require.NoError(err)
	require.False(inserted)

	got, err := store.Get(dataRecord(1, "COUNTER", 0, Permanent()).Key)
	require.NoError(err)
	require.Equal(uint32(1), storedU32(t, got))
}

func TestRecordStoreRecordsKeyOrder(t *testing.T) {
	require := require.New(t)

	store := NewRecordStore(memdb.New())
	inputs := []Record{
		dataRecord(3, "C", 3, Permanent()),
		ContractCodeRecord(xdr.Hash{5}, []byte{0, 'a', 's', 'm', 1}, MaxLifetime),
		dataRecord(1, "A", 1, Permanent()),
		AccountRecord(ids.ID{2}, 10, xdr.Thresholds{1, 0, 0, 0}),
	}
	for _, rec := range inputs {
		require.NoError(store.Put(rec))
	}

	records, err := store.Records()
	require.NoError(err)
	require.Len(records, len(inputs))

	keys := make([][]byte, 0, len(records))
	for _, rec := range records {
		b, err := rec.Key.MarshalBinary()
		require.NoError(err)
		keys = append(keys, b)
	}
	require.True(sort.SliceIsSorted(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	}))
}

func TestRecordStoreAbort(t *testing.T) {
	require := require.New(t)

	store := NewRecordStore(memdb.New())
	committed := dataRecord(1, "A", 1, Permanent())
	require.NoError(store.Put(committed))
	require.NoError(store.Commit())

	pending := dataRecord(2, "B", 2, Permanent())
	require.NoError(store.Put(pending))
	store.Abort()

	_, err := store.Get(pending.Key)
	require.ErrorIs(err, database.ErrNotFound)
	_, err = store.Get(committed.Key)
	require.NoError(err)
}
