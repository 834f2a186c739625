// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"math"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/ledger"
)

// DefaultAccountBalance is the balance, in stroops, of a synthesized source
// account.
const DefaultAccountBalance = 100_000_000_000

var defaultThresholds = xdr.Thresholds{1, 0, 0, 0}

// Deploy writes [code] and a contract instance running it at [contractID]
// and returns the bytecode hash.
func Deploy(snap *ledger.Snapshot, contractID xdr.Hash, code []byte) (xdr.Hash, error) {
	hash := xdr.Hash(hashing.ComputeHash256Array(code))
	info := snap.Info()
	lifetime := ledger.LiveUntil(addTTL(info.SequenceNumber, info.MaxEntryTTL))

	if err := snap.Put(ledger.ContractCodeRecord(hash, code, lifetime)); err != nil {
		return xdr.Hash{}, err
	}
	if err := snap.Put(ledger.ContractInstanceRecord(contractID, hash, lifetime)); err != nil {
		return xdr.Hash{}, err
	}
	return hash, nil
}

// EnsureAccount adds a funded account for [pub] unless one exists and
// reports whether it did.
func EnsureAccount(snap *ledger.Snapshot, pub ids.ID) (bool, error) {
	_, ok, err := snap.Lookup(ledger.AccountKey(pub))
	if err != nil || ok {
		return false, err
	}
	return true, snap.Put(ledger.AccountRecord(pub, DefaultAccountBalance, defaultThresholds))
}

func addTTL(seq, ttl uint32) uint32 {
	if seq > math.MaxUint32-ttl {
		return math.MaxUint32
	}
	return seq + ttl
}
