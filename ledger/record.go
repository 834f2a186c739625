// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stellar/go/xdr"
)

// Record is a ledger entry together with its key and lifetime.
type Record struct {
	Key      xdr.LedgerKey
	Entry    xdr.LedgerEntry
	Lifetime Lifetime
}

// NewRecord derives the key of [entry].
func NewRecord(entry xdr.LedgerEntry, lifetime Lifetime) (Record, error) {
	key, err := entry.LedgerKey()
	if err != nil {
		return Record{}, fmt.Errorf("failed to derive ledger key: %w", err)
	}
	return Record{Key: key, Entry: entry, Lifetime: lifetime}, nil
}

// CodeHash returns the hash of a contract-code record.
func (r Record) CodeHash() (xdr.Hash, bool) {
	if r.Key.Type != xdr.LedgerEntryTypeContractCode || r.Key.ContractCode == nil {
		return xdr.Hash{}, false
	}
	return r.Key.ContractCode.Hash, true
}

// WasmHash returns the bytecode hash referenced by a contract-instance
// record with a WASM executable.
func (r Record) WasmHash() (xdr.Hash, bool) {
	data := r.Entry.Data.ContractData
	if r.Entry.Data.Type != xdr.LedgerEntryTypeContractData || data == nil {
		return xdr.Hash{}, false
	}
	if data.Val.Type != xdr.ScValTypeScvContractInstance || data.Val.Instance == nil {
		return xdr.Hash{}, false
	}
	exec := data.Val.Instance.Executable
	if exec.Type != xdr.ContractExecutableTypeContractExecutableWasm || exec.WasmHash == nil {
		return xdr.Hash{}, false
	}
	return *exec.WasmHash, true
}

func contractAddress(contractID xdr.Hash) xdr.ScAddress {
	return xdr.ScAddress{
		Type:       xdr.ScAddressTypeScAddressTypeContract,
		ContractId: &contractID,
	}
}

// AccountID converts a raw ed25519 public key.
func AccountID(pub ids.ID) xdr.AccountId {
	key := xdr.Uint256(pub)
	return xdr.AccountId{
		Type:    xdr.PublicKeyTypePublicKeyTypeEd25519,
		Ed25519: &key,
	}
}

func ContractCodeKey(hash xdr.Hash) xdr.LedgerKey {
	return xdr.LedgerKey{
		Type:         xdr.LedgerEntryTypeContractCode,
		ContractCode: &xdr.LedgerKeyContractCode{Hash: hash},
	}
}

func ContractInstanceKey(contractID xdr.Hash) xdr.LedgerKey {
	return xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract:   contractAddress(contractID),
			Key:        xdr.ScVal{Type: xdr.ScValTypeScvLedgerKeyContractInstance},
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	}
}

func AccountKey(pub ids.ID) xdr.LedgerKey {
	return xdr.LedgerKey{
		Type:    xdr.LedgerEntryTypeAccount,
		Account: &xdr.LedgerKeyAccount{AccountId: AccountID(pub)},
	}
}

func ContractCodeRecord(hash xdr.Hash, code []byte, lifetime Lifetime) Record {
	return Record{
		Key: ContractCodeKey(hash),
		Entry: xdr.LedgerEntry{
			Data: xdr.LedgerEntryData{
				Type: xdr.LedgerEntryTypeContractCode,
				ContractCode: &xdr.ContractCodeEntry{
					Hash: hash,
					Code: code,
				},
			},
		},
		Lifetime: lifetime,
	}
}

// ContractInstanceRecord is a persistent instance of the bytecode [wasmHash]
// at [contractID] with empty instance storage.
func ContractInstanceRecord(contractID, wasmHash xdr.Hash, lifetime Lifetime) Record {
	key := ContractInstanceKey(contractID)
	return Record{
		Key: key,
		Entry: xdr.LedgerEntry{
			Data: xdr.LedgerEntryData{
				Type: xdr.LedgerEntryTypeContractData,
				ContractData: &xdr.ContractDataEntry{
					Contract:   key.ContractData.Contract,
					Key:        key.ContractData.Key,
					Durability: xdr.ContractDataDurabilityPersistent,
					Val: xdr.ScVal{
						Type: xdr.ScValTypeScvContractInstance,
						Instance: &xdr.ScContractInstance{
							Executable: xdr.ContractExecutable{
								Type:     xdr.ContractExecutableTypeContractExecutableWasm,
								WasmHash: &wasmHash,
							},
						},
					},
				},
			},
		},
		Lifetime: lifetime,
	}
}

func AccountRecord(pub ids.ID, balance int64, thresholds xdr.Thresholds) Record {
	return Record{
		Key: AccountKey(pub),
		Entry: xdr.LedgerEntry{
			Data: xdr.LedgerEntryData{
				Type: xdr.LedgerEntryTypeAccount,
				Account: &xdr.AccountEntry{
					AccountId:  AccountID(pub),
					Balance:    xdr.Int64(balance),
					SeqNum:     0,
					Thresholds: thresholds,
				},
			},
		},
		Lifetime: Permanent(),
	}
}
