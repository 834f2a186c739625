// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package enginetest

import (
	"context"

	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/ledger"
)

// Return answers every call with [val].
func Return(val xdr.ScVal, cpu, mem uint64) Handler {
	return func(context.Context, *invoke.HostRequest) (*invoke.HostResult, error) {
		return &invoke.HostResult{ReturnValue: val, CPUInstructions: cpu, MemoryBytes: mem}, nil
	}
}

// Echo returns the first argument, or void when there is none.
func Echo(cpu, mem uint64) Handler {
	return func(_ context.Context, req *invoke.HostRequest) (*invoke.HostResult, error) {
		val := Void()
		if args := req.Function.InvokeContract.Args; len(args) > 0 {
			val = args[0]
		}
		return &invoke.HostResult{ReturnValue: val, CPUInstructions: cpu, MemoryBytes: mem}, nil
	}
}

// Fail raises contract error [code].
func Fail(code uint32) Handler {
	return func(context.Context, *invoke.HostRequest) (*invoke.HostResult, error) {
		return nil, invoke.NewContractError(code)
	}
}

// RequireAuth asks for the authorization of [address], or of the source
// account when [address] is nil.
func RequireAuth(address *xdr.ScAddress, nonce *int64) Handler {
	return func(_ context.Context, req *invoke.HostRequest) (*invoke.HostResult, error) {
		args := *req.Function.InvokeContract
		return &invoke.HostResult{
			ReturnValue:     Void(),
			CPUInstructions: 1000,
			MemoryBytes:     1000,
			Auth: []invoke.RecordedAuth{{
				Address: address,
				Nonce:   nonce,
				Invocation: xdr.SorobanAuthorizedInvocation{
					Function: xdr.SorobanAuthorizedFunction{
						Type:       xdr.SorobanAuthorizedFunctionTypeSorobanAuthorizedFunctionTypeContractFn,
						ContractFn: &args,
					},
				},
			}},
		}, nil
	}
}

// ReadU32 returns the persistent u32 the called contract stores under
// symbol [key], or void when absent.
func ReadU32(key string) Handler {
	return func(_ context.Context, req *invoke.HostRequest) (*invoke.HostResult, error) {
		rec, ok, err := req.Snapshot.Lookup(DataKey(*req.Function.InvokeContract.ContractAddress.ContractId, key))
		if err != nil {
			return nil, err
		}
		val := Void()
		if ok && rec.Entry.Data.ContractData != nil {
			val = rec.Entry.Data.ContractData.Val
		}
		return &invoke.HostResult{ReturnValue: val, CPUInstructions: 2000, MemoryBytes: 512}, nil
	}
}

func Void() xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvVoid}
}

func U32(v uint32) xdr.ScVal {
	u := xdr.Uint32(v)
	return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u}
}

func Symbol(s string) xdr.ScVal {
	sym := xdr.ScSymbol(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}
}

// DataKey is the persistent contract-data key [key] of [contractID].
func DataKey(contractID xdr.Hash, key string) xdr.LedgerKey {
	return xdr.LedgerKey{
		Type: xdr.LedgerEntryTypeContractData,
		ContractData: &xdr.LedgerKeyContractData{
			Contract: xdr.ScAddress{
				Type:       xdr.ScAddressTypeScAddressTypeContract,
				ContractId: &contractID,
			},
			Key:        Symbol(key),
			Durability: xdr.ContractDataDurabilityPersistent,
		},
	}
}

// DataRecord stores u32 [val] under symbol [key] of [contractID].
func DataRecord(contractID xdr.Hash, key string, val uint32, lifetime ledger.Lifetime) ledger.Record {
	k := DataKey(contractID, key)
	return ledger.Record{
		Key: k,
		Entry: xdr.LedgerEntry{
			Data: xdr.LedgerEntryData{
				Type: xdr.LedgerEntryTypeContractData,
				ContractData: &xdr.ContractDataEntry{
					Contract:   k.ContractData.Contract,
					Key:        k.ContractData.Key,
					Durability: xdr.ContractDataDurabilityPersistent,
					Val:        U32(val),
				},
			},
		},
		Lifetime: lifetime,
	}
}
