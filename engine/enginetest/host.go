// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package enginetest provides an in-process invoke.Host whose contract
// functions are Go closures.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/ledger"
)

var _ invoke.Host = (*Host)(nil)

// Handler runs one contract function.
type Handler func(ctx context.Context, req *invoke.HostRequest) (*invoke.HostResult, error)

// Host dispatches calls to handlers by function name. The called contract
// must be deployed in the snapshot, with its bytecode present.
type Host struct {
	lock     sync.Mutex
	handlers map[string]Handler
	requests []*invoke.HostRequest
}

func New() *Host {
	return &Host{handlers: make(map[string]Handler)}
}

func (h *Host) Handle(function string, handler Handler) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.handlers[function] = handler
}

// Requests returns every request seen so far.
func (h *Host) Requests() []*invoke.HostRequest {
	h.lock.Lock()
	defer h.lock.Unlock()

	return append([]*invoke.HostRequest(nil), h.requests...)
}

func (h *Host) Invoke(ctx context.Context, req *invoke.HostRequest) (*invoke.HostResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.lock.Lock()
	h.requests = append(h.requests, req)
	args := req.Function.InvokeContract
	var handler Handler
	if args != nil {
		handler = h.handlers[string(args.FunctionName)]
	}
	h.lock.Unlock()

	if args == nil || args.ContractAddress.ContractId == nil {
		return nil, invoke.NewHostError(xdr.ScErrorTypeSceContext, xdr.ScErrorCodeScecInvalidInput, "not a contract invocation")
	}
	if err := checkDeployed(req.Snapshot, *args.ContractAddress.ContractId); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, invoke.NewHostError(xdr.ScErrorTypeSceWasmVm, xdr.ScErrorCodeScecMissingValue,
			fmt.Sprintf("trying to invoke non-existent contract function %s", args.FunctionName))
	}

	res, err := handler(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Budget.Exceeded(res.CPUInstructions, res.MemoryBytes) {
		hostErr := invoke.NewHostError(xdr.ScErrorTypeSceBudget, xdr.ScErrorCodeScecExceededLimit, "budget exceeded")
		hostErr.CPUInstructions = res.CPUInstructions
		hostErr.MemoryBytes = res.MemoryBytes
		return nil, hostErr
	}
	if !req.RecordAuth {
		res.Auth = nil
		res.TransactionData = nil
		return res, nil
	}
	if res.TransactionData == nil {
		res.TransactionData = estimate(req, res)
	}
	return res, nil
}

func checkDeployed(src ledger.Source, contractID xdr.Hash) error {
	instance, ok, err := src.Lookup(ledger.ContractInstanceKey(contractID))
	if err != nil {
		return err
	}
	if !ok {
		return invoke.NewHostError(xdr.ScErrorTypeSceStorage, xdr.ScErrorCodeScecMissingValue, "contract instance not found")
	}
	hash, ok := instance.WasmHash()
	if !ok {
		return nil
	}
	_, ok, err = src.Lookup(ledger.ContractCodeKey(hash))
	if err != nil {
		return err
	}
	if !ok {
		return invoke.NewHostError(xdr.ScErrorTypeSceStorage, xdr.ScErrorCodeScecMissingValue, "contract code not found")
	}
	return nil
}

// estimate reads the called contract's instance and code and charges the
// reported cpu.
func estimate(req *invoke.HostRequest, res *invoke.HostResult) *xdr.SorobanTransactionData {
	contractID := *req.Function.InvokeContract.ContractAddress.ContractId
	readOnly := []xdr.LedgerKey{ledger.ContractInstanceKey(contractID)}
	if instance, ok, _ := req.Snapshot.Lookup(readOnly[0]); ok {
		if hash, ok := instance.WasmHash(); ok {
			readOnly = append(readOnly, ledger.ContractCodeKey(hash))
		}
	}
	return &xdr.SorobanTransactionData{
		Resources: xdr.SorobanResources{
			Footprint: xdr.LedgerFootprint{
				ReadOnly:  readOnly,
				ReadWrite: []xdr.LedgerKey{},
			},
			Instructions: xdr.Uint32(res.CPUInstructions),
		},
	}
}
