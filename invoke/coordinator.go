// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package invoke runs a single contract call against a ledger snapshot,
// either for real or as a simulation that records authorizations and
// estimates resources.
package invoke

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

// Mode selects how a call is run.
type Mode uint8

const (
	// ModeExecute advances the ledger by one close and enforces auth.
	ModeExecute Mode = iota
	// ModeSimulate records auth and estimates resources.
	ModeSimulate
)

func (m Mode) String() string {
	switch m {
	case ModeExecute:
		return "execute"
	case ModeSimulate:
		return "simulate"
	default:
		return "unknown"
	}
}

const (
	DefaultMaxArgs = 64

	maxFunctionNameLen = 32
	ledgerCloseTime    = 5
)

type Config struct {
	MaxArgs       int
	DefaultBudget Budget
}

func DefaultConfig() Config {
	return Config{
		MaxArgs:       DefaultMaxArgs,
		DefaultBudget: DefaultBudget,
	}
}

// Call is one contract invocation.
type Call struct {
	Mode       Mode
	ContractID xdr.Hash
	Function   string
	Args       []xdr.ScVal
	// Source is the ed25519 key of the invoking account.
	Source ids.ID
	// Code, when set in execute mode, is deployed at ContractID first.
	Code []byte

	Budget        *Budget
	NetworkConfig *NetworkConfig
	Adjustment    *AdjustmentConfig
}

// Coordinator prepares a snapshot for a call, hands it to the engine and
// shapes the outcome.
type Coordinator struct {
	config Config
	host   Host
	specs  *SpecResolver
}

func NewCoordinator(config Config, host Host, specs *SpecResolver) *Coordinator {
	return &Coordinator{
		config: config,
		host:   host,
		specs:  specs,
	}
}

// Run invokes [call] against [snap]. The snapshot is frozen before the
// engine sees it.
func (c *Coordinator) Run(ctx context.Context, snap *ledger.Snapshot, call *Call) (*Result, error) {
	if err := c.validate(call); err != nil {
		return nil, err
	}

	if call.Mode == ModeExecute && len(call.Code) > 0 {
		hash, err := Deploy(snap, call.ContractID, call.Code)
		if err != nil {
			return nil, err
		}
		log.Debug("deployed contract",
			"contractID", ids.ID(call.ContractID).Hex(),
			"wasmHash", ids.ID(hash).Hex(),
		)
	}
	if _, err := EnsureAccount(snap, call.Source); err != nil {
		return nil, vmerr.InvalidSnapshot(fmt.Errorf("failed to ensure source account: %w", err))
	}
	if call.Mode == ModeExecute {
		if err := snap.Advance(1, ledgerCloseTime); err != nil {
			return nil, err
		}
	}

	spec := c.specs.Resolve(ctx, snap, call.ContractID)
	if spec != nil && !spec.HasFunction(call.Function) {
		return nil, vmerr.Validationf("function %s was not found in the contract", call.Function)
	}

	budget := c.config.DefaultBudget
	if call.Budget != nil {
		budget = *call.Budget
	}
	adjustment := DefaultAdjustmentConfig()
	if call.Adjustment != nil {
		adjustment = *call.Adjustment
	}

	if err := snap.Freeze(); err != nil {
		return nil, err
	}

	req := &HostRequest{
		Function:      hostFunction(call),
		Source:        ledger.AccountID(call.Source),
		Ledger:        snap.Info(),
		Snapshot:      snap,
		Budget:        budget,
		RecordAuth:    call.Mode == ModeSimulate,
		NetworkConfig: call.NetworkConfig,
		Adjustment:    adjustment,
	}
	hr, err := c.host.Invoke(ctx, req)
	if err != nil {
		return nil, classify(err, spec)
	}
	if budget.Exceeded(hr.CPUInstructions, hr.MemoryBytes) {
		return nil, vmerr.Budget(fmt.Errorf("consumed %d cpu instructions and %d memory bytes, limit is %d and %d",
			hr.CPUInstructions, hr.MemoryBytes, budget.CPUInstructions, budget.MemoryBytes))
	}

	res, err := Project(hr)
	if err != nil {
		return nil, err
	}
	if call.Mode == ModeSimulate && res.TransactionData != nil {
		res.TransactionData = pad(*res.TransactionData, adjustment)
	}

	log.Debug("invoked contract",
		"mode", call.Mode,
		"function", call.Function,
		"cpuInsns", res.CPUInstructions,
		"memBytes", res.MemoryBytes,
	)
	return res, nil
}

func (c *Coordinator) validate(call *Call) error {
	switch {
	case call.Function == "":
		return vmerr.Validationf("function name is required")
	case len(call.Function) > maxFunctionNameLen:
		return vmerr.Validationf("function name %s is too long", call.Function)
	case len(call.Args) > c.config.MaxArgs:
		return vmerr.Validationf("argument count (%d) surpasses maximum allowed count (%d)", len(call.Args), c.config.MaxArgs)
	}
	if call.Adjustment != nil {
		return call.Adjustment.Verify()
	}
	return nil
}

func hostFunction(call *Call) xdr.HostFunction {
	contractID := call.ContractID
	return xdr.HostFunction{
		Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
		InvokeContract: &xdr.InvokeContractArgs{
			ContractAddress: xdr.ScAddress{
				Type:       xdr.ScAddressTypeScAddressTypeContract,
				ContractId: &contractID,
			},
			FunctionName: xdr.ScSymbol(call.Function),
			Args:         call.Args,
		},
	}
}

// classify maps an engine failure onto the error taxonomy.
func classify(err error, spec *ContractSpec) error {
	var hostErr *HostError
	if !errors.As(err, &hostErr) {
		return vmerr.HostFailure(err)
	}
	if hostErr.BudgetExceeded() {
		return vmerr.Budget(hostErr)
	}
	if code, ok := hostErr.ContractCode(); ok && spec != nil {
		if name, doc, ok := spec.ErrorCase(code); ok {
			return vmerr.ContractFailure(code, name, doc, hostErr)
		}
	}
	return vmerr.HostFailure(hostErr)
}

func pad(data xdr.SorobanTransactionData, adjustment AdjustmentConfig) *xdr.SorobanTransactionData {
	res := &data.Resources
	res.Instructions = xdr.Uint32(adjustment.Instructions.apply32(uint32(res.Instructions)))
	res.ReadBytes = xdr.Uint32(adjustment.ReadBytes.apply32(uint32(res.ReadBytes)))
	res.WriteBytes = xdr.Uint32(adjustment.WriteBytes.apply32(uint32(res.WriteBytes)))
	return &data
}
