// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"context"
	"fmt"

	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/ledger"
)

// Host is the contract execution engine. It runs one host function against
// a frozen snapshot and reports what the run consumed and produced.
//
// When RecordAuth is set the engine records the authorizations the call
// would require instead of enforcing them, and returns an unpadded
// resource estimate in TransactionData.
type Host interface {
	Invoke(ctx context.Context, req *HostRequest) (*HostResult, error)
}

type HostRequest struct {
	Function      xdr.HostFunction
	Source        xdr.AccountId
	Ledger        ledger.Info
	Snapshot      ledger.Source
	Budget        Budget
	RecordAuth    bool
	NetworkConfig *NetworkConfig
	Adjustment    AdjustmentConfig
}

// RecordedAuth is an authorization the engine recorded. Address and Nonce
// are both set for address credentials and both nil for the source account.
type RecordedAuth struct {
	Address    *xdr.ScAddress
	Nonce      *int64
	Invocation xdr.SorobanAuthorizedInvocation
}

type HostResult struct {
	ReturnValue     xdr.ScVal
	CPUInstructions uint64
	MemoryBytes     uint64
	Events          []xdr.DiagnosticEvent
	Auth            []RecordedAuth
	TransactionData *xdr.SorobanTransactionData
}

// HostError is a failure raised inside the engine, with the consumption
// and diagnostics collected up to the failure.
type HostError struct {
	Status          xdr.ScError
	Message         string
	Events          []xdr.DiagnosticEvent
	CPUInstructions uint64
	MemoryBytes     uint64
}

func (e *HostError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Status.Type, e.Message)
	}
	return e.Status.Type.String()
}

// BudgetExceeded reports whether the engine ran out of budget.
func (e *HostError) BudgetExceeded() bool {
	return e.Status.Type == xdr.ScErrorTypeSceBudget &&
		e.Status.Code != nil &&
		*e.Status.Code == xdr.ScErrorCodeScecExceededLimit
}

// ContractCode returns the code of an error raised by the contract itself.
func (e *HostError) ContractCode() (uint32, bool) {
	if e.Status.Type != xdr.ScErrorTypeSceContract || e.Status.ContractCode == nil {
		return 0, false
	}
	return uint32(*e.Status.ContractCode), true
}

// NewContractError is a HostError for contract error [code].
func NewContractError(code uint32) *HostError {
	c := xdr.Uint32(code)
	return &HostError{Status: xdr.ScError{Type: xdr.ScErrorTypeSceContract, ContractCode: &c}}
}

// NewHostError is a HostError of [errType] with [code].
func NewHostError(errType xdr.ScErrorType, code xdr.ScErrorCode, message string) *HostError {
	return &HostError{
		Status:  xdr.ScError{Type: errType, Code: &code},
		Message: message,
	}
}
