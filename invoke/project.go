// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"errors"
	"fmt"

	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/vmerr"
)

// ErrInconsistentAuth is returned for a recorded authorization that has an
// address without a nonce or a nonce without an address.
var ErrInconsistentAuth = errors.New("recorded authorization has address and nonce out of step")

// Result is the outcome of a successful invocation.
type Result struct {
	ReturnValue     xdr.ScVal
	CPUInstructions uint64
	MemoryBytes     uint64
	Events          []xdr.DiagnosticEvent
	Auth            []xdr.SorobanAuthorizationEntry
	// TransactionData is the padded resource estimate of a simulation.
	TransactionData *xdr.SorobanTransactionData
}

// Project converts an engine result into a Result.
func Project(hr *HostResult) (*Result, error) {
	auth := make([]xdr.SorobanAuthorizationEntry, 0, len(hr.Auth))
	for i, recorded := range hr.Auth {
		entry, err := authEntry(recorded)
		if err != nil {
			return nil, vmerr.Internalf("authorization %d: %w", i, err)
		}
		auth = append(auth, entry)
	}
	return &Result{
		ReturnValue:     hr.ReturnValue,
		CPUInstructions: hr.CPUInstructions,
		MemoryBytes:     hr.MemoryBytes,
		Events:          hr.Events,
		Auth:            auth,
		TransactionData: hr.TransactionData,
	}, nil
}

func authEntry(recorded RecordedAuth) (xdr.SorobanAuthorizationEntry, error) {
	switch {
	case recorded.Address != nil && recorded.Nonce != nil:
		return xdr.SorobanAuthorizationEntry{
			Credentials: xdr.SorobanCredentials{
				Type: xdr.SorobanCredentialsTypeSorobanCredentialsAddress,
				Address: &xdr.SorobanAddressCredentials{
					Address:                   *recorded.Address,
					Nonce:                     xdr.Int64(*recorded.Nonce),
					SignatureExpirationLedger: 0,
					Signature:                 xdr.ScVal{Type: xdr.ScValTypeScvVoid},
				},
			},
			RootInvocation: recorded.Invocation,
		}, nil
	case recorded.Address == nil && recorded.Nonce == nil:
		return xdr.SorobanAuthorizationEntry{
			Credentials: xdr.SorobanCredentials{
				Type: xdr.SorobanCredentialsTypeSorobanCredentialsSourceAccount,
			},
			RootInvocation: recorded.Invocation,
		}, nil
	default:
		return xdr.SorobanAuthorizationEntry{}, fmt.Errorf("%w: address set %t, nonce set %t",
			ErrInconsistentAuth, recorded.Address != nil, recorded.Nonce != nil)
	}
}
