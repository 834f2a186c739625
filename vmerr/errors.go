// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vmerr defines the failure kinds the snapshot pipeline reports.
//
// Every error that crosses a component boundary is an [*Error] carrying one
// [Kind]. Callers branch on the kind with [KindOf] or with errors.Is against
// the kind sentinels ([ErrValidation], [ErrModuleNotFound], ...).
package vmerr

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// Kind classifies a pipeline failure.
type Kind uint8

const (
	Unknown Kind = iota
	// Validation means the caller sent a malformed request.
	Validation
	// ModuleNotFound means a referenced WASM module was never uploaded.
	ModuleNotFound
	// StoreUnavailable means the module store could not be queried.
	StoreUnavailable
	// SnapshotInvalid means the ledger snapshot could not be assembled.
	SnapshotInvalid
	// BudgetExceeded means the call ran past its cpu or memory ceiling.
	BudgetExceeded
	// Contract means the contract raised a documented error.
	Contract
	// Host is an opaque failure reported by the execution engine.
	Host
	// Internal is an inconsistency between collaborators.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation error"
	case ModuleNotFound:
		return "module not found"
	case StoreUnavailable:
		return "module store unavailable"
	case SnapshotInvalid:
		return "invalid snapshot"
	case BudgetExceeded:
		return "budget exceeded"
	case Contract:
		return "contract error"
	case Host:
		return "host error"
	case Internal:
		return "internal error"
	default:
		return "unknown error"
	}
}

var (
	ErrValidation       = &Error{Kind: Validation}
	ErrModuleNotFound   = &Error{Kind: ModuleNotFound}
	ErrStoreUnavailable = &Error{Kind: StoreUnavailable}
	ErrSnapshotInvalid  = &Error{Kind: SnapshotInvalid}
	ErrBudgetExceeded   = &Error{Kind: BudgetExceeded}
	ErrContract         = &Error{Kind: Contract}
	ErrHost             = &Error{Kind: Host}
	ErrInternal         = &Error{Kind: Internal}
)

// Error is a pipeline failure tagged with its Kind.
type Error struct {
	Kind Kind

	// Hash is the missing module for ModuleNotFound.
	Hash ids.ID

	// Code, Name and Doc describe the contract error for Contract.
	Code uint32
	Name string
	Doc  string

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ModuleNotFound:
		return fmt.Sprintf("%s: wasm %s was not uploaded", e.Kind, e.Hash.Hex())
	case Contract:
		if e.Doc != "" {
			return fmt.Sprintf("%s: %s (#%d): %s", e.Kind, e.Name, e.Code, e.Doc)
		}
		return fmt.Sprintf("%s: %s (#%d)", e.Kind, e.Name, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var vmErr *Error
	if errors.As(err, &vmErr) {
		return vmErr.Kind
	}
	return Unknown
}

func Validationf(format string, args ...interface{}) error {
	return &Error{Kind: Validation, Err: fmt.Errorf(format, args...)}
}

func NotFound(hash ids.ID) error {
	return &Error{Kind: ModuleNotFound, Hash: hash}
}

func Unavailable(err error) error {
	return &Error{Kind: StoreUnavailable, Err: err}
}

func InvalidSnapshot(err error) error {
	return &Error{Kind: SnapshotInvalid, Err: err}
}

func Budget(err error) error {
	return &Error{Kind: BudgetExceeded, Err: err}
}

func ContractFailure(code uint32, name, doc string, err error) error {
	return &Error{Kind: Contract, Code: code, Name: name, Doc: doc, Err: err}
}

func HostFailure(err error) error {
	return &Error{Kind: Host, Err: err}
}

func Internalf(format string, args ...interface{}) error {
	return &Error{Kind: Internal, Err: fmt.Errorf(format, args...)}
}
