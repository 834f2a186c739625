// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package invoke

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/cache/metercacher"
	"github.com/ava-labs/avalanchego/ids"
	log "github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stellar/go/xdr"
	"github.com/tetratelabs/wazero"

	"github.com/ava-labs/snapshotvm/ledger"
)

const (
	// SpecSectionName is the WASM custom section holding the contract's
	// interface as a stream of XDR ScSpecEntry values.
	SpecSectionName = "contractspecv0"

	DefaultSpecCacheSize = 256
)

// ContractSpec is the interface a contract declares.
type ContractSpec struct {
	Entries []xdr.ScSpecEntry
}

// ErrorCase looks up the documented contract error with [code].
func (s *ContractSpec) ErrorCase(code uint32) (name, doc string, ok bool) {
	for _, entry := range s.Entries {
		if entry.Kind != xdr.ScSpecEntryKindScSpecEntryUdtErrorEnumV0 || entry.UdtErrorEnumV0 == nil {
			continue
		}
		for _, c := range entry.UdtErrorEnumV0.Cases {
			if uint32(c.Value) == code {
				return c.Name, c.Doc, true
			}
		}
	}
	return "", "", false
}

// Functions returns the names of the declared functions.
func (s *ContractSpec) Functions() []string {
	var names []string
	for _, entry := range s.Entries {
		if entry.Kind == xdr.ScSpecEntryKindScSpecEntryFunctionV0 && entry.FunctionV0 != nil {
			names = append(names, string(entry.FunctionV0.Name))
		}
	}
	return names
}

// HasFunction reports whether [name] is declared. A spec that declares no
// functions accepts any name.
func (s *ContractSpec) HasFunction(name string) bool {
	names := s.Functions()
	if len(names) == 0 {
		return true
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// ParseSpec reads the contract interface from [code]. It returns nil when
// the module carries no interface section.
func ParseSpec(ctx context.Context, code []byte) (*ContractSpec, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter().WithCustomSections(true))
	defer runtime.Close(ctx)

	compiled, err := runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}
	defer compiled.Close(ctx)

	var (
		section []byte
		found   bool
	)
	for _, s := range compiled.CustomSections() {
		if s.Name() == SpecSectionName {
			section = append(section, s.Data()...)
			found = true
		}
	}
	if !found {
		return nil, nil
	}

	spec := &ContractSpec{}
	r := bytes.NewReader(section)
	for r.Len() > 0 {
		var entry xdr.ScSpecEntry
		if _, err := xdr.Unmarshal(r, &entry); err != nil {
			return nil, fmt.Errorf("failed to decode spec entry %d: %w", len(spec.Entries), err)
		}
		spec.Entries = append(spec.Entries, entry)
	}
	return spec, nil
}

// SpecResolver finds the interface of the contract deployed at an address
// and caches parsed interfaces by bytecode hash.
type SpecResolver struct {
	specCache cache.Cacher
}

// NewSpecResolver meters its cache on [registerer] when one is given.
func NewSpecResolver(size int, registerer prometheus.Registerer) (*SpecResolver, error) {
	var c cache.Cacher = &cache.LRU{Size: size}
	if registerer != nil {
		metered, err := metercacher.New("spec_cache", registerer, c)
		if err != nil {
			return nil, err
		}
		c = metered
	}
	return &SpecResolver{specCache: c}, nil
}

// Resolve returns the interface of the contract at [contractID], or nil when
// it cannot be determined. Resolution failures are logged, never returned.
func (r *SpecResolver) Resolve(ctx context.Context, src ledger.Source, contractID xdr.Hash) *ContractSpec {
	if r == nil {
		return nil
	}
	instance, ok, err := src.Lookup(ledger.ContractInstanceKey(contractID))
	if err != nil || !ok {
		return nil
	}
	hash, ok := instance.WasmHash()
	if !ok {
		// built-in executable
		return nil
	}
	if spec, ok := r.specCache.Get(ids.ID(hash)); ok {
		return spec.(*ContractSpec)
	}

	code, ok, err := src.Lookup(ledger.ContractCodeKey(hash))
	if err != nil || !ok || code.Entry.Data.ContractCode == nil {
		return nil
	}
	spec, err := ParseSpec(ctx, code.Entry.Data.ContractCode.Code)
	if err != nil {
		log.Debug("unreadable contract spec", "hash", ids.ID(hash).Hex(), "error", err)
		return nil
	}
	r.specCache.Put(ids.ID(hash), spec)
	return spec
}
