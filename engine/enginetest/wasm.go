// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package enginetest

import (
	"bytes"

	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/invoke"
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Wasm returns an empty module with [tag] in a custom section, so that
// different tags give different bytecode hashes.
func Wasm(tag string) []byte {
	return append(append([]byte{}, wasmHeader...), customSection("tag", []byte(tag))...)
}

// WasmWithSpec returns an empty module declaring [entries] as its
// interface.
func WasmWithSpec(entries ...xdr.ScSpecEntry) ([]byte, error) {
	var data bytes.Buffer
	for _, entry := range entries {
		if _, err := xdr.Marshal(&data, entry); err != nil {
			return nil, err
		}
	}
	return append(append([]byte{}, wasmHeader...), customSection(invoke.SpecSectionName, data.Bytes())...), nil
}

func FunctionSpec(name string) xdr.ScSpecEntry {
	return xdr.ScSpecEntry{
		Kind: xdr.ScSpecEntryKindScSpecEntryFunctionV0,
		FunctionV0: &xdr.ScSpecFunctionV0{
			Name:    xdr.ScSymbol(name),
			Inputs:  []xdr.ScSpecFunctionInputV0{},
			Outputs: []xdr.ScSpecTypeDef{},
		},
	}
}

// ErrorCase is one documented contract error.
type ErrorCase struct {
	Name  string
	Doc   string
	Value uint32
}

func ErrorEnumSpec(name string, cases ...ErrorCase) xdr.ScSpecEntry {
	specCases := make([]xdr.ScSpecUdtErrorEnumCaseV0, 0, len(cases))
	for _, c := range cases {
		specCases = append(specCases, xdr.ScSpecUdtErrorEnumCaseV0{
			Doc:   c.Doc,
			Name:  c.Name,
			Value: xdr.Uint32(c.Value),
		})
	}
	return xdr.ScSpecEntry{
		Kind: xdr.ScSpecEntryKindScSpecEntryUdtErrorEnumV0,
		UdtErrorEnumV0: &xdr.ScSpecUdtErrorEnumV0{
			Name:  name,
			Cases: specCases,
		},
	}
}

func customSection(name string, data []byte) []byte {
	payload := append(uleb128(uint32(len(name))), name...)
	payload = append(payload, data...)
	section := append([]byte{0x00}, uleb128(uint32(len(payload)))...)
	return append(section, payload...)
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}
