// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshotvm

import (
	"encoding/hex"
	"strings"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/ledger"
	"github.com/ava-labs/snapshotvm/vmerr"
)

// Cost is the resource consumption of an invocation
type Cost struct {
	CPUInstructions json.Uint64 `json:"cpuInsns"`
	MemoryBytes     json.Uint64 `json:"memBytes"`
}

// InvokeArgs are the arguments to simulate and execute. Ledger entries,
// params and configs are base64 XDR; ids are hex.
type InvokeArgs struct {
	LedgerSequence   uint32                   `json:"ledger_sequence"`
	LedgerEntries    []ledger.WireRecord      `json:"ledger_entries"`
	ContractID       string                   `json:"contract_id"`
	Source           string                   `json:"source,omitempty"`
	Function         string                   `json:"fname"`
	Params           []string                 `json:"params"`
	Network          string                   `json:"network,omitempty"`
	NetworkConfig    *invoke.NetworkConfig    `json:"network_config,omitempty"`
	AdjustmentConfig *invoke.AdjustmentConfig `json:"adjustment_config,omitempty"`
	Budget           *Cost                    `json:"budget,omitempty"`
}

type Results struct {
	XDR  string   `json:"xdr"`
	Auth []string `json:"auth"`
}

type RestorePreamble struct {
	MinResourceFee  json.Uint64 `json:"min_resource_fee"`
	TransactionData string      `json:"transaction_data"`
}

// InvokeReply is the reply of simulate and execute. It is also the data of
// an engine failure.
type InvokeReply struct {
	Cost            Cost             `json:"cost"`
	Results         *Results         `json:"results,omitempty"`
	TransactionData string           `json:"transactionData,omitempty"`
	RestorePreamble *RestorePreamble `json:"restorePreamble,omitempty"`
	Events          []string         `json:"events,omitempty"`
	Error           string           `json:"error,omitempty"`
}

// ParseHash parses 32 hex-encoded bytes, with or without a 0x prefix.
func ParseHash(s string) (ids.ID, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return ids.Empty, vmerr.Validationf("invalid hex %q: %w", s, err)
	}
	id, err := ids.ToID(b)
	if err != nil {
		return ids.Empty, vmerr.Validationf("invalid id %q: %w", s, err)
	}
	return id, nil
}

func parseCode(s string) ([]byte, error) {
	code, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, vmerr.Validationf("invalid hex bytecode: %w", err)
	}
	return code, nil
}

func decodeParams(params []string) ([]xdr.ScVal, error) {
	args := make([]xdr.ScVal, 0, len(params))
	for i, p := range params {
		var val xdr.ScVal
		if err := xdr.SafeUnmarshalBase64(p, &val); err != nil {
			return nil, vmerr.Validationf("param %d is not a valid ScVal: %w", i, err)
		}
		args = append(args, val)
	}
	return args, nil
}

func (args *InvokeArgs) request() (*InvokeRequest, error) {
	records, err := ledger.DecodeRecords(args.LedgerEntries)
	if err != nil {
		return nil, err
	}
	contractID, err := ParseHash(args.ContractID)
	if err != nil {
		return nil, err
	}
	source := ids.Empty
	if args.Source != "" {
		if source, err = ParseHash(args.Source); err != nil {
			return nil, err
		}
	}
	params, err := decodeParams(args.Params)
	if err != nil {
		return nil, err
	}

	req := &InvokeRequest{
		LedgerSequence: args.LedgerSequence,
		Records:        records,
		ContractID:     xdr.Hash(contractID),
		Source:         source,
		Function:       args.Function,
		Args:           params,
		Passphrase:     args.Network,
		NetworkConfig:  args.NetworkConfig,
		Adjustment:     args.AdjustmentConfig,
	}
	if args.Budget != nil {
		req.Budget = &invoke.Budget{
			CPUInstructions: uint64(args.Budget.CPUInstructions),
			MemoryBytes:     uint64(args.Budget.MemoryBytes),
		}
	}
	return req, nil
}

func encodeEvents(events []xdr.DiagnosticEvent) ([]string, error) {
	if len(events) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(events))
	for _, event := range events {
		s, err := xdr.MarshalBase64(event)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (reply *InvokeReply) setOutcome(outcome *Outcome) error {
	if p := outcome.RestorePreamble; p != nil {
		data, err := xdr.MarshalBase64(p.TransactionData())
		if err != nil {
			return err
		}
		reply.RestorePreamble = &RestorePreamble{
			MinResourceFee:  json.Uint64(p.MinResourceFee),
			TransactionData: data,
		}
		return nil
	}
	return reply.setResult(outcome.Result)
}

func (reply *InvokeReply) setResult(res *invoke.Result) error {
	result, err := xdr.MarshalBase64(res.ReturnValue)
	if err != nil {
		return err
	}
	auth := make([]string, 0, len(res.Auth))
	for _, entry := range res.Auth {
		s, err := xdr.MarshalBase64(entry)
		if err != nil {
			return err
		}
		auth = append(auth, s)
	}
	events, err := encodeEvents(res.Events)
	if err != nil {
		return err
	}

	reply.Cost = Cost{
		CPUInstructions: json.Uint64(res.CPUInstructions),
		MemoryBytes:     json.Uint64(res.MemoryBytes),
	}
	reply.Results = &Results{XDR: result, Auth: auth}
	reply.Events = events
	if res.TransactionData != nil {
		if reply.TransactionData, err = xdr.MarshalBase64(*res.TransactionData); err != nil {
			return err
		}
	}
	return nil
}
