// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcengine

import (
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/ledger"
)

// All XDR values travel as base64 strings.

type Budget struct {
	CPUInstructions json.Uint64 `json:"cpuInsns"`
	MemoryBytes     json.Uint64 `json:"memBytes"`
}

// InvokeArgs are the arguments to engine.invoke
type InvokeArgs struct {
	Function      string                  `json:"function"`
	Source        string                  `json:"source"`
	Ledger        ledger.Info             `json:"ledger"`
	Entries       []ledger.WireRecord     `json:"ledger_entries"`
	Budget        Budget                  `json:"budget"`
	RecordAuth    bool                    `json:"record_auth"`
	NetworkConfig *invoke.NetworkConfig   `json:"network_config,omitempty"`
	Adjustment    invoke.AdjustmentConfig `json:"adjustment_config"`
}

type Auth struct {
	// Address is empty for source-account credentials.
	Address    string `json:"address,omitempty"`
	Nonce      *int64 `json:"nonce,omitempty"`
	Invocation string `json:"invocation"`
}

type Error struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// InvokeReply is the reply of engine.invoke. A failure inside the engine is
// reported in Error, with the cost and events collected up to it.
type InvokeReply struct {
	Result          string      `json:"result,omitempty"`
	CPUInstructions json.Uint64 `json:"cpuInsns"`
	MemoryBytes     json.Uint64 `json:"memBytes"`
	Events          []string    `json:"events,omitempty"`
	Auth            []Auth      `json:"auth,omitempty"`
	TransactionData string      `json:"transactionData,omitempty"`
	Error           *Error      `json:"error,omitempty"`
}

func encodeRequest(req *invoke.HostRequest) (*InvokeArgs, error) {
	function, err := xdr.MarshalBase64(req.Function)
	if err != nil {
		return nil, err
	}
	source, err := xdr.MarshalBase64(req.Source)
	if err != nil {
		return nil, err
	}
	records, err := req.Snapshot.Records()
	if err != nil {
		return nil, err
	}
	entries, err := ledger.EncodeRecords(records)
	if err != nil {
		return nil, err
	}
	return &InvokeArgs{
		Function: function,
		Source:   source,
		Ledger:   req.Ledger,
		Entries:  entries,
		Budget: Budget{
			CPUInstructions: json.Uint64(req.Budget.CPUInstructions),
			MemoryBytes:     json.Uint64(req.Budget.MemoryBytes),
		},
		RecordAuth:    req.RecordAuth,
		NetworkConfig: req.NetworkConfig,
		Adjustment:    req.Adjustment,
	}, nil
}

func decodeRequest(args *InvokeArgs) (*invoke.HostRequest, error) {
	req := &invoke.HostRequest{
		Ledger: args.Ledger,
		Budget: invoke.Budget{
			CPUInstructions: uint64(args.Budget.CPUInstructions),
			MemoryBytes:     uint64(args.Budget.MemoryBytes),
		},
		RecordAuth:    args.RecordAuth,
		NetworkConfig: args.NetworkConfig,
		Adjustment:    args.Adjustment,
	}
	if err := xdr.SafeUnmarshalBase64(args.Function, &req.Function); err != nil {
		return nil, err
	}
	if err := xdr.SafeUnmarshalBase64(args.Source, &req.Source); err != nil {
		return nil, err
	}
	records, err := ledger.DecodeRecords(args.Entries)
	if err != nil {
		return nil, err
	}
	snap, err := ledger.FromRecords(args.Ledger, records)
	if err != nil {
		return nil, err
	}
	req.Snapshot = snap
	return req, nil
}

func encodeEvents(events []xdr.DiagnosticEvent) ([]string, error) {
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

func decodeEvents(events []string) ([]xdr.DiagnosticEvent, error) {
	out := make([]xdr.DiagnosticEvent, 0, len(events))
	for _, s := range events {
		var event xdr.DiagnosticEvent
		if err := xdr.SafeUnmarshalBase64(s, &event); err != nil {
			return nil, err
		}
		out = append(out, event)
	}
	return out, nil
}

func encodeResult(res *invoke.HostResult, reply *InvokeReply) error {
	result, err := xdr.MarshalBase64(res.ReturnValue)
	if err != nil {
		return err
	}
	events, err := encodeEvents(res.Events)
	if err != nil {
		return err
	}
	reply.Result = result
	reply.CPUInstructions = json.Uint64(res.CPUInstructions)
	reply.MemoryBytes = json.Uint64(res.MemoryBytes)
	reply.Events = events

	for _, auth := range res.Auth {
		invocation, err := xdr.MarshalBase64(auth.Invocation)
		if err != nil {
			return err
		}
		wire := Auth{Nonce: auth.Nonce, Invocation: invocation}
		if auth.Address != nil {
			if wire.Address, err = xdr.MarshalBase64(*auth.Address); err != nil {
				return err
			}
		}
		reply.Auth = append(reply.Auth, wire)
	}
	if res.TransactionData != nil {
		if reply.TransactionData, err = xdr.MarshalBase64(*res.TransactionData); err != nil {
			return err
		}
	}
	return nil
}

func decodeResult(reply *InvokeReply) (*invoke.HostResult, error) {
	events, err := decodeEvents(reply.Events)
	if err != nil {
		return nil, err
	}
	res := &invoke.HostResult{
		CPUInstructions: uint64(reply.CPUInstructions),
		MemoryBytes:     uint64(reply.MemoryBytes),
		Events:          events,
	}
	if err := xdr.SafeUnmarshalBase64(reply.Result, &res.ReturnValue); err != nil {
		return nil, err
	}
	for _, wire := range reply.Auth {
		auth := invoke.RecordedAuth{Nonce: wire.Nonce}
		if err := xdr.SafeUnmarshalBase64(wire.Invocation, &auth.Invocation); err != nil {
			return nil, err
		}
		if wire.Address != "" {
			auth.Address = new(xdr.ScAddress)
			if err := xdr.SafeUnmarshalBase64(wire.Address, auth.Address); err != nil {
				return nil, err
			}
		}
		res.Auth = append(res.Auth, auth)
	}
	if reply.TransactionData != "" {
		res.TransactionData = new(xdr.SorobanTransactionData)
		if err := xdr.SafeUnmarshalBase64(reply.TransactionData, res.TransactionData); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func encodeHostError(hostErr *invoke.HostError, reply *InvokeReply) error {
	status, err := xdr.MarshalBase64(hostErr.Status)
	if err != nil {
		return err
	}
	events, err := encodeEvents(hostErr.Events)
	if err != nil {
		return err
	}
	reply.CPUInstructions = json.Uint64(hostErr.CPUInstructions)
	reply.MemoryBytes = json.Uint64(hostErr.MemoryBytes)
	reply.Events = events
	reply.Error = &Error{Status: status, Message: hostErr.Message}
	return nil
}

func decodeHostError(reply *InvokeReply) (*invoke.HostError, error) {
	events, err := decodeEvents(reply.Events)
	if err != nil {
		return nil, err
	}
	hostErr := &invoke.HostError{
		Message:         reply.Error.Message,
		Events:          events,
		CPUInstructions: uint64(reply.CPUInstructions),
		MemoryBytes:     uint64(reply.MemoryBytes),
	}
	if err := xdr.SafeUnmarshalBase64(reply.Error.Status, &hostErr.Status); err != nil {
		return nil, err
	}
	return hostErr, nil
}
