// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshotvm

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/json"
	"github.com/google/uuid"
	"github.com/gorilla/rpc/v2/json2"
	log "github.com/inconshreveable/log15"
	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/vmerr"
)

// JSON-RPC error codes, one per failure kind.
const (
	CodeValidation       json2.ErrorCode = -32602
	CodeModuleNotFound   json2.ErrorCode = -32001
	CodeStoreUnavailable json2.ErrorCode = -32002
	CodeSnapshotInvalid  json2.ErrorCode = -32003
	CodeBudgetExceeded   json2.ErrorCode = -32004
	CodeContract         json2.ErrorCode = -32005
	CodeHost             json2.ErrorCode = -32006
	CodeInternal         json2.ErrorCode = -32603
)

// Service is the API service for this VM
type Service struct{ pipeline *Pipeline }

func NewService(pipeline *Pipeline) *Service {
	return &Service{pipeline: pipeline}
}

// Simulate runs a call in recording mode and returns its footprint and
// authorization entries.
func (s *Service) Simulate(r *http.Request, args *InvokeArgs, reply *InvokeReply) error {
	return s.handle("simulate", func(logger log.Logger) error {
		req, err := args.request()
		if err != nil {
			return err
		}
		outcome, err := s.pipeline.Simulate(r.Context(), req)
		if err != nil {
			return err
		}
		logger.Debug("simulated", "contract", args.ContractID, "function", args.Function, "restore", outcome.RestorePreamble != nil)
		return reply.setOutcome(outcome)
	})
}

// Execute runs a call in enforcing mode.
func (s *Service) Execute(r *http.Request, args *InvokeArgs, reply *InvokeReply) error {
	return s.handle("execute", func(logger log.Logger) error {
		req, err := args.request()
		if err != nil {
			return err
		}
		outcome, err := s.pipeline.Execute(r.Context(), req)
		if err != nil {
			return err
		}
		logger.Debug("executed", "contract", args.ContractID, "function", args.Function, "restore", outcome.RestorePreamble != nil)
		return reply.setOutcome(outcome)
	})
}

type ExecuteCodeArgs struct {
	// ContractID is the hex id to deploy at, zero when empty
	ContractID string `json:"contract_id,omitempty"`
	// Code is the hex encoded WASM module
	Code     string   `json:"code"`
	Function string   `json:"fname"`
	Params   []string `json:"params"`
}

type ExecuteCodeReply struct {
	CPUInstructions json.Uint64 `json:"cpu"`
	MemoryBytes     json.Uint64 `json:"mem"`
	// Result is the base64 XDR return value
	Result string `json:"result"`
}

// ExecuteCode deploys [args].Code on an empty ledger and calls it.
func (s *Service) ExecuteCode(r *http.Request, args *ExecuteCodeArgs, reply *ExecuteCodeReply) error {
	return s.handle("executeCode", func(logger log.Logger) (err error) {
		contractID := ids.Empty
		if args.ContractID != "" {
			if contractID, err = ParseHash(args.ContractID); err != nil {
				return err
			}
		}
		code, err := parseCode(args.Code)
		if err != nil {
			return err
		}
		params, err := decodeParams(args.Params)
		if err != nil {
			return err
		}
		res, err := s.pipeline.ExecuteCode(r.Context(), xdr.Hash(contractID), code, args.Function, params)
		if err != nil {
			return err
		}
		if reply.Result, err = xdr.MarshalBase64(res.ReturnValue); err != nil {
			return err
		}
		reply.CPUInstructions = json.Uint64(res.CPUInstructions)
		reply.MemoryBytes = json.Uint64(res.MemoryBytes)
		logger.Debug("executed code", "function", args.Function, "cpu", res.CPUInstructions)
		return nil
	})
}

type UploadArgs struct {
	Code string `json:"code"`
}

type UploadReply struct {
	Hash string `json:"hash"`
}

// Upload stores a WASM module under the hex of its sha256.
func (s *Service) Upload(r *http.Request, args *UploadArgs, reply *UploadReply) error {
	return s.handle("upload", func(logger log.Logger) error {
		code, err := parseCode(args.Code)
		if err != nil {
			return err
		}
		hash, err := s.pipeline.Upload(r.Context(), code)
		if err != nil {
			return err
		}
		reply.Hash = hash.Hex()
		logger.Info("uploaded module", "hash", reply.Hash, "size", len(code))
		return nil
	})
}

type GetModuleArgs struct {
	Hash string `json:"hash"`
}

type GetModuleReply struct {
	Code string `json:"code"`
}

// GetModule returns the hex bytecode stored under [args].Hash.
func (s *Service) GetModule(r *http.Request, args *GetModuleArgs, reply *GetModuleReply) error {
	return s.handle("getModule", func(log.Logger) error {
		hash, err := ParseHash(args.Hash)
		if err != nil {
			return err
		}
		code, err := s.pipeline.Module(r.Context(), hash)
		if err != nil {
			return err
		}
		reply.Code = hex.EncodeToString(code)
		return nil
	})
}

// handle runs [fn] under a request-scoped logger, counts it, and turns
// its failure into a JSON-RPC error.
func (s *Service) handle(method string, fn func(log.Logger) error) error {
	logger := log.New("requestID", uuid.New().String(), "method", method)
	err := fn(logger)
	s.pipeline.metrics.requests.WithLabelValues(method, outcome(err)).Inc()
	if err == nil {
		return nil
	}

	kind := vmerr.KindOf(err)
	switch kind {
	case vmerr.Internal, vmerr.Unknown, vmerr.StoreUnavailable, vmerr.SnapshotInvalid:
		logger.Error("request failed", "kind", kind, "error", err)
	default:
		logger.Debug("request failed", "kind", kind, "error", err)
	}
	return rpcError(err)
}

func rpcError(err error) *json2.Error {
	rpcErr := &json2.Error{Message: err.Error()}
	switch vmerr.KindOf(err) {
	case vmerr.Validation:
		rpcErr.Code = CodeValidation
	case vmerr.ModuleNotFound:
		rpcErr.Code = CodeModuleNotFound
	case vmerr.StoreUnavailable:
		rpcErr.Code = CodeStoreUnavailable
	case vmerr.SnapshotInvalid:
		rpcErr.Code = CodeSnapshotInvalid
	case vmerr.BudgetExceeded:
		rpcErr.Code = CodeBudgetExceeded
	case vmerr.Contract:
		rpcErr.Code = CodeContract
	case vmerr.Host:
		rpcErr.Code = CodeHost
	default:
		rpcErr.Code = CodeInternal
	}

	var hostErr *invoke.HostError
	if errors.As(err, &hostErr) {
		data := &InvokeReply{
			Cost: Cost{
				CPUInstructions: json.Uint64(hostErr.CPUInstructions),
				MemoryBytes:     json.Uint64(hostErr.MemoryBytes),
			},
			Error: err.Error(),
		}
		// events that fail to encode are dropped; the error itself survives
		data.Events, _ = encodeEvents(hostErr.Events)
		rpcErr.Data = data
	}
	return rpcErr
}
