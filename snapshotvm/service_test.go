// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshotvm_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/gorilla/rpc/v2/json2"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/snapshotvm/client"
	"github.com/ava-labs/snapshotvm/engine/enginetest"
	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/ledger"
	"github.com/ava-labs/snapshotvm/modules"
	"github.com/ava-labs/snapshotvm/snapshotvm"
)

var contractID = xdr.Hash{0xc0, 0x02}

func newTestServer(t *testing.T) (client.Client, *enginetest.Host) {
	t.Helper()
	require := require.New(t)

	host := enginetest.New()
	host.Handle("get", enginetest.ReadU32("COUNTER"))
	host.Handle("hello", enginetest.Echo(10, 20))
	host.Handle("fail", enginetest.Fail(3))
	host.Handle("auth", enginetest.RequireAuth(nil, nil))

	p, err := snapshotvm.NewPipeline(snapshotvm.DefaultConfig(), modules.NewMemStore(), host, nil)
	require.NoError(err)
	handlers, err := snapshotvm.CreateHandlers(p)
	require.NoError(err)

	server := httptest.NewServer(handlers[""])
	t.Cleanup(server.Close)
	return client.New(server.URL), host
}

func invokeArgs(t *testing.T, cli client.Client, fname string, records ...ledger.Record) *snapshotvm.InvokeArgs {
	t.Helper()
	require := require.New(t)

	hash, err := cli.Upload(context.Background(), enginetest.Wasm("counter"))
	require.NoError(err)
	records = append(records, ledger.ContractInstanceRecord(contractID, xdr.Hash(hash), ledger.Permanent()))
	wire, err := ledger.EncodeRecords(records)
	require.NoError(err)

	id := ids.ID(contractID)
	return &snapshotvm.InvokeArgs{
		LedgerSequence: 100,
		LedgerEntries:  wire,
		ContractID:     id.Hex(),
		Function:       fname,
	}
}

func rpcError(t *testing.T, err error) *json2.Error {
	t.Helper()

	var rpcErr *json2.Error
	require.True(t, errors.As(err, &rpcErr), "expected a JSON-RPC error, got %v", err)
	return rpcErr
}

func TestServiceSimulate(t *testing.T) {
	require := require.New(t)
	cli, _ := newTestServer(t)

	args := invokeArgs(t, cli, "get", enginetest.DataRecord(contractID, "COUNTER", 9, ledger.LiveUntil(500)))
	reply, err := cli.Simulate(context.Background(), args)
	require.NoError(err)
	require.Nil(reply.RestorePreamble)
	require.NotNil(reply.Results)
	require.Empty(reply.Results.Auth)
	require.EqualValues(2000, reply.Cost.CPUInstructions)

	var val xdr.ScVal
	require.NoError(xdr.SafeUnmarshalBase64(reply.Results.XDR, &val))
	require.Equal(enginetest.U32(9), val)

	var data xdr.SorobanTransactionData
	require.NoError(xdr.SafeUnmarshalBase64(reply.TransactionData, &data))
	require.Len(data.Resources.Footprint.ReadOnly, 2)
}

func TestServiceSimulateRecordsAuth(t *testing.T) {
	require := require.New(t)
	cli, _ := newTestServer(t)

	reply, err := cli.Simulate(context.Background(), invokeArgs(t, cli, "auth"))
	require.NoError(err)
	require.Len(reply.Results.Auth, 1)

	var entry xdr.SorobanAuthorizationEntry
	require.NoError(xdr.SafeUnmarshalBase64(reply.Results.Auth[0], &entry))
	require.Equal(xdr.SorobanCredentialsTypeSorobanCredentialsSourceAccount, entry.Credentials.Type)
}

func TestServiceExecute(t *testing.T) {
	require := require.New(t)
	cli, _ := newTestServer(t)

	arg, err := xdr.MarshalBase64(enginetest.Symbol("hi"))
	require.NoError(err)
	args := invokeArgs(t, cli, "hello")
	args.Params = []string{arg}

	reply, err := cli.Execute(context.Background(), args)
	require.NoError(err)
	require.Equal(arg, reply.Results.XDR)
	require.Empty(reply.TransactionData)
	require.EqualValues(20, reply.Cost.MemoryBytes)
}

func TestServiceRestorePreamble(t *testing.T) {
	require := require.New(t)
	cli, host := newTestServer(t)

	args := invokeArgs(t, cli, "get", enginetest.DataRecord(contractID, "COUNTER", 9, ledger.LiveUntil(10)))
	reply, err := cli.Simulate(context.Background(), args)
	require.NoError(err)
	require.Nil(reply.Results)
	require.NotNil(reply.RestorePreamble)
	require.Zero(reply.RestorePreamble.MinResourceFee)

	var data xdr.SorobanTransactionData
	require.NoError(xdr.SafeUnmarshalBase64(reply.RestorePreamble.TransactionData, &data))
	require.Equal([]xdr.LedgerKey{enginetest.DataKey(contractID, "COUNTER")}, data.Resources.Footprint.ReadWrite)
	require.Empty(host.Requests())
}

func TestServiceErrorCodes(t *testing.T) {
	cli, _ := newTestServer(t)

	tests := []struct {
		name string
		args func(t *testing.T) *snapshotvm.InvokeArgs
		code json2.ErrorCode
	}{
		{
			name: "malformed contract id",
			args: func(t *testing.T) *snapshotvm.InvokeArgs {
				args := invokeArgs(t, cli, "get")
				args.ContractID = "zz"
				return args
			},
			code: snapshotvm.CodeValidation,
		},
		{
			name: "malformed param",
			args: func(t *testing.T) *snapshotvm.InvokeArgs {
				args := invokeArgs(t, cli, "get")
				args.Params = []string{"!!"}
				return args
			},
			code: snapshotvm.CodeValidation,
		},
		{
			name: "module never uploaded",
			args: func(t *testing.T) *snapshotvm.InvokeArgs {
				args := invokeArgs(t, cli, "get")
				wire, err := ledger.EncodeRecords([]ledger.Record{
					ledger.ContractInstanceRecord(contractID, xdr.Hash{0x0b}, ledger.Permanent()),
				})
				require.NoError(t, err)
				args.LedgerEntries = wire
				return args
			},
			code: snapshotvm.CodeModuleNotFound,
		},
		{
			name: "opaque contract error",
			args: func(t *testing.T) *snapshotvm.InvokeArgs {
				return invokeArgs(t, cli, "fail")
			},
			code: snapshotvm.CodeHost,
		},
		{
			name: "budget exceeded",
			args: func(t *testing.T) *snapshotvm.InvokeArgs {
				args := invokeArgs(t, cli, "get")
				args.Budget = &snapshotvm.Cost{CPUInstructions: 1, MemoryBytes: 1}
				return args
			},
			code: snapshotvm.CodeBudgetExceeded,
		},
		{
			name: "negative adjustment factor",
			args: func(t *testing.T) *snapshotvm.InvokeArgs {
				args := invokeArgs(t, cli, "get")
				args.AdjustmentConfig = &invoke.AdjustmentConfig{
					Instructions: invoke.AdjustmentFactor{Multiplicative: -1},
				}
				return args
			},
			code: snapshotvm.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cli.Simulate(context.Background(), tt.args(t))
			require.Equal(t, tt.code, rpcError(t, err).Code)
		})
	}
}

func TestServiceUploadAndGetModule(t *testing.T) {
	require := require.New(t)
	cli, _ := newTestServer(t)

	code := enginetest.Wasm("module")
	hash, err := cli.Upload(context.Background(), code)
	require.NoError(err)
	require.Equal(modules.Hash(code), hash)

	got, err := cli.GetModule(context.Background(), hash)
	require.NoError(err)
	require.Equal(code, got)

	_, err = cli.GetModule(context.Background(), ids.ID{0x01})
	require.Equal(snapshotvm.CodeModuleNotFound, rpcError(t, err).Code)

	_, err = cli.Upload(context.Background(), []byte{0x01, 0x02, 0x03, 0x04, 0x05})
	require.Equal(snapshotvm.CodeValidation, rpcError(t, err).Code)
}

func TestServiceExecuteCode(t *testing.T) {
	require := require.New(t)
	cli, _ := newTestServer(t)

	arg, err := xdr.MarshalBase64(enginetest.U32(5))
	require.NoError(err)
	reply, err := cli.ExecuteCode(context.Background(), ids.Empty, enginetest.Wasm("raw"), "hello", []string{arg})
	require.NoError(err)
	require.Equal(arg, reply.Result)
	require.EqualValues(10, reply.CPUInstructions)
	require.EqualValues(20, reply.MemoryBytes)
}

func TestServiceExecuteCodeAtContractID(t *testing.T) {
	require := require.New(t)
	cli, host := newTestServer(t)

	id := ids.ID(contractID)
	_, err := cli.ExecuteCode(context.Background(), id, enginetest.Wasm("raw"), "hello", nil)
	require.NoError(err)

	requests := host.Requests()
	require.Len(requests, 1)
	require.Equal(contractID, *requests[0].Function.InvokeContract.ContractAddress.ContractId)

	_, err = cli.ExecuteCode(context.Background(), ids.Empty, []byte{0x00, 0x61, 0x73}, "hello", nil)
	require.Equal(snapshotvm.CodeValidation, rpcError(t, err).Code)
	require.Len(host.Requests(), 1)
}
