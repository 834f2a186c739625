// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcengine

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/snapshotvm/engine/enginetest"
	"github.com/ava-labs/snapshotvm/invoke"
	"github.com/ava-labs/snapshotvm/ledger"
)

var contractID = xdr.Hash{0xc0}

func newTestEngine(t *testing.T) (*enginetest.Host, *Client) {
	t.Helper()

	host := enginetest.New()
	handler, err := NewHandler(host)
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return host, New(server.URL)
}

func newRequest(t *testing.T, function string, recordAuth bool, args ...xdr.ScVal) *invoke.HostRequest {
	t.Helper()
	require := require.New(t)

	explicit := []ledger.Record{enginetest.DataRecord(contractID, "COUNTER", 41, ledger.Permanent())}
	snap, err := ledger.NewBuilder(ledger.DefaultBuilderConfig()).Build(10, "", explicit, nil)
	require.NoError(err)
	_, err = invoke.Deploy(snap, contractID, enginetest.Wasm("remote"))
	require.NoError(err)
	require.NoError(snap.Freeze())

	id := contractID
	return &invoke.HostRequest{
		Function: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &id},
				FunctionName:    xdr.ScSymbol(function),
				Args:            args,
			},
		},
		Source:     ledger.AccountID(ids.Empty),
		Ledger:     snap.Info(),
		Snapshot:   snap,
		Budget:     invoke.DefaultBudget,
		RecordAuth: recordAuth,
		Adjustment: invoke.DefaultAdjustmentConfig(),
	}
}

func TestInvokeRoundTrip(t *testing.T) {
	require := require.New(t)

	host, client := newTestEngine(t)
	host.Handle("get", enginetest.ReadU32("COUNTER"))

	res, err := client.Invoke(context.Background(), newRequest(t, "get", true))
	require.NoError(err)
	require.Equal(enginetest.U32(41), res.ReturnValue)
	require.Equal(uint64(2000), res.CPUInstructions)
	require.NotNil(res.TransactionData)
	require.Len(res.TransactionData.Resources.Footprint.ReadOnly, 2)

	// the engine saw the same ledger the caller built
	requests := host.Requests()
	require.Len(requests, 1)
	require.Equal(uint32(10), requests[0].Ledger.SequenceNumber)
	require.Equal(ledger.NetworkID(ledger.DefaultPassphrase), requests[0].Ledger.NetworkID)
	require.True(requests[0].RecordAuth)
}

func TestInvokeRecordedAuth(t *testing.T) {
	require := require.New(t)

	host, client := newTestEngine(t)
	account := ledger.AccountID(ids.ID{7})
	address := &xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &account}
	nonce := int64(99)
	host.Handle("auth", enginetest.RequireAuth(address, &nonce))
	host.Handle("self", enginetest.RequireAuth(nil, nil))

	res, err := client.Invoke(context.Background(), newRequest(t, "auth", true))
	require.NoError(err)
	require.Len(res.Auth, 1)
	require.Equal(address, res.Auth[0].Address)
	require.Equal(&nonce, res.Auth[0].Nonce)
	require.Equal(xdr.ScSymbol("auth"), res.Auth[0].Invocation.Function.ContractFn.FunctionName)

	res, err = client.Invoke(context.Background(), newRequest(t, "self", true))
	require.NoError(err)
	require.Len(res.Auth, 1)
	require.Nil(res.Auth[0].Address)
	require.Nil(res.Auth[0].Nonce)
}

func TestInvokeHostError(t *testing.T) {
	require := require.New(t)

	host, client := newTestEngine(t)
	host.Handle("fail", enginetest.Fail(3))

	_, err := client.Invoke(context.Background(), newRequest(t, "fail", false))
	var hostErr *invoke.HostError
	require.True(errors.As(err, &hostErr))
	code, ok := hostErr.ContractCode()
	require.True(ok)
	require.Equal(uint32(3), code)
}

func TestInvokeBudgetError(t *testing.T) {
	require := require.New(t)

	host, client := newTestEngine(t)
	host.Handle("spin", enginetest.Return(enginetest.Void(), invoke.DefaultCPUInstructions+1, 0))

	_, err := client.Invoke(context.Background(), newRequest(t, "spin", false))
	var hostErr *invoke.HostError
	require.True(errors.As(err, &hostErr))
	require.True(hostErr.BudgetExceeded())
	require.Equal(uint64(invoke.DefaultCPUInstructions+1), hostErr.CPUInstructions)
}
