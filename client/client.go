// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import (
	"context"
	"encoding/hex"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/snapshotvm/snapshotvm"
)

// Client defines snapshotvm client operations.
type Client interface {
	// Simulate runs a call in recording mode
	Simulate(ctx context.Context, args *snapshotvm.InvokeArgs) (*snapshotvm.InvokeReply, error)

	// Execute runs a call in enforcing mode
	Execute(ctx context.Context, args *snapshotvm.InvokeArgs) (*snapshotvm.InvokeReply, error)

	// ExecuteCode deploys [code] at [contractID] of an empty ledger and calls [fname]
	ExecuteCode(ctx context.Context, contractID ids.ID, code []byte, fname string, params []string) (*snapshotvm.ExecuteCodeReply, error)

	// Upload stores a WASM module and returns its hash
	Upload(ctx context.Context, code []byte) (ids.ID, error)

	// GetModule fetches an uploaded module
	GetModule(ctx context.Context, hash ids.ID) ([]byte, error)
}

// New creates a new client object.
func New(uri string) Client {
	req := rpc.NewEndpointRequester(uri)
	return &client{req: req}
}

type client struct {
	req rpc.EndpointRequester
}

func (cli *client) Simulate(ctx context.Context, args *snapshotvm.InvokeArgs) (*snapshotvm.InvokeReply, error) {
	resp := new(snapshotvm.InvokeReply)
	err := cli.req.SendRequest(ctx, "snapshotvm.simulate", args, resp)
	return resp, err
}

func (cli *client) Execute(ctx context.Context, args *snapshotvm.InvokeArgs) (*snapshotvm.InvokeReply, error) {
	resp := new(snapshotvm.InvokeReply)
	err := cli.req.SendRequest(ctx, "snapshotvm.execute", args, resp)
	return resp, err
}

func (cli *client) ExecuteCode(ctx context.Context, contractID ids.ID, code []byte, fname string, params []string) (*snapshotvm.ExecuteCodeReply, error) {
	resp := new(snapshotvm.ExecuteCodeReply)
	err := cli.req.SendRequest(ctx,
		"snapshotvm.executeCode",
		&snapshotvm.ExecuteCodeArgs{
			ContractID: contractID.Hex(),
			Code:       hex.EncodeToString(code),
			Function:   fname,
			Params:     params,
		},
		resp,
	)
	return resp, err
}

func (cli *client) Upload(ctx context.Context, code []byte) (ids.ID, error) {
	resp := new(snapshotvm.UploadReply)
	err := cli.req.SendRequest(ctx,
		"snapshotvm.upload",
		&snapshotvm.UploadArgs{Code: hex.EncodeToString(code)},
		resp,
	)
	if err != nil {
		return ids.Empty, err
	}
	return snapshotvm.ParseHash(resp.Hash)
}

func (cli *client) GetModule(ctx context.Context, hash ids.ID) ([]byte, error) {
	resp := new(snapshotvm.GetModuleReply)
	err := cli.req.SendRequest(ctx,
		"snapshotvm.getModule",
		&snapshotvm.GetModuleArgs{Hash: hash.Hex()},
		resp,
	)
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(resp.Code)
}
