// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpcengine connects the invocation pipeline to an execution engine
// running behind a JSON-RPC endpoint, and serves any invoke.Host over the
// same protocol.
package rpcengine

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/utils/rpc"

	"github.com/ava-labs/snapshotvm/invoke"
)

var _ invoke.Host = (*Client)(nil)

// Client is an invoke.Host that forwards every call to a remote engine.
type Client struct {
	req rpc.EndpointRequester
}

// New creates a new client object.
func New(uri string) *Client {
	req := rpc.NewEndpointRequester(uri)
	return &Client{req: req}
}

func (c *Client) Invoke(ctx context.Context, req *invoke.HostRequest) (*invoke.HostResult, error) {
	args, err := encodeRequest(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode engine request: %w", err)
	}

	reply := new(InvokeReply)
	if err := c.req.SendRequest(ctx, "engine.invoke", args, reply); err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	if reply.Error != nil {
		hostErr, err := decodeHostError(reply)
		if err != nil {
			return nil, fmt.Errorf("failed to decode engine error: %w", err)
		}
		return nil, hostErr
	}

	res, err := decodeResult(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to decode engine reply: %w", err)
	}
	return res, nil
}
