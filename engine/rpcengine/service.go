// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcengine

import (
	"errors"
	"fmt"
	"net/http"

	avalancheJSON "github.com/ava-labs/avalanchego/utils/json"
	"github.com/gorilla/rpc/v2"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/snapshotvm/invoke"
)

// Service is the API service exposing an invoke.Host
type Service struct{ host invoke.Host }

// Invoke runs one host function. Engine failures are reported in
// [reply].Error; only transport and decoding problems fail the call.
func (s *Service) Invoke(r *http.Request, args *InvokeArgs, reply *InvokeReply) error {
	req, err := decodeRequest(args)
	if err != nil {
		return fmt.Errorf("couldn't decode request: %w", err)
	}

	res, err := s.host.Invoke(r.Context(), req)
	var hostErr *invoke.HostError
	switch {
	case errors.As(err, &hostErr):
		return encodeHostError(hostErr, reply)
	case err != nil:
		log.Warn("engine failed", "error", err)
		return err
	}
	return encodeResult(res, reply)
}

// NewHandler serves [host] as the "engine" service.
func NewHandler(host invoke.Host) (http.Handler, error) {
	server := rpc.NewServer()
	server.RegisterCodec(avalancheJSON.NewCodec(), "application/json")
	server.RegisterCodec(avalancheJSON.NewCodec(), "application/json;charset=UTF-8")
	if err := server.RegisterService(&Service{host: host}, "engine"); err != nil {
		return nil, err
	}
	return server, nil
}
