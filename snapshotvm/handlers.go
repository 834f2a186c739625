// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshotvm

import (
	"net/http"

	cjson "github.com/ava-labs/avalanchego/utils/json"
	"github.com/gorilla/rpc/v2"
)

func newServer() *rpc.Server {
	server := rpc.NewServer()
	codec := cjson.NewCodec()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	return server
}

// CreateHandlers returns a map where:
// Keys: The path extension for this VM's API (empty in this case)
// Values: The handler for the API
func CreateHandlers(pipeline *Pipeline) (map[string]http.Handler, error) {
	server := newServer()
	return map[string]http.Handler{
		"": server,
	}, server.RegisterService(NewService(pipeline), Name)
}

// CreateStaticHandlers returns a map where:
// Keys: The path extension for this VM's static API
// Values: The handler for that static API
func CreateStaticHandlers() (map[string]http.Handler, error) {
	server := newServer()
	return map[string]http.Handler{
		"": server,
	}, server.RegisterService(CreateStaticService(), Name)
}
