// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshotvm

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/utils/formatting"

	"github.com/ava-labs/snapshotvm/ledger"
)

// StaticService converts between the XDR base64 the VM speaks and
// avalanchego encodings.
type StaticService struct{}

// CreateStaticService ...
func CreateStaticService() *StaticService {
	return &StaticService{}
}

// EncoderArgs are arguments for Encode
type EncoderArgs struct {
	XDR      string              `json:"xdr"`
	Encoding formatting.Encoding `json:"encoding"`
}

// EncoderReply is the reply from Encoder
type EncoderReply struct {
	Bytes    string              `json:"bytes"`
	Encoding formatting.Encoding `json:"encoding"`
}

// Encode re-encodes base64 XDR as [args].Encoding
func (ss *StaticService) Encode(_ *http.Request, args *EncoderArgs, reply *EncoderReply) error {
	raw, err := base64.StdEncoding.DecodeString(args.XDR)
	if err != nil {
		return fmt.Errorf("couldn't decode xdr: %w", err)
	}
	bytes, err := formatting.Encode(args.Encoding, raw)
	if err != nil {
		return fmt.Errorf("couldn't encode data as string: %w", err)
	}
	reply.Bytes = bytes
	reply.Encoding = args.Encoding
	return nil
}

// DecoderArgs are arguments for Decode
type DecoderArgs struct {
	Bytes    string              `json:"bytes"`
	Encoding formatting.Encoding `json:"encoding"`
}

// DecoderReply is the reply from Decoder
type DecoderReply struct {
	XDR string `json:"xdr"`
}

// Decode returns the base64 XDR of [args].Bytes
func (ss *StaticService) Decode(_ *http.Request, args *DecoderArgs, reply *DecoderReply) error {
	bytes, err := formatting.Decode(args.Encoding, args.Bytes)
	if err != nil {
		return fmt.Errorf("couldn't decode data as string: %w", err)
	}
	reply.XDR = base64.StdEncoding.EncodeToString(bytes)
	return nil
}

type NetworkIDArgs struct {
	Passphrase string `json:"passphrase"`
}

type NetworkIDReply struct {
	NetworkID string `json:"networkID"`
}

// NetworkID returns the hex network id of [args].Passphrase, or of the
// default passphrase when it is empty.
func (ss *StaticService) NetworkID(_ *http.Request, args *NetworkIDArgs, reply *NetworkIDReply) error {
	passphrase := args.Passphrase
	if passphrase == "" {
		passphrase = ledger.DefaultPassphrase
	}
	id := ledger.NetworkID(passphrase)
	reply.NetworkID = id.Hex()
	return nil
}
