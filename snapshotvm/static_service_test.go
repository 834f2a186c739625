// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshotvm

import (
	"testing"

	"github.com/ava-labs/avalanchego/utils/formatting"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"

	"github.com/ava-labs/snapshotvm/engine/enginetest"
	"github.com/ava-labs/snapshotvm/ledger"
)

func TestStaticServiceEncodeDecode(t *testing.T) {
	require := require.New(t)
	ss := CreateStaticService()

	val, err := xdr.MarshalBase64(enginetest.U32(12))
	require.NoError(err)

	encoded := &EncoderReply{}
	require.NoError(ss.Encode(nil, &EncoderArgs{XDR: val, Encoding: formatting.Hex}, encoded))
	require.Equal(formatting.Hex, encoded.Encoding)

	decoded := &DecoderReply{}
	require.NoError(ss.Decode(nil, &DecoderArgs{Bytes: encoded.Bytes, Encoding: formatting.Hex}, decoded))
	require.Equal(val, decoded.XDR)

	require.Error(ss.Encode(nil, &EncoderArgs{XDR: "%%", Encoding: formatting.Hex}, &EncoderReply{}))
}

func TestStaticServiceNetworkID(t *testing.T) {
	require := require.New(t)
	ss := CreateStaticService()

	reply := &NetworkIDReply{}
	require.NoError(ss.NetworkID(nil, &NetworkIDArgs{}, reply))
	want := ledger.NetworkID(ledger.DefaultPassphrase)
	require.Equal(want.Hex(), reply.NetworkID)

	require.NoError(ss.NetworkID(nil, &NetworkIDArgs{Passphrase: "other"}, reply))
	require.NotEqual(want.Hex(), reply.NetworkID)
}
