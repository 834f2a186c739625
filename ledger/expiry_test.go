// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"math"
	"testing"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"
)

func TestLifetimeIsLive(t *testing.T) {
	tests := []struct {
		name     string
		lifetime Lifetime
		seq      uint32
		live     bool
	}{
		{"permanent", Permanent(), math.MaxUint32, true},
		{"before bound", LiveUntil(10), 9, true},
		{"at bound", LiveUntil(10), 10, false},
		{"after bound", LiveUntil(10), 11, false},
		{"max lifetime", MaxLifetime, math.MaxUint32 - 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.live, tt.lifetime.IsLive(tt.seq))
		})
	}
}

func TestLifetimePtr(t *testing.T) {
	require := require.New(t)

	require.Nil(Permanent().Ptr())
	require.Equal(Permanent(), LifetimeOf(nil))

	p := LiveUntil(12).Ptr()
	require.NotNil(p)
	require.Equal(uint32(12), *p)
	require.Equal(LiveUntil(12), LifetimeOf(p))
}

func TestClassify(t *testing.T) {
	require := require.New(t)

	records := []Record{
		dataRecord(1, "A", 1, LiveUntil(10)),
		dataRecord(1, "B", 1, Permanent()),
		dataRecord(1, "C", 1, LiveUntil(11)),
		dataRecord(1, "D", 1, LiveUntil(3)),
	}
	live, expired := Classify(10, records)
	require.Len(live, 2)
	require.Len(expired, 2)
	require.Equal(records[1].Key, live[0].Key)
	require.Equal(records[2].Key, live[1].Key)
	require.Equal(records[0].Key, expired[0].Key)
	require.Equal(records[3].Key, expired[1].Key)
}

func TestRestorePreamble(t *testing.T) {
	require := require.New(t)

	require.Nil(NewRestorePreamble(nil))

	expired := []Record{dataRecord(1, "A", 1, LiveUntil(2))}
	p := NewRestorePreamble(expired)
	require.NotNil(p)
	require.Equal(int64(0), p.MinResourceFee)
	require.Equal([]xdr.LedgerKey{expired[0].Key}, p.ReadWrite)

	data := p.TransactionData()
	require.Equal(xdr.Int64(0), data.ResourceFee)
	require.Empty(data.Resources.Footprint.ReadOnly)
	require.Equal(p.ReadWrite, data.Resources.Footprint.ReadWrite)

	_, err := xdr.MarshalBase64(data)
	require.NoError(err)
}

func TestWireRecordDerivesKey(t *testing.T) {
	require := require.New(t)

	rec := dataRecord(4, "X", 9, LiveUntil(77))
	w, err := rec.Wire()
	require.NoError(err)
	require.Equal(uint32(77), *w.LiveUntil)

	w.Key = ""
	decoded, err := w.Record()
	require.NoError(err)
	require.Equal(rec.Key, decoded.Key)
	require.Equal(LiveUntil(77), decoded.Lifetime)

	_, err = WireRecord{Entry: "not base64!"}.Record()
	require.Error(err)
}
