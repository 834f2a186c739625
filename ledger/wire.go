// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/vmerr"
)

// WireRecord is the JSON form of a Record. Key and Entry are base64 XDR.
// An empty Key is derived from the entry.
type WireRecord struct {
	Key       string  `json:"key,omitempty"`
	Entry     string  `json:"entry"`
	LiveUntil *uint32 `json:"live_until,omitempty"`
}

func (r Record) Wire() (WireRecord, error) {
	key, err := xdr.MarshalBase64(r.Key)
	if err != nil {
		return WireRecord{}, err
	}
	entry, err := xdr.MarshalBase64(r.Entry)
	if err != nil {
		return WireRecord{}, err
	}
	return WireRecord{Key: key, Entry: entry, LiveUntil: r.Lifetime.Ptr()}, nil
}

// Record decodes w. Malformed XDR is a validation error.
func (w WireRecord) Record() (Record, error) {
	var entry xdr.LedgerEntry
	if err := xdr.SafeUnmarshalBase64(w.Entry, &entry); err != nil {
		return Record{}, vmerr.Validationf("invalid ledger entry: %w", err)
	}
	if w.Key == "" {
		rec, err := NewRecord(entry, LifetimeOf(w.LiveUntil))
		if err != nil {
			return Record{}, vmerr.Validationf("%w", err)
		}
		return rec, nil
	}
	var key xdr.LedgerKey
	if err := xdr.SafeUnmarshalBase64(w.Key, &key); err != nil {
		return Record{}, vmerr.Validationf("invalid ledger key: %w", err)
	}
	return Record{Key: key, Entry: entry, Lifetime: LifetimeOf(w.LiveUntil)}, nil
}

func DecodeRecords(wire []WireRecord) ([]Record, error) {
	records := make([]Record, 0, len(wire))
	for i, w := range wire {
		rec, err := w.Record()
		if err != nil {
			return nil, vmerr.Validationf("ledger entry %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func EncodeRecords(records []Record) ([]WireRecord, error) {
	wire := make([]WireRecord, 0, len(records))
	for _, rec := range records {
		w, err := rec.Wire()
		if err != nil {
			return nil, err
		}
		wire = append(wire, w)
	}
	return wire, nil
}
