// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "github.com/stellar/go/xdr"

// Classify splits [records] by liveness at ledger [seq], keeping order.
func Classify(seq uint32, records []Record) (live, expired []Record) {
	for _, rec := range records {
		if rec.Lifetime.IsLive(seq) {
			live = append(live, rec)
		} else {
			expired = append(expired, rec)
		}
	}
	return live, expired
}

// RestorePreamble describes the restore operation that must precede a call
// touching expired records.
type RestorePreamble struct {
	ReadWrite      []xdr.LedgerKey
	MinResourceFee int64
}

// NewRestorePreamble returns nil when nothing expired. The fee estimate is
// always zero.
func NewRestorePreamble(expired []Record) *RestorePreamble {
	if len(expired) == 0 {
		return nil
	}
	keys := make([]xdr.LedgerKey, 0, len(expired))
	for _, rec := range expired {
		keys = append(keys, rec.Key)
	}
	return &RestorePreamble{ReadWrite: keys}
}

func (p *RestorePreamble) TransactionData() xdr.SorobanTransactionData {
	return xdr.SorobanTransactionData{
		Resources: xdr.SorobanResources{
			Footprint: xdr.LedgerFootprint{
				ReadOnly:  []xdr.LedgerKey{},
				ReadWrite: p.ReadWrite,
			},
		},
		ResourceFee: xdr.Int64(p.MinResourceFee),
	}
}
