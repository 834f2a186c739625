// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/hashing"
	"github.com/stellar/go/xdr"

	"github.com/ava-labs/snapshotvm/vmerr"
)

const (
	ProtocolVersion = 20

	DefaultPassphrase = "Soroflare Stellar Network ; March 2024"

	DefaultBaseReserve           = 5_000_000
	DefaultMinPersistentEntryTTL = 4096
	DefaultMinTempEntryTTL       = 16
	DefaultMaxEntryTTL           = 535_680
)

var (
	errFrozen           = errors.New("snapshot is frozen")
	errSequenceOverflow = errors.New("ledger sequence overflows")
)

// NetworkID is the SHA-256 of [passphrase].
func NetworkID(passphrase string) ids.ID {
	return hashing.ComputeHash256Array([]byte(passphrase))
}

// Info is the ledger header an execution engine runs against.
type Info struct {
	ProtocolVersion       uint32 `json:"protocolVersion"`
	SequenceNumber        uint32 `json:"sequenceNumber"`
	Timestamp             uint64 `json:"timestamp"`
	NetworkID             ids.ID `json:"networkID"`
	BaseReserve           uint32 `json:"baseReserve"`
	MinPersistentEntryTTL uint32 `json:"minPersistentEntryTTL"`
	MinTempEntryTTL       uint32 `json:"minTempEntryTTL"`
	MaxEntryTTL           uint32 `json:"maxEntryTTL"`
}

// Source is read access to a snapshot's records.
type Source interface {
	Lookup(key xdr.LedgerKey) (Record, bool, error)
	Records() ([]Record, error)
}

var _ Source = (*Snapshot)(nil)

// Snapshot is the ledger view of a single request. It is mutable while the
// request is being assembled and read-only once frozen.
type Snapshot struct {
	info    Info
	records RecordStore
	frozen  bool
}

// FromRecords returns a frozen snapshot at [info] holding [records].
func FromRecords(info Info, records []Record) (*Snapshot, error) {
	store := NewRecordStore(memdb.New())
	for _, rec := range records {
		if err := store.Put(rec); err != nil {
			return nil, vmerr.InvalidSnapshot(fmt.Errorf("failed to put record: %w", err))
		}
	}
	if err := store.Commit(); err != nil {
		return nil, vmerr.InvalidSnapshot(fmt.Errorf("failed to commit records: %w", err))
	}
	return &Snapshot{info: info, records: store, frozen: true}, nil
}

func (s *Snapshot) Info() Info { return s.info }

func (s *Snapshot) Frozen() bool { return s.frozen }

// Lookup returns the record at [key], if any.
func (s *Snapshot) Lookup(key xdr.LedgerKey) (Record, bool, error) {
	rec, err := s.records.Get(key)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return Record{}, false, nil
	case err != nil:
		return Record{}, false, err
	default:
		return rec, true, nil
	}
}

func (s *Snapshot) Records() ([]Record, error) {
	return s.records.Records()
}

func (s *Snapshot) Put(rec Record) error {
	if s.frozen {
		return vmerr.InvalidSnapshot(errFrozen)
	}
	if err := s.records.Put(rec); err != nil {
		s.records.Abort()
		return vmerr.InvalidSnapshot(fmt.Errorf("failed to put record: %w", err))
	}
	return nil
}

// Advance closes [ledgers] ledgers of [closeTime] seconds each.
func (s *Snapshot) Advance(ledgers uint32, closeTime uint64) error {
	if s.frozen {
		return vmerr.InvalidSnapshot(errFrozen)
	}
	if s.info.SequenceNumber > math.MaxUint32-ledgers {
		return vmerr.InvalidSnapshot(errSequenceOverflow)
	}
	s.info.SequenceNumber += ledgers
	s.info.Timestamp += uint64(ledgers) * closeTime
	return nil
}

// Freeze commits pending writes. Later writes fail.
func (s *Snapshot) Freeze() error {
	if s.frozen {
		return nil
	}
	if err := s.records.Commit(); err != nil {
		s.records.Abort()
		return vmerr.InvalidSnapshot(fmt.Errorf("failed to commit records: %w", err))
	}
	s.frozen = true
	return nil
}

func (s *Snapshot) Close() error {
	return s.records.Close()
}
