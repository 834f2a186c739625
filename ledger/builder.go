// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"fmt"

	"github.com/ava-labs/avalanchego/database/memdb"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/snapshotvm/vmerr"
)

type BuilderConfig struct {
	BaseReserve           uint32
	MinPersistentEntryTTL uint32
	MinTempEntryTTL       uint32
	MaxEntryTTL           uint32
}

func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		BaseReserve:           DefaultBaseReserve,
		MinPersistentEntryTTL: DefaultMinPersistentEntryTTL,
		MinTempEntryTTL:       DefaultMinTempEntryTTL,
		MaxEntryTTL:           DefaultMaxEntryTTL,
	}
}

// Builder assembles per-request snapshots.
type Builder struct {
	config BuilderConfig
}

func NewBuilder(config BuilderConfig) *Builder {
	return &Builder{config: config}
}

func (b *Builder) Config() BuilderConfig { return b.config }

// Build returns a snapshot at ledger [seq] holding [explicit] and [inferred].
// A later explicit record replaces an earlier one with the same key; an
// inferred record never replaces an explicit one. An empty [passphrase]
// selects DefaultPassphrase.
func (b *Builder) Build(seq uint32, passphrase string, explicit, inferred []Record) (*Snapshot, error) {
	if passphrase == "" {
		passphrase = DefaultPassphrase
	}

	records := NewRecordStore(memdb.New())
	for _, rec := range explicit {
		if err := records.Put(rec); err != nil {
			records.Abort()
			return nil, vmerr.InvalidSnapshot(fmt.Errorf("failed to put explicit record: %w", err))
		}
	}
	for _, rec := range inferred {
		if _, err := records.PutIfAbsent(rec); err != nil {
			records.Abort()
			return nil, vmerr.InvalidSnapshot(fmt.Errorf("failed to put inferred record: %w", err))
		}
	}
	if err := records.Commit(); err != nil {
		records.Abort()
		return nil, vmerr.InvalidSnapshot(fmt.Errorf("failed to commit records: %w", err))
	}

	log.Debug("built snapshot",
		"seq", seq,
		"explicit", len(explicit),
		"inferred", len(inferred),
	)
	return &Snapshot{
		info: Info{
			ProtocolVersion:       ProtocolVersion,
			SequenceNumber:        seq,
			NetworkID:             NetworkID(passphrase),
			BaseReserve:           b.config.BaseReserve,
			MinPersistentEntryTTL: b.config.MinPersistentEntryTTL,
			MinTempEntryTTL:       b.config.MinTempEntryTTL,
			MaxEntryTTL:           b.config.MaxEntryTTL,
		},
		records: records,
	}, nil
}
