// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/prefixdb"
	"github.com/ava-labs/avalanchego/database/versiondb"
	"github.com/stellar/go/xdr"
)

const (
	recordCacheSize = 1024
)

var (
	// These are prefixes for db keys.
	recordPrefix = []byte("record")

	errRecordWrongVersion = errors.New("wrong version")

	_ RecordStore = &recordStore{}
)

// RecordStore maps ledger keys to records. Writes are held in a version
// layer until Commit and dropped by Abort.
type RecordStore interface {
	// Get returns database.ErrNotFound if [key] is absent.
	Get(key xdr.LedgerKey) (Record, error)
	Has(key xdr.LedgerKey) (bool, error)
	// Put overwrites any record with the same key.
	Put(rec Record) error
	// PutIfAbsent reports whether [rec] was inserted.
	PutIfAbsent(rec Record) (bool, error)
	// Records returns every record in key-byte order.
	Records() ([]Record, error)

	Commit() error
	Abort()
	Close() error
}

type recordStore struct {
	recordCache cache.Cacher
	recordDB    database.Database

	baseDB *versiondb.Database
}

func NewRecordStore(db database.Database) RecordStore {
	baseDB := versiondb.New(db)
	return &recordStore{
		recordCache: &cache.LRU{Size: recordCacheSize},
		recordDB:    prefixdb.New(recordPrefix, baseDB),
		baseDB:      baseDB,
	}
}

func (s *recordStore) Get(key xdr.LedgerKey) (Record, error) {
	keyBytes, err := key.MarshalBinary()
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode ledger key: %w", err)
	}
	if rec, ok := s.recordCache.Get(string(keyBytes)); ok {
		return rec.(Record), nil
	}

	recBytes, err := s.recordDB.Get(keyBytes)
	if err != nil {
		return Record{}, err
	}
	rec, err := parseRecord(key, recBytes)
	if err != nil {
		return Record{}, err
	}

	s.recordCache.Put(string(keyBytes), rec)
	return rec, nil
}

func (s *recordStore) Has(key xdr.LedgerKey) (bool, error) {
	keyBytes, err := key.MarshalBinary()
	if err != nil {
		return false, fmt.Errorf("failed to encode ledger key: %w", err)
	}
	if _, ok := s.recordCache.Get(string(keyBytes)); ok {
		return true, nil
	}
	return s.recordDB.Has(keyBytes)
}

func (s *recordStore) Put(rec Record) error {
	keyBytes, err := rec.Key.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode ledger key: %w", err)
	}
	entryBytes, err := rec.Entry.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry: %w", err)
	}
	bytes, err := Codec.Marshal(CodecVersion, &storedRecord{
		Entry:     entryBytes,
		Bounded:   rec.Lifetime.Bounded,
		LiveUntil: rec.Lifetime.LiveUntil,
	})
	if err != nil {
		return err
	}

	if err := s.recordDB.Put(keyBytes, bytes); err != nil {
		return err
	}
	s.recordCache.Put(string(keyBytes), rec)
	return nil
}

func (s *recordStore) PutIfAbsent(rec Record) (bool, error) {
	has, err := s.Has(rec.Key)
	if err != nil || has {
		return false, err
	}
	return true, s.Put(rec)
}

func (s *recordStore) Records() ([]Record, error) {
	it := s.recordDB.NewIterator()
	defer it.Release()

	var records []Record
	for it.Next() {
		var key xdr.LedgerKey
		if err := xdr.SafeUnmarshal(it.Key(), &key); err != nil {
			return nil, fmt.Errorf("failed to decode ledger key: %w", err)
		}
		rec, err := parseRecord(key, it.Value())
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, it.Error()
}

// Commit commits pending operations to the underlying database
func (s *recordStore) Commit() error {
	return s.baseDB.Commit()
}

// Abort drops pending operations
func (s *recordStore) Abort() {
	s.baseDB.Abort()
	s.recordCache.Flush()
}

// Close closes the underlying base database
func (s *recordStore) Close() error {
	return s.baseDB.Close()
}

func parseRecord(key xdr.LedgerKey, recBytes []byte) (Record, error) {
	stored := storedRecord{}
	parsedVersion, err := Codec.Unmarshal(recBytes, &stored)
	if err != nil {
		return Record{}, err
	}
	if parsedVersion != CodecVersion {
		return Record{}, errRecordWrongVersion
	}

	var entry xdr.LedgerEntry
	if err := xdr.SafeUnmarshal(stored.Entry, &entry); err != nil {
		return Record{}, fmt.Errorf("failed to decode ledger entry: %w", err)
	}
	return Record{
		Key:      key,
		Entry:    entry,
		Lifetime: Lifetime{Bounded: stored.Bounded, LiveUntil: stored.LiveUntil},
	}, nil
}
