// (c) 2021, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"context"
	"errors"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/database/prefixdb"
)

const (
	moduleCacheSize = 64
)

var (
	modulePrefix = []byte("module")

	_ Store = &dbStore{}
)

// dbStore keeps modules in an avalanchego database behind an LRU.
type dbStore struct {
	moduleCache cache.Cacher
	moduleDB    database.Database
}

// NewMemStore returns an in-memory Store.
func NewMemStore() Store {
	return NewDatabaseStore(memdb.New())
}

// NewDatabaseStore returns a Store over a partition of [db].
func NewDatabaseStore(db database.Database) Store {
	return &dbStore{
		moduleCache: &cache.LRU{Size: moduleCacheSize},
		moduleDB:    prefixdb.New(modulePrefix, db),
	}
}

func (s *dbStore) Put(ctx context.Context, hexHash string, code []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.moduleDB.Put([]byte(hexHash), code); err != nil {
		return err
	}
	s.moduleCache.Put(hexHash, code)
	return nil
}

func (s *dbStore) Get(ctx context.Context, hexHash string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if code, ok := s.moduleCache.Get(hexHash); ok {
		return code.([]byte), nil
	}

	code, err := s.moduleDB.Get([]byte(hexHash))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.moduleCache.Put(hexHash, code)
	return code, nil
}

func (s *dbStore) Close() error {
	s.moduleCache.Flush()
	return s.moduleDB.Close()
}
