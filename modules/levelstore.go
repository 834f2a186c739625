// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

var _ Store = (*LevelStore)(nil)

// LevelStore keeps modules in a goleveldb directory.
type LevelStore struct {
	db *leveldb.DB
}

func OpenLevelStore(path string) (*LevelStore, error) {
	if path == "" {
		return nil, errors.New("leveldb path is required")
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Put(ctx context.Context, hexHash string, code []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Put([]byte(hexHash), code, nil)
}

func (s *LevelStore) Get(ctx context.Context, hexHash string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := s.db.Get([]byte(hexHash), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return code, err
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
