// (c) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const createModulesTable = `CREATE TABLE IF NOT EXISTS modules (
	hash TEXT PRIMARY KEY,
	code BLOB NOT NULL
)`

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps modules in a single SQLite table.
type SQLiteStore struct {
	sqlDB *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(createModulesTable); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create modules table: %w", err)
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, hexHash string, code []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO modules (hash, code) VALUES (?, ?)
		 ON CONFLICT(hash) DO UPDATE SET code = excluded.code`,
		hexHash,
		code,
	)
	if err != nil {
		return fmt.Errorf("put module: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, hexHash string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var code []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT code FROM modules WHERE hash = ?`, hexHash).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	return code, nil
}

// Close closes the SQLite handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
