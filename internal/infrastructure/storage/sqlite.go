package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores layout values in a single-table sqlite database
type SQLite struct {
	db *sqlx.DB
}

type layoutRow struct {
	Value   []byte `db:"value"`
	Updated int64  `db:"updated"`
}

// NewSQLite opens (and if needed creates) the database at path
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite backend requires a path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("create table if not exists layout ( key text not null primary key, value blob not null, updated integer not null )"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create layout table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get implements Backend
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var row layoutRow
	err := s.db.GetContext(ctx, &row, "select value, updated from layout where key=?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return row.Value, nil
}

// Put implements Backend
func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, "replace into layout ( key, value, updated ) values ( ?, ?, ? )", key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete implements Backend
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "delete from layout where key=?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close implements Backend
func (s *SQLite) Close() error {
	return s.db.Close()
}
