package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Get when the key has never been written
	ErrNotFound = errors.New("storage: key not found")
	// ErrInvalidKey is returned for keys that cannot be mapped safely
	ErrInvalidKey = errors.New("storage: invalid key")
)

// Backend is a durable key-value store for serialized layout state
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options configures Open
type Options struct {
	Backend  string // memory, file, sqlite
	Path     string
	Compress bool
}

// Open constructs the backend named by opts.Backend
func Open(opts Options) (Backend, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(opts.Path, opts.Compress)
	case "sqlite":
		return NewSQLite(opts.Path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
