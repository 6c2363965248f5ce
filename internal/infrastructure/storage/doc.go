// Package storage provides durable key-value backends for the persisted
// desktop layout.
//
// Backends:
//   - Memory: process-local; counts writes (used by tests)
//   - File: one file per key, atomic rename, optional zstd compression
//   - SQLite: single "layout" table via sqlx + go-sqlite3
//
// Values are opaque bytes; the store package owns the encoding.
package storage
