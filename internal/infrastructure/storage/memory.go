package storage

import (
	"context"
	"sync"
)

// Memory keeps values in process memory. It also counts writes per key,
// which tests use to assert how often state was persisted.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
	writes map[string]int
	putErr error
}

// NewMemory creates an empty in-memory backend
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string][]byte),
		writes: make(map[string]int),
	}
}

// Get implements Backend
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put implements Backend
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.putErr != nil {
		return m.putErr
	}
	m.values[key] = append([]byte(nil), value...)
	m.writes[key]++
	return nil
}

// Delete implements Backend
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// Close implements Backend
func (m *Memory) Close() error {
	return nil
}

// Writes returns how many times key was written
func (m *Memory) Writes(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[key]
}

// FailPuts makes every subsequent Put return err (nil restores normal behavior)
func (m *Memory) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

// Seed stores a raw value without counting it as a write
func (m *Memory) Seed(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
}
