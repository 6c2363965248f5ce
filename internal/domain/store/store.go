package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/storage"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

const (
	DefaultKey       = "desktop_apps_v5"
	DefaultLegacyKey = "seraphim_apps_v4"

	writeTimeout = 5 * time.Second
)

// Options configures a Store
type Options struct {
	Key       string
	LegacyKey string
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
	// WritePolicy controls when a failing backend stops receiving writes
	WritePolicy resilience.Policy
}

// Store holds the merged application records and persists their dynamic
// subset. It is owned by the event loop and carries no locks.
type Store struct {
	backend   storage.Backend
	key       string
	legacyKey string
	records   map[string]*types.AppRecord
	validate  *validator.Validate
	guard     *resilience.WriteGuard
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// New creates an empty store; call Hydrate to load persisted state
func New(backend storage.Backend, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.LegacyKey == "" {
		opts.LegacyKey = DefaultLegacyKey
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Store{
		backend:   backend,
		key:       opts.Key,
		legacyKey: opts.LegacyKey,
		records:   make(map[string]*types.AppRecord),
		validate:  NewValidator(),
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}

	policy := opts.WritePolicy
	observe := policy.OnStateChange
	policy.OnStateChange = func(from, to resilience.State) {
		switch to {
		case resilience.StateOpen:
			s.logger.Error("Layout writes suspended", zap.String("key", s.key), zap.Stringer("from", from))
		case resilience.StateClosed:
			s.logger.Info("Layout writes resumed", zap.String("key", s.key))
		}
		if observe != nil {
			observe(from, to)
		}
	}
	s.guard = resilience.NewWriteGuard(policy)
	return s
}

// WriteState reports whether durable writes are flowing
func (s *Store) WriteState() resilience.State {
	return s.guard.State()
}

// Hydrate loads persisted state. A missing current key falls back to the
// legacy key, whose contents are migrated, re-saved and then removed.
// Unreadable state resets the store to empty; only backend failures are
// returned.
func (s *Store) Hydrate(ctx context.Context) error {
	data, err := s.backend.Get(ctx, s.key)
	if err == nil {
		l, derr := decodeLayout(data)
		if derr != nil {
			s.logger.Warn("Persisted layout is corrupt, starting empty",
				zap.String("key", s.key), zap.Error(derr))
			s.metrics.RecordHydrate("corrupt")
			s.load(nil)
			return nil
		}
		s.load(l)
		s.metrics.RecordHydrate("current")
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	data, err = s.backend.Get(ctx, s.legacyKey)
	if errors.Is(err, storage.ErrNotFound) {
		s.load(nil)
		s.metrics.RecordHydrate("empty")
		return nil
	}
	if err != nil {
		return err
	}

	l, derr := decodeLegacy(data)
	if derr != nil {
		s.logger.Warn("Legacy layout is corrupt, starting empty",
			zap.String("key", s.legacyKey), zap.Error(derr))
		s.metrics.RecordHydrate("corrupt")
		s.load(nil)
		return nil
	}

	s.load(l)
	s.metrics.RecordHydrate("legacy")
	s.logger.Info("Migrated legacy layout",
		zap.String("from", s.legacyKey),
		zap.String("to", s.key),
		zap.Int("records", len(l)))

	if err := s.Flush(ctx); err != nil {
		// Keep the legacy copy until the migrated one is durable
		return nil
	}
	if err := s.backend.Delete(ctx, s.legacyKey); err != nil {
		s.logger.Warn("Failed to delete legacy layout", zap.Error(err))
	}
	return nil
}

func (s *Store) load(l layout) {
	s.records = make(map[string]*types.AppRecord, len(l))
	for id, p := range l {
		s.records[id] = &types.AppRecord{
			Metadata:       types.Metadata{ID: id},
			IconPosition:   p.IconPosition,
			WindowPosition: p.WindowPosition,
			IsOpen:         p.IsOpen,
			IsMinimized:    p.IsMinimized && p.IsOpen,
			ZIndex:         p.ZIndex,
			Size:           p.Size,
		}
	}
	s.metrics.SetStoreRecords(len(s.records))
}

// SetMetadata merges a code-supplied descriptor into the store. Persisted
// dynamic fields survive; every metadata field is overwritten. Nothing is
// written to durable storage.
func (s *Store) SetMetadata(meta types.Metadata) error {
	if meta.Kind == "" {
		meta.Kind = types.KindWindow
	}
	if err := ValidateMetadata(s.validate, meta); err != nil {
		return err
	}

	rec, ok := s.records[meta.ID]
	if !ok {
		s.records[meta.ID] = &types.AppRecord{Metadata: meta, Declared: true}
		s.metrics.SetStoreRecords(len(s.records))
		return nil
	}

	rec.Metadata = meta
	rec.Declared = true
	return nil
}

// UpdateApp applies a shallow patch and persists immediately.
// Returns false when no record exists for id.
func (s *Store) UpdateApp(id string, patch types.AppPatch) bool {
	rec, ok := s.records[id]
	if !ok {
		return false
	}

	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	if patch.IsOpen != nil {
		rec.IsOpen = *patch.IsOpen
	}
	if patch.IsMinimized != nil {
		rec.IsMinimized = *patch.IsMinimized
	}
	if patch.IconPosition != nil {
		p := *patch.IconPosition
		rec.IconPosition = &p
	}
	if patch.WindowPosition != nil {
		rec.WindowPosition = patch.WindowPosition.Clone()
	}
	if patch.ZIndex != nil {
		rec.ZIndex = *patch.ZIndex
	}
	if patch.Size != nil {
		sz := *patch.Size
		rec.Size = &sz
	}

	s.save()
	return true
}

// SetName changes the display name in memory only; names are owned by
// metadata and are not part of the persisted subset.
func (s *Store) SetName(id, name string) bool {
	rec, ok := s.records[id]
	if !ok {
		return false
	}
	rec.Name = name
	return true
}

// Prune removes every record whose ID is not in valid and persists once
// if anything was removed. Returns the removed IDs in sorted order.
func (s *Store) Prune(valid []string) []string {
	keep := make(map[string]struct{}, len(valid))
	for _, id := range valid {
		keep[id] = struct{}{}
	}

	var removed []string
	for id := range s.records {
		if _, ok := keep[id]; !ok {
			delete(s.records, id)
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return nil
	}

	sort.Strings(removed)
	s.metrics.RecordPruned(len(removed))
	s.metrics.SetStoreRecords(len(s.records))
	s.logger.Info("Pruned undeclared applications", zap.Strings("ids", removed))
	s.save()
	return removed
}

// Record returns the live record for id. Callers on the loop may mutate it
// only through UpdateApp; use Get for a detached copy.
func (s *Store) Record(id string) (*types.AppRecord, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Get returns a copy of the record for id
func (s *Store) Get(id string) (*types.AppRecord, bool) {
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Has reports whether a record exists for id
func (s *Store) Has(id string) bool {
	_, ok := s.records[id]
	return ok
}

// List returns copies of every record sorted by ID
func (s *Store) List() []*types.AppRecord {
	out := make([]*types.AppRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns every record ID in sorted order
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MaxZIndex returns the highest zIndex held by any record
func (s *Store) MaxZIndex() int {
	highest := 0
	for _, rec := range s.records {
		if rec.ZIndex > highest {
			highest = rec.ZIndex
		}
	}
	return highest
}

// Len returns the number of records
func (s *Store) Len() int {
	return len(s.records)
}

// Reset forgets every dynamic field, drops undeclared records and removes
// both keys from durable storage. Metadata of declared records is kept.
func (s *Store) Reset(ctx context.Context) error {
	for id, rec := range s.records {
		if !rec.Declared {
			delete(s.records, id)
			continue
		}
		s.records[id] = &types.AppRecord{Metadata: rec.Metadata, Declared: true}
	}
	s.metrics.SetStoreRecords(len(s.records))

	for _, key := range []string{s.key, s.legacyKey} {
		if err := s.backend.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// Flush persists the current state and reports the outcome
func (s *Store) Flush(ctx context.Context) error {
	l := make(layout, len(s.records))
	for id, rec := range s.records {
		l[id] = rec.Persisted()
	}

	data, err := encodeLayout(l)
	if err != nil {
		s.metrics.RecordStoreSave(string(resilience.Failed))
		return err
	}

	outcome, err := s.guard.Write(func() error {
		return s.backend.Put(ctx, s.key, data)
	})
	s.metrics.RecordStoreSave(string(outcome))
	return err
}

// save persists and logs failures; the in-memory records stay authoritative
func (s *Store) save() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.Flush(ctx); err != nil {
		s.logger.Warn("Failed to persist layout", zap.String("key", s.key), zap.Error(err))
	}
}
