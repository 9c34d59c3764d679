package services

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"oro/internal/core"
	"oro/internal/events"
	"oro/internal/log"
)

// loadTimeout bounds a shared store read.
const loadTimeout = 7 * time.Second

// Lister is the read side of the record store.
type Lister interface {
	ListAll(ctx context.Context) ([]core.Investment, error)
}

// Snapshot is one loaded copy of the full record set, newest first.
// Records must not be modified.
type Snapshot struct {
	Records []core.Investment
	Version uint64
}

// RecordSet is the shared loader every view reads from. It keeps the last
// loaded snapshot until a change invalidates it, and collapses concurrent
// loads of the same version into one store call.
type RecordSet struct {
	store Lister
	group singleflight.Group

	mu       sync.RWMutex
	snapshot *Snapshot
	version  uint64
}

func NewRecordSet(store Lister) *RecordSet {
	return &RecordSet{store: store, version: 1}
}

// Version is the current record set version. It changes on every
// invalidation.
func (s *RecordSet) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Load returns the current snapshot, reading the store when none is cached.
// Store failures are returned as *core.LoadError. The store read is shared
// by every concurrent caller and is not cancelled with any one of them; ctx
// only bounds how long this caller waits.
func (s *RecordSet) Load(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	snap, version := s.snapshot, s.version
	s.mu.RUnlock()
	if snap != nil {
		return *snap, nil
	}

	ch := s.group.DoChan(strconv.FormatUint(version, 10), func() (any, error) {
		return s.load(context.WithoutCancel(ctx), version)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.Err = &core.LoadError{Err: ctx.Err()}
	}
	if res.Err != nil {
		slog.ErrorContext(ctx, "Failed to load record set",
			log.FieldComponent, log.ComponentQuery,
			log.FieldOperation, log.OpLoad,
			log.FieldError, res.Err)
		return Snapshot{}, res.Err
	}
	return *res.Val.(*Snapshot), nil
}

func (s *RecordSet) load(ctx context.Context, version uint64) (*Snapshot, error) {
	// A flight that started after the previous one finished finds its result.
	s.mu.RLock()
	cached := s.snapshot
	s.mu.RUnlock()
	if cached != nil && cached.Version == version {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, &core.LoadError{Err: err}
	}
	loaded := &Snapshot{Records: records, Version: version}

	s.mu.Lock()
	if s.version == version {
		s.snapshot = loaded
	}
	s.mu.Unlock()

	slog.DebugContext(ctx, "Record set loaded",
		log.FieldComponent, log.ComponentQuery,
		log.FieldRecordCount, len(records),
		log.FieldVersion, version)
	return loaded, nil
}

// Refresh drops the cached snapshot and loads a new one.
func (s *RecordSet) Refresh(ctx context.Context) (Snapshot, error) {
	s.Invalidate()
	return s.Load(ctx)
}

// Invalidate drops the cached snapshot and bumps the version.
func (s *RecordSet) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = nil
	s.version++
}

// OnChange is an events handler that invalidates the set on every change.
func (s *RecordSet) OnChange(ctx context.Context, c events.Change) {
	s.Invalidate()
	slog.DebugContext(ctx, "Record set invalidated",
		log.FieldComponent, log.ComponentQuery,
		"kind", c.Kind,
		log.FieldInvestmentID, c.ID)
}
