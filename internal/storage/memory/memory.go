package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"oro/internal/core"
	"oro/internal/ports"
)

// DefaultSecurityCode matches the value seeded by the SQLite migration.
const DefaultSecurityCode = "1234"

// Store is an in-process record and settings store for demos and tests.
type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Investment
	code   string
	now    func() time.Time
}

var (
	_ ports.RecordStore   = (*Store)(nil)
	_ ports.SettingsStore = (*Store)(nil)
)

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock returns a store that stamps CreatedAt using now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{nextID: 1, code: DefaultSecurityCode, now: now}
}

// Insert stores the record and assigns ID and CreatedAt.
func (s *Store) Insert(_ context.Context, r core.NewRecord) (core.Investment, error) {
	if err := r.Validate(); err != nil {
		return core.Investment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := core.Investment{
		ID:             s.nextID,
		CreatedAt:      s.now().UTC(),
		Amount:         r.Amount,
		Grams:          r.Grams,
		Category:       r.Category,
		ScreenshotPath: r.ScreenshotPath,
		ReceiptURL:     r.ReceiptURL,
		Notes:          r.Notes,
	}
	s.nextID++
	s.items = append(s.items, inv)
	return inv, nil
}

// ListAll returns a copy of all records, newest first.
func (s *Store) ListAll(_ context.Context) ([]core.Investment, error) {
	s.mu.Lock()
	out := append([]core.Investment(nil), s.items...)
	s.mu.Unlock()

	slices.SortStableFunc(out, func(a, b core.Investment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, nil
		}
	}
	return core.Investment{}, fmt.Errorf("investment %d: %w", id, core.ErrNotFound)
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if it.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("investment %d: %w", id, core.ErrNotFound)
}

func (s *Store) SecurityCode(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code, nil
}

func (s *Store) SetSecurityCode(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = value
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
