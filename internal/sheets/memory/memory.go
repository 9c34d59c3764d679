package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"oro/internal/core"
	"oro/internal/sheets"
)

// Mirror keeps mirrored rows in process, in insertion order.
type Mirror struct {
	mu   sync.Mutex
	rows []core.Investment
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

func (m *Mirror) Upsert(_ context.Context, inv core.Investment) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(inv.ID); i >= 0 {
		m.rows[i] = inv
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	m.rows = append(m.rows, inv)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(id); i >= 0 {
		m.rows = slices.Delete(m.rows, i, i+1)
	}
	return nil
}

func (m *Mirror) ListIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, len(m.rows))
	for i, r := range m.rows {
		ids[i] = r.ID
	}
	return ids, nil
}

// Row returns the mirrored copy of id.
func (m *Mirror) Row(id int64) (core.Investment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(id); i >= 0 {
		return m.rows[i], true
	}
	return core.Investment{}, false
}

func (m *Mirror) index(id int64) int {
	return slices.IndexFunc(m.rows, func(r core.Investment) bool { return r.ID == id })
}
