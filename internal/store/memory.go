package store

import (
	"context"
	"sort"
	"sync"

	"github.com/settlewatch/settlewatch/internal/model"
)

// Memory is an in-process Store used by --dry-run and tests. Same upsert
// semantics as Postgres: insert on an unseen source ID, overwrite otherwise.
type Memory struct {
	mu   sync.Mutex
	rows map[string]model.Settlement
}

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]model.Settlement)}
}

// UpsertBatch applies the records in order.
func (m *Memory) UpsertBatch(ctx context.Context, records []model.Settlement) ([]Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		_, exists := m.rows[rec.SourceID]
		m.rows[rec.SourceID] = rec
		results = append(results, Result{SourceID: rec.SourceID, Inserted: !exists})
	}
	return results, nil
}

// Get returns the stored record for a source ID.
func (m *Memory) Get(sourceID string) (model.Settlement, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[sourceID]
	return rec, ok
}

// All returns every row sorted by ascending days left, records without a
// days-left value last, matching how consumers read the table.
func (m *Memory) All() []model.Settlement {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Settlement, 0, len(m.rows))
	for _, rec := range m.rows {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DaysLeft, out[j].DaysLeft
		switch {
		case di == nil && dj == nil:
			return out[i].SourceID < out[j].SourceID
		case di == nil:
			return false
		case dj == nil:
			return true
		case *di != *dj:
			return *di < *dj
		default:
			return out[i].SourceID < out[j].SourceID
		}
	})
	return out
}

// Len reports the number of stored rows.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Close is a no-op.
func (m *Memory) Close() {}
