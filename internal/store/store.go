// Package store persists settlement records keyed by their natural source
// identifier. Writes are idempotent upserts: repeating a run with identical
// input leaves the stored rows byte-identical.
package store

import (
	"context"

	"github.com/settlewatch/settlewatch/internal/model"
)

// Result is the outcome of upserting a single record.
type Result struct {
	SourceID string
	Inserted bool // false means an existing row was updated
	Err      error
}

// Store is the storage boundary. UpsertBatch never aborts on a single
// record's failure; per-record errors come back in the results and a
// non-nil error is reserved for failures of the batch as a whole.
type Store interface {
	UpsertBatch(ctx context.Context, records []model.Settlement) ([]Result, error)
	Close()
}
