package model

import "fmt"

// NetworkError means a page fetch failed after retries (timeout, transport
// failure, or a non-2xx status). A run that cannot fetch its listings page
// aborts with this error.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError means a single card could not be extracted. It is recovered
// locally: the card is skipped and the run continues.
type ParseError struct {
	Card   string // slug or a short identifying snippet, may be empty
	Reason string
}

func (e *ParseError) Error() string {
	if e.Card == "" {
		return "parse card: " + e.Reason
	}
	return fmt.Sprintf("parse card %q: %s", e.Card, e.Reason)
}

// ValidationError means a field parsed but violated an invariant. The field
// is clamped or dropped; the record itself survives unless the natural key
// is the invalid field.
type ValidationError struct {
	SourceID string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s.%s: %s", e.SourceID, e.Field, e.Reason)
}

// PersistenceError means the storage write failed for one record. The batch
// continues; the run aborts only when the batch error rate crosses the
// configured threshold.
type PersistenceError struct {
	SourceID string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("upsert %s: %v", e.SourceID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
