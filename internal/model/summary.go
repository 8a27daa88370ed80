package model

import "time"

// PageStats accumulates per-page pipeline counters.
type PageStats struct {
	Seen     int      `json:"seen"`
	Inserted int      `json:"inserted"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   int      `json:"errors"`
	Warnings []string `json:"warnings,omitempty"`
}

// Merge folds other into s.
func (s *PageStats) Merge(other PageStats) {
	s.Seen += other.Seen
	s.Inserted += other.Inserted
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Errors += other.Errors
	s.Warnings = append(s.Warnings, other.Warnings...)
}

// RunSummary is the operator-visible result of one batch run.
type RunSummary struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Pages      int       `json:"pages"`
	PageStats
}

// Failed reports whether the run must exit non-zero: cards existed on the
// page but none could be written. Zero cards on the page is not a failure,
// and partial per-record failures with at least one success still succeed.
func (s *RunSummary) Failed() bool {
	return s.Seen > 0 && s.Inserted+s.Updated == 0
}
