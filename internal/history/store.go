// Package history persists comparison run summaries and detects drift
// between consecutive runs of the same instance pair. Only summary counts
// and a result fingerprint are stored; full difference sets are not
// persisted and must be recomputed by a fresh comparison.
package history

import (
	"context"
	"time"
)

// Record is one persisted comparison run summary.
type Record struct {
	ID                  int64     `json:"id"`
	RunID               string    `json:"run_id"`
	SourceInstance      string    `json:"source_instance"`
	DestinationInstance string    `json:"destination_instance"`
	SourceSchema        string    `json:"source_schema"`
	DestinationSchema   string    `json:"destination_schema"`
	Success             bool      `json:"success"`
	ErrorMessage        string    `json:"error_message,omitempty"`
	MissingCount        int       `json:"missing_count"`
	ExtraCount          int       `json:"extra_count"`
	ModifiedCount       int       `json:"modified_count"`
	BreakingCount       int       `json:"breaking_count"`
	Fingerprint         string    `json:"fingerprint"`
	Profile             string    `json:"profile,omitempty"`
	Username            string    `json:"username,omitempty"`
	ComparedAt          time.Time `json:"compared_at"`
}

// TotalCount is the sum of all difference counts.
func (r *Record) TotalCount() int {
	return r.MissingCount + r.ExtraCount + r.ModifiedCount
}

// Store is the persistence boundary for run history.
type Store interface {
	// Save persists a record and fills in its assigned ID.
	Save(ctx context.Context, rec *Record) error
	// FindRecent returns up to limit records, newest first.
	FindRecent(ctx context.Context, limit int) ([]*Record, error)
	// FindByInstances returns up to limit records for one instance pair,
	// newest first, restricted to runs from the last days days. A days of
	// zero or less means no recency window.
	FindByInstances(ctx context.Context, source, destination string, days, limit int) ([]*Record, error)
	// FindMostRecent returns the latest record for an instance pair, or nil
	// when the pair has never been compared.
	FindMostRecent(ctx context.Context, source, destination string) (*Record, error)
	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)
	// DeleteOlderThan removes records compared before the cutoff and returns
	// how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}
