package history

import (
	"context"
	"fmt"
	"time"

	"github.com/pgcompare/pgcompare/internal/compare"
	"github.com/pgcompare/pgcompare/internal/fingerprint"
	"github.com/pgcompare/pgcompare/internal/logger"
)

// DriftSummary describes how the latest run differs from the previous run of
// the same source/destination instance pair.
type DriftSummary struct {
	MissingDelta  int       `json:"missing_delta"`
	ExtraDelta    int       `json:"extra_delta"`
	ModifiedDelta int       `json:"modified_delta"`
	BreakingDelta int       `json:"breaking_delta"`
	// FingerprintChanged is true when the difference sets are not identical,
	// which can hold even when every count delta is zero.
	FingerprintChanged bool      `json:"fingerprint_changed"`
	HasPrior           bool      `json:"has_prior"`
	PriorRunAt         time.Time `json:"prior_run_at,omitempty"`
}

// HasDrift reports whether anything changed since the prior run. A first run
// for a pair never drifts.
func (d *DriftSummary) HasDrift() bool {
	return d.HasPrior && (d.FingerprintChanged ||
		d.MissingDelta != 0 || d.ExtraDelta != 0 || d.ModifiedDelta != 0 || d.BreakingDelta != 0)
}

// TotalDrift is the sum of absolute count deltas.
func (d *DriftSummary) TotalDrift() int {
	return abs(d.MissingDelta) + abs(d.ExtraDelta) + abs(d.ModifiedDelta) + abs(d.BreakingDelta)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Recorder persists comparison outcomes and reports drift against the most
// recent prior run of the same instance pair.
type Recorder struct {
	store Store
}

// NewRecorder wraps a store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record converts a comparison result into a summary record, computes drift
// against the pair's most recent prior run, and persists the new record.
// The prior run is looked up before saving so the run being recorded never
// compares against itself.
func (r *Recorder) Record(ctx context.Context, result *compare.Result, username, profile string) (*Record, *DriftSummary, error) {
	fp, err := fingerprint.Result(result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fingerprint result: %w", err)
	}

	missing, extra, modified := result.Counts()
	breaking := 0
	for i := range result.Differences {
		if result.Differences[i].Severity == compare.Breaking {
			breaking++
		}
	}

	rec := &Record{
		RunID:               result.RunID,
		SourceInstance:      result.SourceInstance,
		DestinationInstance: result.DestinationInstance,
		SourceSchema:        result.SourceSchema,
		DestinationSchema:   result.DestinationSchema,
		Success:             result.Success,
		ErrorMessage:        result.ErrorMessage,
		MissingCount:        missing,
		ExtraCount:          extra,
		ModifiedCount:       modified,
		BreakingCount:       breaking,
		Fingerprint:         fp.Hash,
		Profile:             profile,
		Username:            username,
		ComparedAt:          result.ComparedAt,
	}

	prior, err := r.store.FindMostRecent(ctx, rec.SourceInstance, rec.DestinationInstance)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up prior run: %w", err)
	}
	drift := diffRecords(prior, rec)

	if err := r.store.Save(ctx, rec); err != nil {
		return nil, nil, err
	}
	if drift.HasDrift() {
		logger.Get().Info("schema drift detected",
			"source", rec.SourceInstance,
			"destination", rec.DestinationInstance,
			"total_drift", drift.TotalDrift(),
			"prior_run_at", drift.PriorRunAt)
	}
	return rec, drift, nil
}

// DetectDrift compares a fresh result against the stored prior run without
// persisting anything.
func (r *Recorder) DetectDrift(ctx context.Context, result *compare.Result) (*DriftSummary, error) {
	fp, err := fingerprint.Result(result)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint result: %w", err)
	}
	missing, extra, modified := result.Counts()
	breaking := 0
	for i := range result.Differences {
		if result.Differences[i].Severity == compare.Breaking {
			breaking++
		}
	}
	current := &Record{
		MissingCount:  missing,
		ExtraCount:    extra,
		ModifiedCount: modified,
		BreakingCount: breaking,
		Fingerprint:   fp.Hash,
	}

	prior, err := r.store.FindMostRecent(ctx, result.SourceInstance, result.DestinationInstance)
	if err != nil {
		return nil, fmt.Errorf("failed to look up prior run: %w", err)
	}
	return diffRecords(prior, current), nil
}

func diffRecords(prior, current *Record) *DriftSummary {
	if prior == nil {
		return &DriftSummary{}
	}
	return &DriftSummary{
		MissingDelta:       current.MissingCount - prior.MissingCount,
		ExtraDelta:         current.ExtraCount - prior.ExtraCount,
		ModifiedDelta:      current.ModifiedCount - prior.ModifiedCount,
		BreakingDelta:      current.BreakingCount - prior.BreakingCount,
		FingerprintChanged: current.Fingerprint != prior.Fingerprint,
		HasPrior:           true,
		PriorRunAt:         prior.ComparedAt,
	}
}
