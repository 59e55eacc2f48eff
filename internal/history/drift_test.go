package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pgcompare/pgcompare/internal/compare"
	"github.com/pgcompare/pgcompare/internal/model"
)

func testResult(runID string, diffs ...compare.ObjectDiff) *compare.Result {
	return &compare.Result{
		RunID:               runID,
		SourceInstance:      "prod",
		DestinationInstance: "staging",
		SourceSchema:        "public",
		DestinationSchema:   "public",
		Success:             true,
		Differences:         diffs,
		ComparedAt:          time.Now().UTC(),
	}
}

func tableDiff(name string, dt compare.DiffType, sev compare.Severity) compare.ObjectDiff {
	return compare.ObjectDiff{
		ID:       model.ObjectID{Kind: model.KindTable, Name: name},
		Type:     dt,
		Severity: sev,
	}
}

func TestFirstRunHasNoDrift(t *testing.T) {
	store := openTestStore(t)
	recorder := NewRecorder(store)

	rec, drift, err := recorder.Record(context.Background(),
		testResult("run-1", tableDiff("orders", compare.Missing, compare.Info)),
		"tester", "")
	require.NoError(t, err)
	require.NotZero(t, rec.ID)
	require.False(t, drift.HasPrior)
	require.False(t, drift.HasDrift())
}

func TestDriftBetweenRuns(t *testing.T) {
	store := openTestStore(t)
	recorder := NewRecorder(store)
	ctx := context.Background()

	_, _, err := recorder.Record(ctx,
		testResult("run-1", tableDiff("orders", compare.Missing, compare.Info)),
		"tester", "")
	require.NoError(t, err)

	_, drift, err := recorder.Record(ctx,
		testResult("run-2",
			tableDiff("orders", compare.Missing, compare.Info),
			tableDiff("customers", compare.Extra, compare.Breaking)),
		"tester", "")
	require.NoError(t, err)

	require.True(t, drift.HasPrior)
	require.True(t, drift.HasDrift())
	require.Equal(t, 1, drift.ExtraDelta)
	require.Equal(t, 1, drift.BreakingDelta)
	require.Zero(t, drift.MissingDelta)
	require.Equal(t, 2, drift.TotalDrift())
	require.False(t, drift.PriorRunAt.IsZero())
}

func TestIdenticalRunsDoNotDrift(t *testing.T) {
	store := openTestStore(t)
	recorder := NewRecorder(store)
	ctx := context.Background()

	diff := tableDiff("orders", compare.Missing, compare.Info)
	_, _, err := recorder.Record(ctx, testResult("run-1", diff), "tester", "")
	require.NoError(t, err)

	_, drift, err := recorder.Record(ctx, testResult("run-2", diff), "tester", "")
	require.NoError(t, err)
	require.True(t, drift.HasPrior)
	require.False(t, drift.HasDrift())
}

func TestSameCountsDifferentObjectsStillDrift(t *testing.T) {
	store := openTestStore(t)
	recorder := NewRecorder(store)
	ctx := context.Background()

	_, _, err := recorder.Record(ctx,
		testResult("run-1", tableDiff("orders", compare.Missing, compare.Info)), "tester", "")
	require.NoError(t, err)

	// One MISSING table either way, but a different one: the fingerprint
	// catches what the counts cannot.
	_, drift, err := recorder.Record(ctx,
		testResult("run-2", tableDiff("customers", compare.Missing, compare.Info)), "tester", "")
	require.NoError(t, err)
	require.True(t, drift.HasDrift())
	require.True(t, drift.FingerprintChanged)
	require.Zero(t, drift.TotalDrift())
}

func TestDetectDriftDoesNotPersist(t *testing.T) {
	store := openTestStore(t)
	recorder := NewRecorder(store)
	ctx := context.Background()

	_, _, err := recorder.Record(ctx, testResult("run-1"), "tester", "")
	require.NoError(t, err)

	drift, err := recorder.DetectDrift(ctx,
		testResult("probe", tableDiff("orders", compare.Missing, compare.Info)))
	require.NoError(t, err)
	require.True(t, drift.HasDrift())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
