package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(runID string, comparedAt time.Time) *Record {
	return &Record{
		RunID:               runID,
		SourceInstance:      "prod",
		DestinationInstance: "staging",
		SourceSchema:        "public",
		DestinationSchema:   "public",
		Success:             true,
		MissingCount:        2,
		ExtraCount:          1,
		ModifiedCount:       3,
		BreakingCount:       1,
		Fingerprint:         "abc123",
		Username:            "tester",
		ComparedAt:          comparedAt,
	}
}

func TestSaveAndFindRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Save(ctx, testRecord("run-1", now.Add(-2*time.Hour))))
	require.NoError(t, store.Save(ctx, testRecord("run-2", now.Add(-1*time.Hour))))
	require.NoError(t, store.Save(ctx, testRecord("run-3", now)))

	recs, err := store.FindRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "run-3", recs[0].RunID)
	require.Equal(t, "run-2", recs[1].RunID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)
}

func TestSaveAssignsID(t *testing.T) {
	store := openTestStore(t)
	rec := testRecord("run-1", time.Now())
	require.NoError(t, store.Save(context.Background(), rec))
	require.NotZero(t, rec.ID)
}

func TestFindByInstances(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, testRecord("run-1", now.Add(-time.Hour))))
	other := testRecord("run-2", now)
	other.SourceInstance = "prod"
	other.DestinationInstance = "dr"
	require.NoError(t, store.Save(ctx, other))

	recs, err := store.FindByInstances(ctx, "prod", "staging", 0, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "run-1", recs[0].RunID)

	latest, err := store.FindMostRecent(ctx, "prod", "dr")
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, "run-2", latest.RunID)

	none, err := store.FindMostRecent(ctx, "dr", "prod")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestFindByInstancesDaysWindow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, testRecord("old", now.AddDate(0, 0, -10))))
	require.NoError(t, store.Save(ctx, testRecord("recent", now.AddDate(0, 0, -2))))
	require.NoError(t, store.Save(ctx, testRecord("today", now)))

	recs, err := store.FindByInstances(ctx, "prod", "staging", 7, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, "today", recs[0].RunID)
	require.Equal(t, "recent", recs[1].RunID)

	// No window returns everything.
	recs, err = store.FindByInstances(ctx, "prod", "staging", 0, 10)
	require.NoError(t, err)
	require.Len(t, recs, 3)
}

func TestDeleteOlderThan(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, testRecord("old-1", now.Add(-48*time.Hour))))
	require.NoError(t, store.Save(ctx, testRecord("old-2", now.Add(-25*time.Hour))))
	require.NoError(t, store.Save(ctx, testRecord("new-1", now)))

	removed, err := store.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestRetentionPrune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.Save(ctx, testRecord("old", now.Add(-30*24*time.Hour))))
	require.NoError(t, store.Save(ctx, testRecord("new", now)))

	retention := NewRetention(store, 7*24*time.Hour)
	removed, err := retention.Prune(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	// Zero retention keeps everything.
	keepAll := NewRetention(store, 0)
	removed, err = keepAll.Prune(ctx)
	require.NoError(t, err)
	require.Zero(t, removed)
}
