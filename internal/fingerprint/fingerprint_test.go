package fingerprint

import (
	"testing"
	"time"

	"github.com/pgcompare/pgcompare/internal/compare"
	"github.com/pgcompare/pgcompare/internal/model"
)

func snapshot(instance string, takenAt time.Time) *model.Snapshot {
	return &model.Snapshot{
		Instance: instance,
		Schema:   "public",
		Tables: []*model.Table{{
			Name: "orders",
			Columns: []*model.Column{
				{Name: "id", DataType: "bigint"},
			},
		}},
		Extensions: map[string]string{"pgcrypto": "1.3"},
		TakenAt:    takenAt,
	}
}

func TestSnapshotFingerprintIgnoresProvenance(t *testing.T) {
	a, err := Snapshot(snapshot("prod", time.Now()))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	b, err := Snapshot(snapshot("staging", time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if !Equal(a, b) {
		t.Errorf("structurally identical snapshots must hash identically: %s vs %s", a, b)
	}
}

func TestSnapshotFingerprintSeesStructure(t *testing.T) {
	a, _ := Snapshot(snapshot("prod", time.Now()))

	changed := snapshot("prod", time.Now())
	changed.Tables[0].Columns[0].DataType = "integer"
	b, _ := Snapshot(changed)

	if Equal(a, b) {
		t.Error("structural changes must change the fingerprint")
	}
}

func TestResultFingerprint(t *testing.T) {
	diff := compare.ObjectDiff{
		ID:   model.ObjectID{Kind: model.KindTable, Name: "orders"},
		Type: compare.Missing, Severity: compare.Info,
	}
	a, err := Result(&compare.Result{RunID: "run-1", Differences: []compare.ObjectDiff{diff}})
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	b, err := Result(&compare.Result{RunID: "run-2", Differences: []compare.ObjectDiff{diff}})
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if !Equal(a, b) {
		t.Error("identical difference sets must hash identically across run IDs")
	}

	if len(a.Hash) != 64 {
		t.Errorf("expected a full SHA256 hex digest, got %d chars", len(a.Hash))
	}
	if got := a.String(); len(got) != 8 {
		t.Errorf("String() should preview 8 chars, got %q", got)
	}
}
