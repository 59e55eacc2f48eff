package compare

import (
	"context"
	"strings"
	"testing"

	"github.com/pgcompare/pgcompare/internal/connect"
	"github.com/pgcompare/pgcompare/internal/model"
	"github.com/pgcompare/pgcompare/testutil"
)

// setupDivergentSchemas provisions one container with two schemas that differ
// in known ways, standing in for two instances.
func setupDivergentSchemas(ctx context.Context, t *testing.T) *testutil.ContainerInfo {
	ci := testutil.SetupPostgresContainer(ctx, t)

	ci.MustExec(ctx, t,
		`CREATE SCHEMA src`,
		`CREATE SCHEMA dst`,

		`CREATE TYPE src.status AS ENUM ('A', 'B', 'C')`,
		`CREATE TYPE dst.status AS ENUM ('A', 'C')`,

		`CREATE TABLE src.orders (
			id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			total numeric NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE dst.orders (
			id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY
		)`,
		`CREATE INDEX idx_orders_id_desc ON dst.orders (id DESC)`,

		`CREATE SEQUENCE src.order_seq INCREMENT BY 5`,

		`CREATE VIEW src.order_totals AS SELECT id, total FROM src.orders`,

		`CREATE FUNCTION src.double_total(v numeric) RETURNS numeric
			LANGUAGE sql IMMUTABLE AS $$ SELECT v * 2 $$`,
	)
	return ci
}

func findDiff(diffs []ObjectDiff, kind model.ObjectKind, name string) *ObjectDiff {
	for i := range diffs {
		if diffs[i].Kind() == kind && diffs[i].ObjectName() == name {
			return &diffs[i]
		}
	}
	return nil
}

func TestCompareEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	ci := setupDivergentSchemas(ctx, t)
	defer ci.Terminate(ctx, t)

	engine := NewEngine(connect.DBProvider{"db": ci.Conn})
	result := engine.Compare(ctx, "db", "db", "src", "dst", nil)

	if !result.Success {
		t.Fatalf("comparison failed: %s", result.ErrorMessage)
	}
	if result.RunID == "" {
		t.Error("result must carry a run ID")
	}

	// Column present only in src.
	col := findDiff(result.Differences, model.KindColumn, "orders.total")
	if col == nil {
		t.Fatal("expected a MISSING diff for orders.total")
	}
	if col.Type != Missing || col.Severity != Info {
		t.Errorf("orders.total should be MISSING/INFO, got %s/%s", col.Type, col.Severity)
	}

	// Index present only in dst.
	idx := findDiff(result.Differences, model.KindIndex, "orders.idx_orders_id_desc")
	if idx == nil {
		t.Fatal("expected an EXTRA diff for idx_orders_id_desc")
	}
	if idx.Type != Extra || idx.Severity != Breaking {
		t.Errorf("extra index should be EXTRA/BREAKING, got %s/%s", idx.Type, idx.Severity)
	}

	// Enum label missing in dst.
	enum := findDiff(result.Differences, model.KindType, "status")
	if enum == nil {
		t.Fatal("expected a MODIFIED diff for type status")
	}
	if enum.Type != Modified {
		t.Errorf("status should be MODIFIED, got %s", enum.Type)
	}
	if len(enum.Attributes) == 0 || enum.Attributes[0].Name != "enum_labels" {
		t.Errorf("expected an enum_labels attribute, got %+v", enum.Attributes)
	}

	// Objects that exist only in src.
	for kind, name := range map[model.ObjectKind]string{
		model.KindSequence: "order_seq",
		model.KindView:     "order_totals",
	} {
		d := findDiff(result.Differences, kind, name)
		if d == nil || d.Type != Missing {
			t.Errorf("expected MISSING %s %s, got %+v", kind, name, d)
		}
	}
	fn := findDiff(result.Differences, model.KindFunction, "double_total(v numeric)")
	if fn == nil {
		// Signature rendering varies across server versions; fall back to a scan.
		for i := range result.Differences {
			if result.Differences[i].Kind() == model.KindFunction &&
				strings.HasPrefix(result.Differences[i].ObjectName(), "double_total(") {
				fn = &result.Differences[i]
			}
		}
	}
	if fn == nil || fn.Type != Missing {
		t.Errorf("expected MISSING function double_total, got %+v", fn)
	}
}

func TestCompareIdenticalSchemas(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	ci := setupDivergentSchemas(ctx, t)
	defer ci.Terminate(ctx, t)

	engine := NewEngine(connect.DBProvider{"db": ci.Conn})
	result := engine.Compare(ctx, "db", "db", "src", "src", nil)

	if !result.Success {
		t.Fatalf("comparison failed: %s", result.ErrorMessage)
	}
	if len(result.Differences) != 0 {
		for _, d := range result.Differences {
			t.Logf("unexpected diff: %s %s %s", d.Type, d.Kind(), d.ObjectName())
		}
		t.Errorf("identical schemas must produce zero differences, got %d", len(result.Differences))
	}
}

func TestCompareUnknownInstanceReturnsPartialResult(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	ci := setupDivergentSchemas(ctx, t)
	defer ci.Terminate(ctx, t)

	engine := NewEngine(connect.DBProvider{"db": ci.Conn})
	result := engine.Compare(ctx, "db", "missing", "src", "dst", nil)

	if result.Success {
		t.Error("comparison against an unregistered instance must not succeed")
	}
	if result.ErrorMessage == "" {
		t.Error("a failed run must carry an error message")
	}
	if result.Differences == nil {
		t.Error("partial results must keep the collected differences slice")
	}
}

func TestFilterRestrictsCategories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	ci := setupDivergentSchemas(ctx, t)
	defer ci.Terminate(ctx, t)

	f := IncludeAll()
	f.Types = false
	f.Sequences = false
	f.Views = false
	f.Functions = false

	engine := NewEngine(connect.DBProvider{"db": ci.Conn})
	result := engine.Compare(ctx, "db", "db", "src", "dst", f)

	for _, d := range result.Differences {
		switch d.Kind() {
		case model.KindType, model.KindSequence, model.KindView, model.KindFunction:
			t.Errorf("filtered category leaked: %s %s", d.Kind(), d.ObjectName())
		}
	}
}
