package pgcompare

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgcompare/pgcompare/testutil"
)

func TestClientCompareAndScript(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	ci := testutil.SetupPostgresContainer(ctx, t)
	defer ci.Terminate(ctx, t)

	ci.MustExec(ctx, t,
		`CREATE SCHEMA src`,
		`CREATE SCHEMA dst`,
		`CREATE TABLE src.orders (
			id bigint PRIMARY KEY,
			total numeric NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE dst.orders (
			id bigint PRIMARY KEY
		)`,
		`CREATE INDEX idx_orders_total ON dst.orders (id)`,
	)

	cfg := DatabaseConfig{
		Host:     ci.Host,
		Port:     ci.Port,
		Database: "testdb",
		User:     "testuser",
		Password: "testpass",
		SSLMode:  "disable",
	}
	client := NewClient(map[string]DatabaseConfig{
		"source":      cfg,
		"destination": cfg,
	})
	defer client.Close()

	if err := client.EnableHistory(HistoryOptions{
		Path:     filepath.Join(t.TempDir(), "history.db"),
		Username: "tester",
	}); err != nil {
		t.Fatalf("EnableHistory failed: %v", err)
	}

	result, drift, err := client.Compare(ctx, CompareOptions{
		Source:            "source",
		Destination:       "destination",
		SourceSchema:      "src",
		DestinationSchema: "dst",
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("comparison incomplete: %s", result.ErrorMessage)
	}
	if drift == nil || drift.HasPrior {
		t.Errorf("first run must have no prior: %+v", drift)
	}

	script := client.Script(result, ScriptOptions{IncludeDrops: true})
	sql := script.SQL()
	if !strings.Contains(sql, "ALTER TABLE dst.orders ADD COLUMN total numeric NOT NULL DEFAULT 0") {
		t.Errorf("missing ADD COLUMN statement in script:\n%s", sql)
	}
	if !strings.Contains(sql, "DROP INDEX IF EXISTS dst.idx_orders_total") {
		t.Errorf("missing gated DROP INDEX statement in script:\n%s", sql)
	}
	if errs := client.ValidateScript(script); len(errs) != 0 {
		t.Errorf("generated script failed validation: %v", errs)
	}

	// Second identical run: recorded, no drift.
	_, drift, err = client.Compare(ctx, CompareOptions{
		Source:            "source",
		Destination:       "destination",
		SourceSchema:      "src",
		DestinationSchema: "dst",
	})
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !drift.HasPrior || drift.HasDrift() {
		t.Errorf("identical rerun must not drift: %+v", drift)
	}

	records, err := client.History(ctx, 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 recorded runs, got %d", len(records))
	}
}
