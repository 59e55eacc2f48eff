package extract

import (
	"context"
	"testing"

	"github.com/pgcompare/pgcompare/testutil"
)

func TestSnapshotExtraction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	ci := testutil.SetupPostgresContainer(ctx, t)
	defer ci.Terminate(ctx, t)

	ci.MustExec(ctx, t,
		`CREATE TYPE mood AS ENUM ('sad', 'ok', 'happy')`,
		`CREATE DOMAIN email AS text CHECK (VALUE ~ '@')`,
		`CREATE SEQUENCE visit_seq INCREMENT BY 2`,
		`CREATE TABLE people (
			id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			name text NOT NULL,
			contact email,
			current_mood mood DEFAULT 'ok'
		)`,
		`CREATE UNIQUE INDEX idx_people_name ON people (name)`,
		`CREATE FUNCTION touch() RETURNS trigger LANGUAGE plpgsql AS
			$$ BEGIN RETURN NEW; END $$`,
		`CREATE TRIGGER trg_people_touch BEFORE UPDATE ON people
			FOR EACH ROW EXECUTE FUNCTION touch()`,
		`CREATE MATERIALIZED VIEW people_by_mood AS
			SELECT current_mood, count(*) FROM people GROUP BY current_mood`,
	)

	snap := New(ci.Conn, "public").Snapshot(ctx, "test")

	if snap.Schema != "public" || snap.Instance != "test" {
		t.Errorf("snapshot provenance wrong: %s/%s", snap.Instance, snap.Schema)
	}

	if len(snap.Tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(snap.Tables))
	}
	people := snap.Tables[0]
	if people.Name != "people" {
		t.Fatalf("unexpected table %q", people.Name)
	}
	if len(people.Columns) != 4 {
		t.Errorf("expected 4 columns, got %d", len(people.Columns))
	}
	if people.PrimaryKey == nil {
		t.Error("primary key not extracted")
	}
	if len(people.Indexes) != 1 || !people.Indexes[0].IsUnique {
		t.Errorf("unique index not extracted: %+v", people.Indexes)
	}
	if len(people.Triggers) != 1 {
		t.Fatalf("expected 1 trigger, got %d", len(people.Triggers))
	}
	trg := people.Triggers[0]
	if trg.Timing != "BEFORE" || trg.Level != "ROW" || trg.Function != "touch" {
		t.Errorf("trigger decoded wrong: %+v", trg)
	}

	var enumFound, domainFound bool
	for _, typ := range snap.Types {
		switch typ.Name {
		case "mood":
			enumFound = true
			if len(typ.EnumLabels) != 3 || typ.EnumLabels[0] != "sad" {
				t.Errorf("enum labels wrong: %v", typ.EnumLabels)
			}
		case "email":
			domainFound = true
			if typ.BaseType != "text" || typ.CheckExpr == "" {
				t.Errorf("domain extracted wrong: %+v", typ)
			}
		}
	}
	if !enumFound || !domainFound {
		t.Errorf("types missing: enum=%v domain=%v", enumFound, domainFound)
	}

	var seqFound bool
	for _, s := range snap.Sequences {
		if s.Name == "visit_seq" {
			seqFound = true
			if s.Increment != 2 {
				t.Errorf("sequence increment = %d, want 2", s.Increment)
			}
		}
	}
	if !seqFound {
		t.Error("sequence not extracted")
	}

	var matviewFound bool
	for _, v := range snap.Views {
		if v.Name == "people_by_mood" && v.IsMaterialized {
			matviewFound = true
		}
	}
	if !matviewFound {
		t.Error("materialized view not extracted")
	}

	var fnFound bool
	for _, f := range snap.Functions {
		if f.Name == "touch" && !f.IsProcedure {
			fnFound = true
		}
	}
	if !fnFound {
		t.Error("function not extracted")
	}
}
