package compare

import (
	"testing"

	"github.com/pgcompare/pgcompare/internal/model"
)

func strPtr(s string) *string { return &s }

func baseTable() *model.Table {
	return &model.Table{
		Name:  "orders",
		Owner: "app",
		Columns: []*model.Column{
			{Name: "id", DataType: "bigint", IsIdentity: true, IdentityGeneration: "ALWAYS"},
			{Name: "total", DataType: "numeric", DefaultValue: strPtr("0")},
		},
		PrimaryKey: &model.Constraint{
			Name: "orders_pkey", Table: "orders",
			Type: model.ConstraintPrimaryKey, Columns: []string{"id"},
		},
		Indexes: []*model.Index{
			{Name: "idx_orders_total", Table: "orders", Method: "btree", Columns: []string{"total"}},
		},
	}
}

func TestIdenticalTablesProduceNoDiffs(t *testing.T) {
	if diffs := compareTable(baseTable(), baseTable(), IncludeAll()); len(diffs) != 0 {
		t.Errorf("expected no differences, got %d: %+v", len(diffs), diffs)
	}
}

func TestMissingAndExtraColumnsAreSymmetric(t *testing.T) {
	src := baseTable()
	dst := baseTable()
	dst.Columns = dst.Columns[:1] // destination lacks "total"

	diffs := compareColumns(src, dst)
	if len(diffs) != 1 {
		t.Fatalf("expected 1 difference, got %d", len(diffs))
	}
	if diffs[0].Type != Missing || diffs[0].Severity != Info {
		t.Errorf("missing column should be MISSING/INFO, got %s/%s", diffs[0].Type, diffs[0].Severity)
	}

	// Swapping sides flips the classification and hardens the severity.
	diffs = compareColumns(dst, src)
	if len(diffs) != 1 {
		t.Fatalf("expected 1 difference, got %d", len(diffs))
	}
	if diffs[0].Type != Extra || diffs[0].Severity != Breaking {
		t.Errorf("extra column should be EXTRA/BREAKING, got %s/%s", diffs[0].Type, diffs[0].Severity)
	}
}

func TestColumnTypeChangeIsWarning(t *testing.T) {
	src := &model.Column{Name: "total", DataType: "numeric", IsNullable: true}
	dst := &model.Column{Name: "total", DataType: "integer", IsNullable: true}

	attrs, sev := compareColumnAttrs(src, dst)
	if len(attrs) != 1 || attrs[0].Name != "data_type" {
		t.Fatalf("expected one data_type attribute, got %+v", attrs)
	}
	if sev != Warning {
		t.Errorf("data type change should be WARNING, got %s", sev)
	}
}

func TestAddingNotNullIsWarning(t *testing.T) {
	src := &model.Column{Name: "total", DataType: "numeric", IsNullable: false}
	dst := &model.Column{Name: "total", DataType: "numeric", IsNullable: true}

	attrs, sev := compareColumnAttrs(src, dst)
	if len(attrs) != 1 || attrs[0].Name != "nullable" {
		t.Fatalf("expected one nullable attribute, got %+v", attrs)
	}
	if attrs[0].SourceValue != "NOT NULL" || attrs[0].DestinationValue != "NULL" {
		t.Errorf("unexpected values: %+v", attrs[0])
	}
	if sev != Warning {
		t.Errorf("adding NOT NULL should be WARNING, got %s", sev)
	}
}

func TestRemovedDefaultIsFlagged(t *testing.T) {
	src := &model.Column{Name: "status", DataType: "text", IsNullable: true}
	dst := &model.Column{Name: "status", DataType: "text", IsNullable: true, DefaultValue: strPtr("'new'::text")}

	attrs, sev := compareColumnAttrs(src, dst)
	if len(attrs) != 1 || attrs[0].Name != "default" {
		t.Fatalf("expected one default attribute, got %+v", attrs)
	}
	if !attrs[0].Removed {
		t.Error("default removal must set Removed")
	}
	if sev != Warning {
		t.Errorf("default removal should be at least WARNING, got %s", sev)
	}
}

func TestDefaultExpressionsCompareVerbatim(t *testing.T) {
	// Semantically equal but textually distinct expressions still differ.
	src := &model.Column{Name: "n", DataType: "integer", IsNullable: true, DefaultValue: strPtr("0")}
	dst := &model.Column{Name: "n", DataType: "integer", IsNullable: true, DefaultValue: strPtr("(0)")}

	attrs, _ := compareColumnAttrs(src, dst)
	if len(attrs) != 1 || attrs[0].Name != "default" {
		t.Fatalf("expected a verbatim default difference, got %+v", attrs)
	}
}

func TestMissingPrimaryKeyIsWarning(t *testing.T) {
	src := baseTable()
	dst := baseTable()
	dst.PrimaryKey = nil

	diffs := comparePrimaryKeys(src, dst)
	if len(diffs) != 1 {
		t.Fatalf("expected 1 difference, got %d", len(diffs))
	}
	if diffs[0].Type != Missing || diffs[0].Severity != Warning {
		t.Errorf("missing primary key should be MISSING/WARNING, got %s/%s", diffs[0].Type, diffs[0].Severity)
	}

	diffs = comparePrimaryKeys(dst, src)
	if len(diffs) != 1 || diffs[0].Type != Extra || diffs[0].Severity != Breaking {
		t.Errorf("extra primary key should be EXTRA/BREAKING, got %+v", diffs)
	}
}

func TestConstraintDefinitionChangeIsWarning(t *testing.T) {
	src := []*model.Constraint{{
		Name: "orders_fk", Table: "orders", Type: model.ConstraintForeignKey,
		Definition: "FOREIGN KEY (cid) REFERENCES customers(id) ON DELETE CASCADE",
	}}
	dst := []*model.Constraint{{
		Name: "orders_fk", Table: "orders", Type: model.ConstraintForeignKey,
		Definition: "FOREIGN KEY (cid) REFERENCES customers(id)",
	}}

	diffs := compareConstraints("orders", model.KindForeignKey, src, dst)
	if len(diffs) != 1 {
		t.Fatalf("expected 1 difference, got %d", len(diffs))
	}
	if diffs[0].Type != Modified || diffs[0].Severity != Warning {
		t.Errorf("modified constraint should be MODIFIED/WARNING, got %s/%s", diffs[0].Type, diffs[0].Severity)
	}
}

func TestMissingTableEmitsNestedDiffs(t *testing.T) {
	table := baseTable()
	table.ForeignKeys = []*model.Constraint{{
		Name: "orders_customer_fk", Table: "orders", Type: model.ConstraintForeignKey,
	}}
	table.Triggers = []*model.Trigger{{
		Name: "trg_audit", Table: "orders", Timing: "AFTER",
		Events: []string{"INSERT"}, Level: "ROW", Function: "audit",
	}}

	diffs := missingTableDiffs(table, IncludeAll())
	kinds := make(map[model.ObjectKind]int)
	for _, d := range diffs {
		if d.Type != Missing {
			t.Errorf("all nested diffs must be MISSING, got %s for %s", d.Type, d.ObjectName())
		}
		kinds[d.Kind()]++
	}
	if kinds[model.KindTable] != 1 || kinds[model.KindForeignKey] != 1 ||
		kinds[model.KindIndex] != 1 || kinds[model.KindTrigger] != 1 {
		t.Errorf("unexpected nested diff kinds: %v", kinds)
	}
}

func TestNestedDiffsRespectFilterToggles(t *testing.T) {
	table := baseTable()
	f := IncludeAll()
	f.Indexes = false

	for _, d := range missingTableDiffs(table, f) {
		if d.Kind() == model.KindIndex {
			t.Errorf("index diffs must be suppressed when the toggle is off")
		}
	}

	f = IncludeAll()
	f.Columns = false
	dst := baseTable()
	dst.Columns = dst.Columns[:1]
	for _, d := range compareTable(table, dst, f) {
		if d.Kind() == model.KindColumn {
			t.Errorf("column diffs must be suppressed when the toggle is off")
		}
	}
}

func TestIndexPredicateChange(t *testing.T) {
	src := &model.Index{Name: "idx", Table: "orders", Method: "btree", Columns: []string{"total"}}
	dst := &model.Index{Name: "idx", Table: "orders", Method: "btree", Columns: []string{"total"},
		Predicate: "(total > 0)"}

	attrs := compareIndexAttrs(src, dst)
	found := false
	for _, a := range attrs {
		if a.Name == "predicate" && a.Removed {
			found = true
		}
	}
	if !found {
		t.Errorf("predicate removal must be reported with Removed, got %+v", attrs)
	}
}

func TestTriggerTimingChange(t *testing.T) {
	src := &model.Trigger{Name: "trg", Table: "orders", Timing: "BEFORE", Events: []string{"INSERT"}, Level: "ROW", Function: "f"}
	dst := &model.Trigger{Name: "trg", Table: "orders", Timing: "AFTER", Events: []string{"INSERT"}, Level: "ROW", Function: "f"}

	attrs := compareTriggerAttrs(src, dst)
	if len(attrs) != 1 || attrs[0].Name != "timing" {
		t.Fatalf("expected one timing attribute, got %+v", attrs)
	}
}
