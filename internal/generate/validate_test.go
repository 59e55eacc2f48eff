package generate

import (
	"testing"

	"github.com/pgcompare/pgcompare/internal/compare"
	"github.com/pgcompare/pgcompare/internal/model"
)

func TestValidateScriptAcceptsGeneratedStatements(t *testing.T) {
	defaultZero := "0"
	result := resultWith(
		compare.ObjectDiff{
			ID:   model.ObjectID{Kind: model.KindColumn, Table: "orders", Name: "total"},
			Type: compare.Missing, Severity: compare.Info,
			SourceObject: &model.Column{Name: "total", DataType: "numeric", DefaultValue: &defaultZero},
		},
		compare.ObjectDiff{
			ID:   model.ObjectID{Kind: model.KindTable, Name: "customers"},
			Type: compare.Missing, Severity: compare.Info,
			SourceObject: &model.Table{Name: "customers", Columns: []*model.Column{
				{Name: "id", DataType: "bigint"},
				{Name: "email", DataType: "text", IsNullable: true},
			}},
		},
		compare.ObjectDiff{
			ID:   model.ObjectID{Kind: model.KindIndex, Table: "orders", Name: "idx_stale"},
			Type: compare.Extra, Severity: compare.Breaking,
		},
	)

	script := MigrationScript(result, Options{IncludeDrops: true})
	if errs := ValidateScript(script); len(errs) != 0 {
		for _, err := range errs {
			t.Errorf("generated statement failed to parse: %v", err)
		}
	}
}

func TestValidateScriptSkipsPlaceholders(t *testing.T) {
	script := &Script{Statements: []Statement{
		{DDL: "-- view reports exists in source but no definition was captured; recreate manually"},
	}}
	if errs := ValidateScript(script); len(errs) != 0 {
		t.Errorf("placeholders must not be validated: %v", errs)
	}
}

func TestValidateScriptReportsBrokenStatements(t *testing.T) {
	script := &Script{Statements: []Statement{
		{DDL: "ALTER TABLE public.orders ADD COLUMN", Kind: model.KindColumn, ObjectName: "orders.x"},
	}}
	errs := ValidateScript(script)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
}

func TestValidateSQL(t *testing.T) {
	if err := ValidateSQL("CREATE TABLE public.t (id bigint)"); err != nil {
		t.Errorf("valid SQL rejected: %v", err)
	}
	if err := ValidateSQL(""); err != nil {
		t.Errorf("empty input must validate: %v", err)
	}
	if err := ValidateSQL("CREATE TABEL nope"); err == nil {
		t.Error("invalid SQL must be rejected")
	}
}
