package model

import "testing"

func TestColumnDefinition(t *testing.T) {
	zero := "0"
	cases := []struct {
		name string
		col  Column
		want string
	}{
		{
			"plain nullable",
			Column{DataType: "text", IsNullable: true},
			"text",
		},
		{
			"not null with default",
			Column{DataType: "numeric", DefaultValue: &zero},
			"numeric NOT NULL DEFAULT 0",
		},
		{
			"identity",
			Column{DataType: "bigint", IsIdentity: true, IdentityGeneration: "ALWAYS"},
			"bigint NOT NULL GENERATED ALWAYS AS IDENTITY",
		},
		{
			"generated stored",
			Column{DataType: "numeric", IsNullable: true, IsGenerated: true, GenerationExpr: "price * qty"},
			"numeric GENERATED ALWAYS AS (price * qty) STORED",
		},
	}
	for _, tc := range cases {
		if got := tc.col.Definition(); got != tc.want {
			t.Errorf("%s: Definition() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFunctionSignature(t *testing.T) {
	f := &Function{Name: "total", Arguments: "integer, integer"}
	if got := f.Signature(); got != "total(integer, integer)" {
		t.Errorf("Signature() = %q", got)
	}
	noArgs := &Function{Name: "now_utc"}
	if got := noArgs.Signature(); got != "now_utc()" {
		t.Errorf("Signature() = %q", got)
	}
}

func TestObjectIDString(t *testing.T) {
	top := ObjectID{Kind: KindTable, Name: "orders"}
	if got := top.String(); got != "orders" {
		t.Errorf("String() = %q", got)
	}
	nested := ObjectID{Kind: KindColumn, Table: "orders", Name: "total"}
	if got := nested.String(); got != "orders.total" {
		t.Errorf("String() = %q", got)
	}
}

func TestTableLevelKinds(t *testing.T) {
	for _, k := range AllKinds {
		nested := k.TableLevel()
		switch k {
		case KindColumn, KindPrimaryKey, KindUniqueConstraint, KindCheckConstraint,
			KindForeignKey, KindIndex, KindTrigger:
			if !nested {
				t.Errorf("%s should be table level", k)
			}
		default:
			if nested {
				t.Errorf("%s should be top level", k)
			}
		}
	}
}
