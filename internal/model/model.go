// Package model defines the in-memory representation of a schema snapshot:
// every object extracted from one schema on one instance at one instant.
// Snapshots are built once by the extractor and never mutated afterwards,
// so they can be shared freely across concurrent comparisons.
package model

import (
	"fmt"
	"time"
)

// Snapshot holds the full set of extracted objects for one (instance, schema)
// pair. Collections are sorted by name for reproducible diffing.
type Snapshot struct {
	Instance   string            `json:"instance"`
	Schema     string            `json:"schema"`
	Tables     []*Table          `json:"tables"`
	Views      []*View           `json:"views"`
	Functions  []*Function       `json:"functions"`
	Sequences  []*Sequence       `json:"sequences"`
	Types      []*Type           `json:"types"`
	Extensions map[string]string `json:"extensions"` // extension name -> version
	TakenAt    time.Time         `json:"taken_at"`
}

// Table represents one table with its fully populated nested collections.
type Table struct {
	Name              string        `json:"name"`
	Owner             string        `json:"owner,omitempty"`
	Comment           string        `json:"comment,omitempty"`
	IsPartitioned     bool          `json:"is_partitioned,omitempty"`
	PartitionKey      string        `json:"partition_key,omitempty"`
	Columns           []*Column     `json:"columns"`
	PrimaryKey        *Constraint   `json:"primary_key,omitempty"`
	ForeignKeys       []*Constraint `json:"foreign_keys"`
	UniqueConstraints []*Constraint `json:"unique_constraints"`
	CheckConstraints  []*Constraint `json:"check_constraints"`
	Indexes           []*Index      `json:"indexes"`
	Triggers          []*Trigger    `json:"triggers"`
}

// Column represents one table column.
type Column struct {
	Name               string  `json:"name"`
	Position           int     `json:"position"`
	DataType           string  `json:"data_type"`
	IsNullable         bool    `json:"is_nullable"`
	DefaultValue       *string `json:"default_value,omitempty"`
	Comment            string  `json:"comment,omitempty"`
	IsIdentity         bool    `json:"is_identity,omitempty"`
	IdentityGeneration string  `json:"identity_generation,omitempty"` // ALWAYS or BY DEFAULT
	IsGenerated        bool    `json:"is_generated,omitempty"`
	GenerationExpr     string  `json:"generation_expr,omitempty"`
}

// Definition renders the column attributes as they would appear in a CREATE
// TABLE column clause, without the leading column name.
func (c *Column) Definition() string {
	def := c.DataType
	if c.IsGenerated && c.GenerationExpr != "" {
		def += fmt.Sprintf(" GENERATED ALWAYS AS (%s) STORED", c.GenerationExpr)
	}
	if !c.IsNullable {
		def += " NOT NULL"
	}
	if c.DefaultValue != nil {
		def += " DEFAULT " + *c.DefaultValue
	}
	if c.IsIdentity {
		gen := c.IdentityGeneration
		if gen == "" {
			gen = "BY DEFAULT"
		}
		def += fmt.Sprintf(" GENERATED %s AS IDENTITY", gen)
	}
	return def
}

// ConstraintType distinguishes the constraint kinds stored on a table.
type ConstraintType string

const (
	ConstraintPrimaryKey ConstraintType = "PRIMARY KEY"
	ConstraintForeignKey ConstraintType = "FOREIGN KEY"
	ConstraintUnique     ConstraintType = "UNIQUE"
	ConstraintCheck      ConstraintType = "CHECK"
)

// Constraint represents a table constraint of any kind. Columns appear in
// constraint ordinal order.
type Constraint struct {
	Name              string         `json:"name"`
	Table             string         `json:"table"`
	Type              ConstraintType `json:"type"`
	Columns           []string       `json:"columns,omitempty"`
	ReferencedTable   string         `json:"referenced_table,omitempty"`
	ReferencedColumns []string       `json:"referenced_columns,omitempty"`
	DeleteRule        string         `json:"delete_rule,omitempty"`
	UpdateRule        string         `json:"update_rule,omitempty"`
	CheckClause       string         `json:"check_clause,omitempty"` // catalog-rendered text, compared verbatim
	Definition        string         `json:"definition,omitempty"`   // pg_get_constraintdef output
}

// Index represents a secondary index (primary keys are modeled as constraints).
type Index struct {
	Name       string   `json:"name"`
	Table      string   `json:"table"`
	Method     string   `json:"method"`
	IsUnique   bool     `json:"is_unique"`
	Columns    []string `json:"columns"`
	Predicate  string   `json:"predicate,omitempty"` // WHERE clause of a partial index
	Definition string   `json:"definition"`          // pg_get_indexdef output
}

// Trigger represents a table trigger.
type Trigger struct {
	Name       string   `json:"name"`
	Table      string   `json:"table"`
	Timing     string   `json:"timing"` // BEFORE, AFTER, INSTEAD OF
	Events     []string `json:"events"` // INSERT, UPDATE, DELETE, TRUNCATE
	Level      string   `json:"level"`  // ROW or STATEMENT
	Function   string   `json:"function"`
	Definition string   `json:"definition"` // pg_get_triggerdef output
}

// View represents a plain or materialized view.
type View struct {
	Name           string `json:"name"`
	IsMaterialized bool   `json:"is_materialized,omitempty"`
	Definition     string `json:"definition"`
	Comment        string `json:"comment,omitempty"`
}

// Function represents a function or procedure. Identity includes the argument
// list so overloads compare independently.
type Function struct {
	Name              string `json:"name"`
	Arguments         string `json:"arguments"` // ordered argument types, catalog-rendered
	IsProcedure       bool   `json:"is_procedure,omitempty"`
	ReturnType        string `json:"return_type,omitempty"`
	Language          string `json:"language"`
	Definition        string `json:"definition"` // pg_get_functiondef output
	Volatility        string `json:"volatility,omitempty"`
	IsStrict          bool   `json:"is_strict,omitempty"`
	IsSecurityDefiner bool   `json:"is_security_definer,omitempty"`
}

// Signature returns the overload-unique identity of the routine.
func (f *Function) Signature() string {
	return f.Name + "(" + f.Arguments + ")"
}

// Sequence represents a standalone sequence.
type Sequence struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	StartValue int64  `json:"start_value"`
	Increment  int64  `json:"increment"`
	MinValue   *int64 `json:"min_value,omitempty"`
	MaxValue   *int64 `json:"max_value,omitempty"`
	CacheSize  int64  `json:"cache_size,omitempty"`
	Cycle      bool   `json:"cycle,omitempty"`
}

// TypeKind distinguishes user-defined type flavors.
type TypeKind string

const (
	TypeKindEnum      TypeKind = "ENUM"
	TypeKindComposite TypeKind = "COMPOSITE"
	TypeKindDomain    TypeKind = "DOMAIN"
)

// Type represents a user-defined type: enum, composite, or domain.
type Type struct {
	Name       string        `json:"name"`
	Kind       TypeKind      `json:"kind"`
	EnumLabels []string      `json:"enum_labels,omitempty"` // in catalog sort order
	Attributes []*TypeColumn `json:"attributes,omitempty"`  // composite members
	BaseType   string        `json:"base_type,omitempty"`   // domain base
	NotNull    bool          `json:"not_null,omitempty"`
	Default    string        `json:"default,omitempty"`
	CheckExpr  string        `json:"check_expr,omitempty"` // domain CHECK, catalog-rendered
	Comment    string        `json:"comment,omitempty"`
}

// TypeColumn is one member of a composite type.
type TypeColumn struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
	Position int    `json:"position"`
}
