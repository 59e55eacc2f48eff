package model

// ObjectKind is the closed set of schema object kinds this tool understands.
// Every switch over ObjectKind must handle all variants; the generator's
// precedence table is checked for exhaustiveness in tests.
type ObjectKind string

const (
	KindExtension        ObjectKind = "EXTENSION"
	KindType             ObjectKind = "TYPE"
	KindSequence         ObjectKind = "SEQUENCE"
	KindTable            ObjectKind = "TABLE"
	KindColumn           ObjectKind = "COLUMN"
	KindPrimaryKey       ObjectKind = "PRIMARY KEY"
	KindUniqueConstraint ObjectKind = "UNIQUE CONSTRAINT"
	KindCheckConstraint  ObjectKind = "CHECK CONSTRAINT"
	KindForeignKey       ObjectKind = "FOREIGN KEY"
	KindIndex            ObjectKind = "INDEX"
	KindView             ObjectKind = "VIEW"
	KindMaterializedView ObjectKind = "MATERIALIZED VIEW"
	KindFunction         ObjectKind = "FUNCTION"
	KindProcedure        ObjectKind = "PROCEDURE"
	KindTrigger          ObjectKind = "TRIGGER"
)

// AllKinds lists every ObjectKind. Tests use it to verify exhaustive handling.
var AllKinds = []ObjectKind{
	KindExtension,
	KindType,
	KindSequence,
	KindTable,
	KindColumn,
	KindPrimaryKey,
	KindUniqueConstraint,
	KindCheckConstraint,
	KindForeignKey,
	KindIndex,
	KindView,
	KindMaterializedView,
	KindFunction,
	KindProcedure,
	KindTrigger,
}

// ObjectID identifies one object structurally instead of through a
// delimiter-joined string, so names containing "." stay unambiguous.
// Table is empty for top-level objects; Name is the object's own name,
// or the routine signature for functions and procedures.
type ObjectID struct {
	Kind  ObjectKind `json:"kind"`
	Table string     `json:"table,omitempty"`
	Name  string     `json:"name"`
}

// String renders the ID for display. Not an identity key; equality on the
// struct itself is the identity relation.
func (id ObjectID) String() string {
	if id.Table != "" {
		return id.Table + "." + id.Name
	}
	return id.Name
}

// TableLevel reports whether the kind lives inside a table.
func (k ObjectKind) TableLevel() bool {
	switch k {
	case KindColumn, KindPrimaryKey, KindUniqueConstraint, KindCheckConstraint,
		KindForeignKey, KindIndex, KindTrigger:
		return true
	case KindExtension, KindType, KindSequence, KindTable, KindView,
		KindMaterializedView, KindFunction, KindProcedure:
		return false
	}
	return false
}
