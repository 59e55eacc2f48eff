package generate

import (
	"sort"

	"github.com/pgcompare/pgcompare/internal/model"
)

// action buckets a statement for the reordering pass.
type action int

const (
	actionDrop action = iota
	actionCreate
	actionAlter
)

// kindPrecedence is the fixed object-kind ordering for CREATE statements;
// DROP uses the same table in reverse. Every ObjectKind has an entry; there
// is no fallback ordering for unrecognized kinds.
var kindPrecedence = map[model.ObjectKind]int{
	model.KindExtension:        0,
	model.KindType:             1,
	model.KindSequence:         2,
	model.KindTable:            3,
	model.KindColumn:           4,
	model.KindPrimaryKey:       5,
	model.KindUniqueConstraint: 6,
	model.KindCheckConstraint:  7,
	model.KindForeignKey:       8,
	model.KindIndex:            9,
	model.KindView:             10,
	model.KindMaterializedView: 11,
	model.KindFunction:         12,
	model.KindProcedure:        12,
	model.KindTrigger:          13,
}

// reorder arranges statements for safe execution: all DROPs first (dependents
// such as triggers before the tables they reference), then CREATEs in
// dependency precedence, then ALTERs in emission order. Order indices are
// renumbered 0..n-1 to match final list position.
func reorder(statements []Statement) []Statement {
	var drops, creates, alters []Statement
	for _, s := range statements {
		switch s.action {
		case actionDrop:
			drops = append(drops, s)
		case actionCreate:
			creates = append(creates, s)
		default:
			alters = append(alters, s)
		}
	}

	sort.SliceStable(creates, func(i, j int) bool {
		return kindPrecedence[creates[i].Kind] < kindPrecedence[creates[j].Kind]
	})
	sort.SliceStable(drops, func(i, j int) bool {
		return kindPrecedence[drops[i].Kind] > kindPrecedence[drops[j].Kind]
	})

	ordered := make([]Statement, 0, len(statements))
	ordered = append(ordered, drops...)
	ordered = append(ordered, creates...)
	ordered = append(ordered, alters...)
	for i := range ordered {
		ordered[i].Order = i
	}
	return ordered
}
