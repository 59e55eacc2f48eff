// Package generate turns a comparison result into an ordered, executable
// migration script. Generation is a pure function: no I/O, no clock, and the
// same input always produces the same output. Nothing here executes DDL; the
// wrap option is a hint passed through for an external executor to honor.
package generate

import (
	"fmt"
	"strings"

	"github.com/pgcompare/pgcompare/internal/compare"
	"github.com/pgcompare/pgcompare/internal/model"
)

// WrapMode hints how an executor should wrap the script.
type WrapMode string

const (
	WrapTransaction WrapMode = "transaction" // one transaction around the whole script
	WrapStatement   WrapMode = "statement"   // one transaction per statement
	WrapNone        WrapMode = "none"
)

// Options configures script generation.
type Options struct {
	Wrap WrapMode
	// IncludeDrops gates DROP statements for EXTRA objects. When false the
	// difference is still reported by the comparison but no statement is
	// generated for it.
	IncludeDrops bool
}

// Statement is one generated DDL statement with its placement metadata.
type Statement struct {
	DDL        string           `json:"ddl"`
	Kind       model.ObjectKind `json:"kind"`
	ObjectName string           `json:"object_name"`
	Severity   compare.Severity `json:"severity"`
	Warning    string           `json:"warning,omitempty"`
	Order      int              `json:"order"`

	action action
}

// Script is the ordered migration script reconciling destination toward
// source. After reordering, Order indices are contiguous, zero-based and
// match list position.
type Script struct {
	Wrap       WrapMode    `json:"wrap"`
	Statements []Statement `json:"statements"`
}

// SQL renders the script as executable text, one statement per paragraph.
// Placeholder comments are emitted as-is without a terminator.
func (s *Script) SQL() string {
	out := ""
	for i, st := range s.Statements {
		if i > 0 {
			out += "\n\n"
		}
		out += st.DDL
		if !isPlaceholder(st.DDL) {
			out += ";"
		}
	}
	return out
}

func isPlaceholder(ddl string) bool {
	return len(ddl) >= 2 && ddl[:2] == "--"
}

const dataLossWarning = "destructive operation: may cause irreversible data loss"

// MigrationScript synthesizes one statement set per difference, then reorders
// them into DROP / CREATE / ALTER phases with fixed object-kind precedence.
func MigrationScript(result *compare.Result, opts Options) *Script {
	if opts.Wrap == "" {
		opts.Wrap = WrapTransaction
	}
	schema := result.DestinationSchema

	var statements []Statement
	for i := range result.Differences {
		d := &result.Differences[i]
		switch d.Type {
		case compare.Missing:
			statements = append(statements, createStatements(schema, d)...)
		case compare.Extra:
			if !opts.IncludeDrops {
				continue
			}
			statements = append(statements, Statement{
				DDL:        dropStatement(schema, d.Kind(), d.ID),
				Kind:       d.Kind(),
				ObjectName: d.ObjectName(),
				Severity:   compare.Breaking,
				Warning:    dataLossWarning,
				action:     actionDrop,
			})
		case compare.Modified:
			statements = append(statements, alterStatements(schema, d)...)
		}
	}

	return &Script{Wrap: opts.Wrap, Statements: reorder(statements)}
}

// createStatements synthesizes the CREATE-equivalent for a MISSING object,
// preferring full structural reconstruction from the captured model, then the
// catalog-rendered definition text, and finally a placeholder comment so that
// generation never blocks on missing detail.
func createStatements(schema string, d *compare.ObjectDiff) []Statement {
	stmt := Statement{
		Kind:       d.Kind(),
		ObjectName: d.ObjectName(),
		Severity:   d.Severity,
		action:     actionCreate,
	}

	switch d.Kind() {
	case model.KindExtension:
		stmt.DDL = fmt.Sprintf("CREATE EXTENSION IF NOT EXISTS %s", quoteIdent(d.ID.Name))
	case model.KindType:
		if t, ok := d.SourceObject.(*model.Type); ok {
			stmt.DDL = buildCreateType(schema, t)
		}
	case model.KindSequence:
		if s, ok := d.SourceObject.(*model.Sequence); ok {
			stmt.DDL = buildCreateSequence(schema, s)
		}
	case model.KindTable:
		if t, ok := d.SourceObject.(*model.Table); ok {
			stmt.DDL = buildCreateTable(schema, t)
		}
	case model.KindColumn:
		if def := columnDefinition(d); def != "" {
			stmt.DDL = fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				qualify(schema, d.ID.Table), quoteIdent(d.ID.Name), def)
		}
	case model.KindPrimaryKey, model.KindUniqueConstraint, model.KindCheckConstraint, model.KindForeignKey:
		if c, ok := d.SourceObject.(*model.Constraint); ok {
			stmt.DDL = buildAddConstraint(schema, c)
		} else if d.SourceDefinition != "" {
			stmt.DDL = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s",
				qualify(schema, d.ID.Table), quoteIdent(d.ID.Name), d.SourceDefinition)
		}
	case model.KindIndex:
		if idx, ok := d.SourceObject.(*model.Index); ok {
			stmt.DDL = buildCreateIndex(schema, idx)
		} else {
			stmt.DDL = d.SourceDefinition
		}
	case model.KindView, model.KindMaterializedView:
		if v, ok := d.SourceObject.(*model.View); ok {
			stmt.DDL = buildCreateView(schema, v)
		}
	case model.KindFunction, model.KindProcedure:
		// pg_get_functiondef already renders a complete CREATE OR REPLACE.
		stmt.DDL = d.SourceDefinition
	case model.KindTrigger:
		if trg, ok := d.SourceObject.(*model.Trigger); ok {
			stmt.DDL = buildCreateTrigger(schema, trg)
		} else {
			stmt.DDL = d.SourceDefinition
		}
	}

	if stmt.DDL == "" {
		stmt.DDL = placeholder(d)
		stmt.Severity = compare.Warning
		stmt.Warning = "no definition captured; complete manually"
	}
	return []Statement{stmt}
}

func columnDefinition(d *compare.ObjectDiff) string {
	if c, ok := d.SourceObject.(*model.Column); ok {
		return c.Definition()
	}
	return d.SourceDefinition
}

func placeholder(d *compare.ObjectDiff) string {
	return fmt.Sprintf("-- %s %s exists in source but no definition was captured; recreate manually",
		d.Kind(), d.ObjectName())
}

// alterStatements synthesizes one ALTER-equivalent statement per attribute
// difference. Views, materialized views and routines are modified via full
// recreate; enum label additions anchor each new value to its predecessor.
func alterStatements(schema string, d *compare.ObjectDiff) []Statement {
	switch d.Kind() {
	case model.KindExtension:
		return alterExtension(d)
	case model.KindType:
		return alterType(schema, d)
	case model.KindSequence:
		return alterSequence(schema, d)
	case model.KindTable:
		return alterTable(schema, d)
	case model.KindColumn:
		return alterColumn(schema, d)
	case model.KindPrimaryKey, model.KindUniqueConstraint, model.KindCheckConstraint, model.KindForeignKey:
		return recreateConstraint(schema, d)
	case model.KindIndex:
		return recreateIndex(schema, d)
	case model.KindView:
		return replaceView(schema, d)
	case model.KindMaterializedView:
		return recreateMaterializedView(schema, d)
	case model.KindFunction, model.KindProcedure:
		return replaceRoutine(d)
	case model.KindTrigger:
		return recreateTrigger(schema, d)
	}
	return nil
}

func alterStmt(d *compare.ObjectDiff, ddl string, sev compare.Severity, warning string) Statement {
	return Statement{
		DDL:        ddl,
		Kind:       d.Kind(),
		ObjectName: d.ObjectName(),
		Severity:   sev,
		Warning:    warning,
		action:     actionAlter,
	}
}

func manualStmt(d *compare.ObjectDiff, attr string) Statement {
	ddl := fmt.Sprintf("-- %s %s: attribute %q cannot be altered in place; reconcile manually",
		d.Kind(), d.ObjectName(), attr)
	return alterStmt(d, ddl, compare.Warning, "manual reconciliation required")
}

func alterExtension(d *compare.ObjectDiff) []Statement {
	var stmts []Statement
	for _, a := range d.Attributes {
		if a.Name == "version" {
			ddl := fmt.Sprintf("ALTER EXTENSION %s UPDATE TO %s", quoteIdent(d.ID.Name), quoteLiteral(a.SourceValue))
			stmts = append(stmts, alterStmt(d, ddl, compare.Info, ""))
		}
	}
	return stmts
}

func alterType(schema string, d *compare.ObjectDiff) []Statement {
	src, srcOK := d.SourceObject.(*model.Type)
	dst, dstOK := d.DestinationObject.(*model.Type)

	var stmts []Statement
	for _, a := range d.Attributes {
		switch a.Name {
		case "enum_labels":
			if !srcOK || !dstOK {
				stmts = append(stmts, manualStmt(d, a.Name))
				continue
			}
			for _, ddl := range buildAddEnumValues(schema, src, dst) {
				stmts = append(stmts, alterStmt(d, ddl, compare.Info, ""))
			}
			// Labels present only in the destination are reported but never
			// dropped: enum evolution is additive only.
		case "default":
			if srcOK && src.Kind == model.TypeKindDomain {
				stmts = append(stmts, alterDomainDefault(schema, d, a)...)
				continue
			}
			stmts = append(stmts, manualStmt(d, a.Name))
		case "not_null":
			if srcOK && src.Kind == model.TypeKindDomain {
				stmts = append(stmts, alterDomainNotNull(schema, d, a)...)
				continue
			}
			stmts = append(stmts, manualStmt(d, a.Name))
		case "comment":
			ddl := fmt.Sprintf("COMMENT ON TYPE %s IS %s", qualify(schema, d.ID.Name), commentLiteral(a.SourceValue))
			stmts = append(stmts, alterStmt(d, ddl, compare.Info, ""))
		default:
			stmts = append(stmts, manualStmt(d, a.Name))
		}
	}
	return stmts
}

func alterDomainDefault(schema string, d *compare.ObjectDiff, a compare.AttributeDiff) []Statement {
	name := qualify(schema, d.ID.Name)
	if a.SourceValue == "" {
		ddl := fmt.Sprintf("ALTER DOMAIN %s DROP DEFAULT", name)
		return []Statement{alterStmt(d, ddl, compare.Breaking, dataLossWarning)}
	}
	ddl := fmt.Sprintf("ALTER DOMAIN %s SET DEFAULT %s", name, a.SourceValue)
	return []Statement{alterStmt(d, ddl, compare.Info, "")}
}

func alterDomainNotNull(schema string, d *compare.ObjectDiff, a compare.AttributeDiff) []Statement {
	name := qualify(schema, d.ID.Name)
	if a.SourceValue == "true" {
		ddl := fmt.Sprintf("ALTER DOMAIN %s SET NOT NULL", name)
		return []Statement{alterStmt(d, ddl, compare.Warning, "existing null values will reject this change")}
	}
	ddl := fmt.Sprintf("ALTER DOMAIN %s DROP NOT NULL", name)
	return []Statement{alterStmt(d, ddl, compare.Breaking, dataLossWarning)}
}

func alterSequence(schema string, d *compare.ObjectDiff) []Statement {
	name := qualify(schema, d.ID.Name)
	var stmts []Statement
	for _, a := range d.Attributes {
		var ddl string
		switch a.Name {
		case "start_value":
			ddl = fmt.Sprintf("ALTER SEQUENCE %s START WITH %s", name, a.SourceValue)
		case "increment":
			ddl = fmt.Sprintf("ALTER SEQUENCE %s INCREMENT BY %s", name, a.SourceValue)
		case "min_value":
			if a.SourceValue == "" {
				ddl = fmt.Sprintf("ALTER SEQUENCE %s NO MINVALUE", name)
			} else {
				ddl = fmt.Sprintf("ALTER SEQUENCE %s MINVALUE %s", name, a.SourceValue)
			}
		case "max_value":
			if a.SourceValue == "" {
				ddl = fmt.Sprintf("ALTER SEQUENCE %s NO MAXVALUE", name)
			} else {
				ddl = fmt.Sprintf("ALTER SEQUENCE %s MAXVALUE %s", name, a.SourceValue)
			}
		case "cache_size":
			ddl = fmt.Sprintf("ALTER SEQUENCE %s CACHE %s", name, a.SourceValue)
		case "cycle":
			if a.SourceValue == "true" {
				ddl = fmt.Sprintf("ALTER SEQUENCE %s CYCLE", name)
			} else {
				ddl = fmt.Sprintf("ALTER SEQUENCE %s NO CYCLE", name)
			}
		case "data_type":
			ddl = fmt.Sprintf("ALTER SEQUENCE %s AS %s", name, a.SourceValue)
		default:
			stmts = append(stmts, manualStmt(d, a.Name))
			continue
		}
		stmts = append(stmts, alterStmt(d, ddl, compare.Info, ""))
	}
	return stmts
}

func alterTable(schema string, d *compare.ObjectDiff) []Statement {
	name := qualify(schema, d.ID.Name)
	var stmts []Statement
	for _, a := range d.Attributes {
		switch a.Name {
		case "owner":
			ddl := fmt.Sprintf("ALTER TABLE %s OWNER TO %s", name, quoteIdent(a.SourceValue))
			stmts = append(stmts, alterStmt(d, ddl, compare.Info, ""))
		case "comment":
			ddl := fmt.Sprintf("COMMENT ON TABLE %s IS %s", name, commentLiteral(a.SourceValue))
			stmts = append(stmts, alterStmt(d, ddl, compare.Info, ""))
		default:
			// Partitioning cannot change on an existing table.
			stmts = append(stmts, manualStmt(d, a.Name))
		}
	}
	return stmts
}

func alterColumn(schema string, d *compare.ObjectDiff) []Statement {
	table := qualify(schema, d.ID.Table)
	col := quoteIdent(d.ID.Name)

	var stmts []Statement
	for _, a := range d.Attributes {
		switch a.Name {
		case "data_type":
			ddl := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", table, col, a.SourceValue)
			stmts = append(stmts, alterStmt(d, ddl, compare.Warning, "type change may rewrite the table or fail on incompatible values"))
		case "nullable":
			if a.SourceValue == "NOT NULL" {
				ddl := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", table, col)
				stmts = append(stmts, alterStmt(d, ddl, compare.Warning, "existing null values will reject this change"))
			} else {
				ddl := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", table, col)
				stmts = append(stmts, alterStmt(d, ddl, compare.Breaking, dataLossWarning))
			}
		case "default":
			if a.SourceValue == "" {
				ddl := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", table, col)
				stmts = append(stmts, alterStmt(d, ddl, compare.Breaking, dataLossWarning))
			} else {
				ddl := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", table, col, a.SourceValue)
				stmts = append(stmts, alterStmt(d, ddl, compare.Info, ""))
			}
		case "identity":
			if a.SourceValue == "" {
				ddl := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP IDENTITY IF EXISTS", table, col)
				stmts = append(stmts, alterStmt(d, ddl, compare.Breaking, dataLossWarning))
			} else if a.DestinationValue == "" {
				ddl := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s ADD %s", table, col, a.SourceValue)
				stmts = append(stmts, alterStmt(d, ddl, compare.Warning, "column must contain no conflicting values"))
			} else {
				// Changing the mode of an existing identity takes the bare
				// form: SET GENERATED ALWAYS, without the AS IDENTITY suffix.
				mode := strings.TrimSuffix(a.SourceValue, " AS IDENTITY")
				ddl := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET %s", table, col, mode)
				stmts = append(stmts, alterStmt(d, ddl, compare.Info, ""))
			}
		case "comment":
			ddl := fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", table, col, commentLiteral(a.SourceValue))
			stmts = append(stmts, alterStmt(d, ddl, compare.Info, ""))
		default:
			// Generated expressions cannot be altered in place.
			stmts = append(stmts, manualStmt(d, a.Name))
		}
	}
	return stmts
}

// recreateConstraint reconciles a changed constraint by dropping the
// destination's version and re-adding the source definition.
func recreateConstraint(schema string, d *compare.ObjectDiff) []Statement {
	drop := Statement{
		DDL:        dropStatement(schema, d.Kind(), d.ID),
		Kind:       d.Kind(),
		ObjectName: d.ObjectName(),
		Severity:   compare.Warning,
		Warning:    "constraint is briefly absent during recreate",
		action:     actionDrop,
	}

	add := Statement{
		Kind:       d.Kind(),
		ObjectName: d.ObjectName(),
		Severity:   d.Severity,
		action:     actionCreate,
	}
	if c, ok := d.SourceObject.(*model.Constraint); ok {
		add.DDL = buildAddConstraint(schema, c)
	} else if d.SourceDefinition != "" {
		add.DDL = fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s",
			qualify(schema, d.ID.Table), quoteIdent(d.ID.Name), d.SourceDefinition)
	} else {
		add.DDL = placeholder(d)
		add.Severity = compare.Warning
		add.Warning = "no definition captured; complete manually"
	}
	return []Statement{drop, add}
}

func recreateIndex(schema string, d *compare.ObjectDiff) []Statement {
	drop := Statement{
		DDL:        dropStatement(schema, model.KindIndex, d.ID),
		Kind:       model.KindIndex,
		ObjectName: d.ObjectName(),
		Severity:   compare.Warning,
		Warning:    "index is briefly absent during recreate",
		action:     actionDrop,
	}
	create := createStatements(schema, d)[0]
	return []Statement{drop, create}
}

func replaceView(schema string, d *compare.ObjectDiff) []Statement {
	if v, ok := d.SourceObject.(*model.View); ok {
		return []Statement{alterStmt(d, buildReplaceView(schema, v), d.Severity, "")}
	}
	return []Statement{manualStmt(d, "definition")}
}

// recreateMaterializedView drops and rebuilds: there is no partial
// redefinition for materialized views.
func recreateMaterializedView(schema string, d *compare.ObjectDiff) []Statement {
	drop := Statement{
		DDL:        dropStatement(schema, model.KindMaterializedView, d.ID),
		Kind:       model.KindMaterializedView,
		ObjectName: d.ObjectName(),
		Severity:   compare.Breaking,
		Warning:    "materialized data is discarded and must be refreshed",
		action:     actionDrop,
	}
	create := createStatements(schema, d)[0]
	return []Statement{drop, create}
}

func replaceRoutine(d *compare.ObjectDiff) []Statement {
	if def := sourceRoutineDefinition(d); def != "" {
		return []Statement{alterStmt(d, def, d.Severity, "")}
	}
	return []Statement{manualStmt(d, "definition")}
}

func sourceRoutineDefinition(d *compare.ObjectDiff) string {
	if f, ok := d.SourceObject.(*model.Function); ok {
		return f.Definition
	}
	return d.SourceDefinition
}

func recreateTrigger(schema string, d *compare.ObjectDiff) []Statement {
	drop := Statement{
		DDL:        dropStatement(schema, model.KindTrigger, d.ID),
		Kind:       model.KindTrigger,
		ObjectName: d.ObjectName(),
		Severity:   compare.Warning,
		Warning:    "trigger is briefly absent during recreate",
		action:     actionDrop,
	}
	create := createStatements(schema, d)[0]
	return []Statement{drop, create}
}

func commentLiteral(comment string) string {
	if comment == "" {
		return "NULL"
	}
	return quoteLiteral(comment)
}
