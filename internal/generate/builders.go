package generate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/pgcompare/pgcompare/internal/model"
)

// Full-definition builders. Each is a deterministic string constructor:
// identical input models always yield byte-identical DDL text, which stable
// script diffing and drift-detection snapshots both rely on.

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_$]*$`)

// quoteIdent quotes an identifier only when it needs quoting, keeping the
// common lower-case case readable.
func quoteIdent(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	return pq.QuoteIdentifier(name)
}

// qualify renders schema.name with per-part quoting.
func qualify(schema, name string) string {
	return quoteIdent(schema) + "." + quoteIdent(name)
}

func quoteLiteral(v string) string {
	return pq.QuoteLiteral(v)
}

func buildCreateTable(schema string, t *model.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (", qualify(schema, t.Name))

	var items []string
	for _, col := range t.Columns {
		items = append(items, fmt.Sprintf("\n    %s %s", quoteIdent(col.Name), col.Definition()))
	}
	if t.PrimaryKey != nil {
		items = append(items, fmt.Sprintf("\n    CONSTRAINT %s PRIMARY KEY (%s)",
			quoteIdent(t.PrimaryKey.Name), identList(t.PrimaryKey.Columns)))
	}
	for _, u := range t.UniqueConstraints {
		items = append(items, fmt.Sprintf("\n    CONSTRAINT %s UNIQUE (%s)",
			quoteIdent(u.Name), identList(u.Columns)))
	}
	for _, c := range t.CheckConstraints {
		items = append(items, fmt.Sprintf("\n    CONSTRAINT %s %s", quoteIdent(c.Name), c.CheckClause))
	}
	b.WriteString(strings.Join(items, ","))
	b.WriteString("\n)")
	if t.IsPartitioned && t.PartitionKey != "" {
		b.WriteString(" PARTITION BY " + strings.TrimPrefix(t.PartitionKey, "PARTITION BY "))
	}
	return b.String()
}

func identList(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, quoteIdent(n))
	}
	return strings.Join(quoted, ", ")
}

func buildAddConstraint(schema string, c *model.Constraint) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s",
		qualify(schema, c.Table), quoteIdent(c.Name), constraintBody(c))
}

// constraintBody prefers the catalog-rendered definition and reconstructs
// from attributes when none was captured.
func constraintBody(c *model.Constraint) string {
	if c.Definition != "" {
		return c.Definition
	}
	switch c.Type {
	case model.ConstraintPrimaryKey:
		return fmt.Sprintf("PRIMARY KEY (%s)", identList(c.Columns))
	case model.ConstraintUnique:
		return fmt.Sprintf("UNIQUE (%s)", identList(c.Columns))
	case model.ConstraintForeignKey:
		body := fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			identList(c.Columns), quoteIdent(c.ReferencedTable), identList(c.ReferencedColumns))
		if c.DeleteRule != "" && c.DeleteRule != "NO ACTION" {
			body += " ON DELETE " + c.DeleteRule
		}
		if c.UpdateRule != "" && c.UpdateRule != "NO ACTION" {
			body += " ON UPDATE " + c.UpdateRule
		}
		return body
	case model.ConstraintCheck:
		return c.CheckClause
	}
	return ""
}

func buildCreateIndex(schema string, idx *model.Index) string {
	unique := ""
	if idx.IsUnique {
		unique = "UNIQUE "
	}
	stmt := fmt.Sprintf("CREATE %sINDEX %s ON %s USING %s (%s)",
		unique, quoteIdent(idx.Name), qualify(schema, idx.Table), idx.Method, strings.Join(idx.Columns, ", "))
	if idx.Predicate != "" {
		stmt += " WHERE " + idx.Predicate
	}
	return stmt
}

func buildCreateTrigger(schema string, trg *model.Trigger) string {
	return fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH %s EXECUTE FUNCTION %s()",
		quoteIdent(trg.Name), trg.Timing, strings.Join(trg.Events, " OR "),
		qualify(schema, trg.Table), trg.Level, quoteIdent(trg.Function))
}

func buildCreateView(schema string, v *model.View) string {
	kind := "VIEW"
	if v.IsMaterialized {
		kind = "MATERIALIZED VIEW"
	}
	return fmt.Sprintf("CREATE %s %s AS\n%s", kind, qualify(schema, v.Name), strings.TrimRight(v.Definition, "; \n"))
}

func buildReplaceView(schema string, v *model.View) string {
	return fmt.Sprintf("CREATE OR REPLACE VIEW %s AS\n%s", qualify(schema, v.Name), strings.TrimRight(v.Definition, "; \n"))
}

func buildCreateSequence(schema string, s *model.Sequence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE SEQUENCE %s", qualify(schema, s.Name))
	if s.DataType != "" && s.DataType != "bigint" {
		fmt.Fprintf(&b, " AS %s", s.DataType)
	}
	fmt.Fprintf(&b, " START WITH %d INCREMENT BY %d", s.StartValue, s.Increment)
	if s.MinValue != nil {
		fmt.Fprintf(&b, " MINVALUE %d", *s.MinValue)
	}
	if s.MaxValue != nil {
		fmt.Fprintf(&b, " MAXVALUE %d", *s.MaxValue)
	}
	if s.CacheSize > 1 {
		fmt.Fprintf(&b, " CACHE %d", s.CacheSize)
	}
	if s.Cycle {
		b.WriteString(" CYCLE")
	}
	return b.String()
}

func buildCreateType(schema string, t *model.Type) string {
	name := qualify(schema, t.Name)
	switch t.Kind {
	case model.TypeKindEnum:
		labels := make([]string, 0, len(t.EnumLabels))
		for _, l := range t.EnumLabels {
			labels = append(labels, quoteLiteral(l))
		}
		return fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", name, strings.Join(labels, ", "))
	case model.TypeKindComposite:
		attrs := make([]string, 0, len(t.Attributes))
		for _, a := range t.Attributes {
			attrs = append(attrs, fmt.Sprintf("%s %s", quoteIdent(a.Name), a.DataType))
		}
		return fmt.Sprintf("CREATE TYPE %s AS (%s)", name, strings.Join(attrs, ", "))
	case model.TypeKindDomain:
		stmt := fmt.Sprintf("CREATE DOMAIN %s AS %s", name, t.BaseType)
		if t.Default != "" {
			stmt += " DEFAULT " + t.Default
		}
		if t.NotNull {
			stmt += " NOT NULL"
		}
		if t.CheckExpr != "" {
			stmt += " " + t.CheckExpr
		}
		return stmt
	}
	return fmt.Sprintf("CREATE TYPE %s", name)
}

// buildAddEnumValues emits one ADD VALUE per label present in source but
// absent in destination, in source order, each anchored to its neighbor.
// Enum evolution is additive only; label removal is never generated.
func buildAddEnumValues(schema string, src, dst *model.Type) []string {
	existing := make(map[string]bool, len(dst.EnumLabels))
	for _, l := range dst.EnumLabels {
		existing[l] = true
	}

	var stmts []string
	name := qualify(schema, src.Name)
	for i, label := range src.EnumLabels {
		if existing[label] {
			continue
		}
		var stmt string
		if i == 0 && len(src.EnumLabels) > 1 {
			stmt = fmt.Sprintf("ALTER TYPE %s ADD VALUE %s BEFORE %s",
				name, quoteLiteral(label), quoteLiteral(src.EnumLabels[1]))
		} else if i > 0 {
			stmt = fmt.Sprintf("ALTER TYPE %s ADD VALUE %s AFTER %s",
				name, quoteLiteral(label), quoteLiteral(src.EnumLabels[i-1]))
		} else {
			stmt = fmt.Sprintf("ALTER TYPE %s ADD VALUE %s", name, quoteLiteral(label))
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

func dropStatement(schema string, kind model.ObjectKind, id model.ObjectID) string {
	switch kind {
	case model.KindExtension:
		return fmt.Sprintf("DROP EXTENSION IF EXISTS %s", quoteIdent(id.Name))
	case model.KindType:
		return fmt.Sprintf("DROP TYPE IF EXISTS %s", qualify(schema, id.Name))
	case model.KindSequence:
		return fmt.Sprintf("DROP SEQUENCE IF EXISTS %s", qualify(schema, id.Name))
	case model.KindTable:
		return fmt.Sprintf("DROP TABLE IF EXISTS %s", qualify(schema, id.Name))
	case model.KindColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s", qualify(schema, id.Table), quoteIdent(id.Name))
	case model.KindPrimaryKey, model.KindUniqueConstraint, model.KindCheckConstraint, model.KindForeignKey:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s", qualify(schema, id.Table), quoteIdent(id.Name))
	case model.KindIndex:
		return fmt.Sprintf("DROP INDEX IF EXISTS %s", qualify(schema, id.Name))
	case model.KindView:
		return fmt.Sprintf("DROP VIEW IF EXISTS %s", qualify(schema, id.Name))
	case model.KindMaterializedView:
		return fmt.Sprintf("DROP MATERIALIZED VIEW IF EXISTS %s", qualify(schema, id.Name))
	case model.KindFunction:
		return fmt.Sprintf("DROP FUNCTION IF EXISTS %s", qualifySignature(schema, id.Name))
	case model.KindProcedure:
		return fmt.Sprintf("DROP PROCEDURE IF EXISTS %s", qualifySignature(schema, id.Name))
	case model.KindTrigger:
		return fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", quoteIdent(id.Name), qualify(schema, id.Table))
	}
	return ""
}

// qualifySignature schema-qualifies a routine signature "name(args)".
func qualifySignature(schema, signature string) string {
	open := strings.Index(signature, "(")
	if open < 0 {
		return qualify(schema, signature)
	}
	return qualify(schema, signature[:open]) + signature[open:]
}
