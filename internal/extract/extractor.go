// Package extract reads one schema's objects from one instance into an
// immutable model.Snapshot. Extraction is best-effort: a failing catalog
// query for one object kind yields an empty collection for that kind plus a
// logged warning, never an error surfaced to the diff engine.
package extract

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/pgcompare/pgcompare/internal/logger"
	"github.com/pgcompare/pgcompare/internal/model"
)

// Extractor reads schema objects for one (connection, schema) pair.
type Extractor struct {
	db     *sql.DB
	schema string
}

// New creates an extractor over an open connection for one schema.
func New(db *sql.DB, schema string) *Extractor {
	return &Extractor{db: db, schema: schema}
}

// Snapshot extracts every object category and assembles the immutable
// snapshot. Categories run concurrently; each recovers its own failure by
// logging and contributing an empty collection.
func (e *Extractor) Snapshot(ctx context.Context, instance string) *model.Snapshot {
	snap := &model.Snapshot{
		Instance:   instance,
		Schema:     e.schema,
		Tables:     []*model.Table{},
		Views:      []*model.View{},
		Functions:  []*model.Function{},
		Sequences:  []*model.Sequence{},
		Types:      []*model.Type{},
		Extensions: map[string]string{},
		TakenAt:    time.Now(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Tables = e.tablesOrEmpty(gctx, instance)
		return nil
	})
	g.Go(func() error {
		if views, err := e.Views(gctx); err != nil {
			e.warn(instance, "views", err)
		} else {
			snap.Views = views
		}
		return nil
	})
	g.Go(func() error {
		if fns, err := e.Functions(gctx); err != nil {
			e.warn(instance, "functions", err)
		} else {
			snap.Functions = fns
		}
		return nil
	})
	g.Go(func() error {
		if seqs, err := e.Sequences(gctx); err != nil {
			e.warn(instance, "sequences", err)
		} else {
			snap.Sequences = seqs
		}
		return nil
	})
	g.Go(func() error {
		if types, err := e.Types(gctx); err != nil {
			e.warn(instance, "types", err)
		} else {
			snap.Types = types
		}
		return nil
	})
	g.Go(func() error {
		if exts, err := e.Extensions(gctx); err != nil {
			e.warn(instance, "extensions", err)
		} else {
			snap.Extensions = exts
		}
		return nil
	})
	g.Wait()

	return snap
}

func (e *Extractor) warn(instance, category string, err error) {
	logger.Get().Warn("extraction failed, category yields no objects",
		"instance", instance, "schema", e.schema, "category", category, "error", err)
}

func (e *Extractor) tablesOrEmpty(ctx context.Context, instance string) []*model.Table {
	tables, err := e.Tables(ctx)
	if err != nil {
		e.warn(instance, "tables", err)
		return []*model.Table{}
	}
	return tables
}

// Tables extracts every table with its nested columns, constraints, indexes
// and triggers, ordered by name.
func (e *Extractor) Tables(ctx context.Context) ([]*model.Table, error) {
	byName := make(map[string]*model.Table)
	var names []string

	rows, err := e.db.QueryContext(ctx, tablesQuery, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		t := &model.Table{
			Columns:           []*model.Column{},
			ForeignKeys:       []*model.Constraint{},
			UniqueConstraints: []*model.Constraint{},
			CheckConstraints:  []*model.Constraint{},
			Indexes:           []*model.Index{},
			Triggers:          []*model.Trigger{},
		}
		if err := rows.Scan(&t.Name, &t.Owner, &t.Comment, &t.IsPartitioned, &t.PartitionKey); err != nil {
			return nil, err
		}
		byName[t.Name] = t
		names = append(names, t.Name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := e.fillColumns(ctx, byName); err != nil {
		return nil, err
	}
	if err := e.fillConstraints(ctx, byName); err != nil {
		return nil, err
	}
	if err := e.fillIndexes(ctx, byName); err != nil {
		return nil, err
	}
	if err := e.fillTriggers(ctx, byName); err != nil {
		return nil, err
	}

	sort.Strings(names)
	tables := make([]*model.Table, 0, len(names))
	for _, name := range names {
		tables = append(tables, byName[name])
	}
	return tables, nil
}

func (e *Extractor) fillColumns(ctx context.Context, tables map[string]*model.Table) error {
	rows, err := e.db.QueryContext(ctx, columnsQuery, e.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName string
		var defaultValue sql.NullString
		col := &model.Column{}
		if err := rows.Scan(&tableName, &col.Name, &col.Position, &col.DataType,
			&col.IsNullable, &defaultValue, &col.IsIdentity, &col.IdentityGeneration,
			&col.IsGenerated, &col.GenerationExpr, &col.Comment); err != nil {
			return err
		}
		if defaultValue.Valid && !col.IsGenerated {
			v := defaultValue.String
			col.DefaultValue = &v
		}
		if table, ok := tables[tableName]; ok {
			table.Columns = append(table.Columns, col)
		}
	}
	return rows.Err()
}

func (e *Extractor) fillConstraints(ctx context.Context, tables map[string]*model.Table) error {
	rows, err := e.db.QueryContext(ctx, constraintsQuery, e.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, conType, deleteRule, updateRule string
		var columns, refColumns []string
		c := &model.Constraint{}
		if err := rows.Scan(&tableName, &c.Name, &conType, &c.Definition,
			&c.ReferencedTable, pq.Array(&columns), pq.Array(&refColumns),
			&deleteRule, &updateRule); err != nil {
			return err
		}
		c.Table = tableName
		c.Columns = columns

		table, ok := tables[tableName]
		if !ok {
			continue
		}

		switch conType {
		case "p":
			c.Type = model.ConstraintPrimaryKey
			table.PrimaryKey = c
		case "f":
			c.Type = model.ConstraintForeignKey
			c.ReferencedColumns = refColumns
			c.DeleteRule = referentialRule(deleteRule)
			c.UpdateRule = referentialRule(updateRule)
			table.ForeignKeys = append(table.ForeignKeys, c)
		case "u":
			c.Type = model.ConstraintUnique
			table.UniqueConstraints = append(table.UniqueConstraints, c)
		case "c":
			c.Type = model.ConstraintCheck
			c.CheckClause = c.Definition
			// NOT NULL shows up as a column attribute already
			if strings.Contains(c.Definition, "IS NOT NULL") {
				continue
			}
			table.CheckConstraints = append(table.CheckConstraints, c)
		}
	}
	return rows.Err()
}

func referentialRule(code string) string {
	switch code {
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	default:
		return "NO ACTION"
	}
}

func (e *Extractor) fillIndexes(ctx context.Context, tables map[string]*model.Table) error {
	rows, err := e.db.QueryContext(ctx, indexesQuery, e.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName string
		var columns []string
		idx := &model.Index{}
		if err := rows.Scan(&tableName, &idx.Name, &idx.Method, &idx.IsUnique,
			&idx.Definition, &idx.Predicate, pq.Array(&columns)); err != nil {
			return err
		}
		idx.Table = tableName
		idx.Columns = columns
		if table, ok := tables[tableName]; ok {
			table.Indexes = append(table.Indexes, idx)
		}
	}
	return rows.Err()
}

func (e *Extractor) fillTriggers(ctx context.Context, tables map[string]*model.Table) error {
	rows, err := e.db.QueryContext(ctx, triggersQuery, e.schema)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName string
		var tgType int
		trg := &model.Trigger{}
		if err := rows.Scan(&tableName, &trg.Name, &tgType, &trg.Function, &trg.Definition); err != nil {
			return err
		}
		trg.Table = tableName
		trg.Timing, trg.Events, trg.Level = decodeTriggerType(tgType)
		if table, ok := tables[tableName]; ok {
			table.Triggers = append(table.Triggers, trg)
		}
	}
	return rows.Err()
}

// decodeTriggerType unpacks pg_trigger.tgtype: bit 0 is row level, bit 1
// BEFORE, bit 6 INSTEAD OF, bits 2..5 the firing events.
func decodeTriggerType(tgType int) (timing string, events []string, level string) {
	switch {
	case tgType&(1<<6) != 0:
		timing = "INSTEAD OF"
	case tgType&(1<<1) != 0:
		timing = "BEFORE"
	default:
		timing = "AFTER"
	}
	if tgType&(1<<2) != 0 {
		events = append(events, "INSERT")
	}
	if tgType&(1<<3) != 0 {
		events = append(events, "DELETE")
	}
	if tgType&(1<<4) != 0 {
		events = append(events, "UPDATE")
	}
	if tgType&(1<<5) != 0 {
		events = append(events, "TRUNCATE")
	}
	if tgType&1 != 0 {
		level = "ROW"
	} else {
		level = "STATEMENT"
	}
	return timing, events, level
}

// Views extracts plain and materialized views, ordered by name.
func (e *Extractor) Views(ctx context.Context) ([]*model.View, error) {
	rows, err := e.db.QueryContext(ctx, viewsQuery, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*model.View
	for rows.Next() {
		v := &model.View{}
		if err := rows.Scan(&v.Name, &v.IsMaterialized, &v.Definition, &v.Comment); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

// Functions extracts functions and procedures, ordered by signature.
func (e *Extractor) Functions(ctx context.Context) ([]*model.Function, error) {
	rows, err := e.db.QueryContext(ctx, functionsQuery, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fns []*model.Function
	for rows.Next() {
		f := &model.Function{}
		if err := rows.Scan(&f.Name, &f.Arguments, &f.IsProcedure, &f.ReturnType,
			&f.Language, &f.Definition, &f.Volatility, &f.IsStrict, &f.IsSecurityDefiner); err != nil {
			return nil, err
		}
		fns = append(fns, f)
	}
	return fns, rows.Err()
}

// Sequences extracts standalone sequences, ordered by name.
func (e *Extractor) Sequences(ctx context.Context) ([]*model.Sequence, error) {
	rows, err := e.db.QueryContext(ctx, sequencesQuery, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seqs []*model.Sequence
	for rows.Next() {
		s := &model.Sequence{}
		var minVal, maxVal int64
		if err := rows.Scan(&s.Name, &s.DataType, &s.StartValue, &s.Increment,
			&minVal, &maxVal, &s.CacheSize, &s.Cycle); err != nil {
			return nil, err
		}
		s.MinValue = &minVal
		s.MaxValue = &maxVal
		seqs = append(seqs, s)
	}
	return seqs, rows.Err()
}

// Types extracts enum, composite and domain types, ordered by name.
func (e *Extractor) Types(ctx context.Context) ([]*model.Type, error) {
	byName := make(map[string]*model.Type)
	var names []string
	add := func(t *model.Type) {
		if _, seen := byName[t.Name]; !seen {
			byName[t.Name] = t
			names = append(names, t.Name)
		}
	}

	rows, err := e.db.QueryContext(ctx, enumsQuery, e.schema)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name, comment, label string
		if err := rows.Scan(&name, &comment, &label); err != nil {
			rows.Close()
			return nil, err
		}
		add(&model.Type{Name: name, Kind: model.TypeKindEnum, Comment: comment})
		byName[name].EnumLabels = append(byName[name].EnumLabels, label)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = e.db.QueryContext(ctx, compositesQuery, e.schema)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var name, comment string
		attr := &model.TypeColumn{}
		if err := rows.Scan(&name, &comment, &attr.Name, &attr.DataType, &attr.Position); err != nil {
			rows.Close()
			return nil, err
		}
		add(&model.Type{Name: name, Kind: model.TypeKindComposite, Comment: comment})
		byName[name].Attributes = append(byName[name].Attributes, attr)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = e.db.QueryContext(ctx, domainsQuery, e.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		t := &model.Type{Kind: model.TypeKindDomain}
		if err := rows.Scan(&t.Name, &t.BaseType, &t.NotNull, &t.Default, &t.CheckExpr, &t.Comment); err != nil {
			return nil, err
		}
		add(t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(names)
	types := make([]*model.Type, 0, len(names))
	for _, name := range names {
		types = append(types, byName[name])
	}
	return types, nil
}

// Extensions extracts the installed extension name -> version map.
// Extensions are database-scoped, so no schema filter applies.
func (e *Extractor) Extensions(ctx context.Context) (map[string]string, error) {
	rows, err := e.db.QueryContext(ctx, extensionsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exts := make(map[string]string)
	for rows.Next() {
		var name, version string
		if err := rows.Scan(&name, &version); err != nil {
			return nil, err
		}
		exts[name] = version
	}
	return exts, rows.Err()
}
