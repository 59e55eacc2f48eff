package compare

import (
	"context"
	"strconv"
	"strings"

	"github.com/pgcompare/pgcompare/internal/extract"
	"github.com/pgcompare/pgcompare/internal/model"
)

// diffTables compares the table category. Tables on both sides recurse into
// every nested collection plus table-level attributes; the resulting object
// differences are merged into one flat list.
func (e *Engine) diffTables(ctx context.Context, srcInstance, dstInstance string, src, dst *extract.Extractor, f *Filter) []ObjectDiff {
	srcTables, err := src.Tables(ctx)
	if err != nil {
		warnCategory(srcInstance, "tables", err)
	}
	dstTables, err := dst.Tables(ctx)
	if err != nil {
		warnCategory(dstInstance, "tables", err)
	}

	srcMap := make(map[string]*model.Table)
	dstMap := make(map[string]*model.Table)
	for _, t := range srcTables {
		if f.Matches(t.Name) {
			srcMap[t.Name] = t
		}
	}
	for _, t := range dstTables {
		if f.Matches(t.Name) {
			dstMap[t.Name] = t
		}
	}

	var diffs []ObjectDiff
	for name, st := range srcMap {
		dt, ok := dstMap[name]
		if !ok {
			diffs = append(diffs, missingTableDiffs(st, f)...)
			continue
		}
		diffs = append(diffs, compareTable(st, dt, f)...)
	}
	for name, dt := range dstMap {
		if _, ok := srcMap[name]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindTable, Name: name},
				Type: Extra, Severity: Breaking,
				DestinationObject: dt,
			})
		}
	}
	return diffs
}

// missingTableDiffs reports a table absent from the destination. The CREATE
// TABLE reconstruction covers columns and in-table constraints; foreign keys,
// indexes and triggers get their own differences so generation can order them
// after the tables they depend on.
func missingTableDiffs(t *model.Table, f *Filter) []ObjectDiff {
	diffs := []ObjectDiff{{
		ID:   model.ObjectID{Kind: model.KindTable, Name: t.Name},
		Type: Missing, Severity: Info,
		SourceObject: t,
	}}
	if f.ForeignKeys {
		for _, fk := range t.ForeignKeys {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindForeignKey, Table: t.Name, Name: fk.Name},
				Type: Missing, Severity: Info,
				SourceDefinition: fk.Definition, SourceObject: fk,
			})
		}
	}
	if f.Indexes {
		for _, idx := range t.Indexes {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindIndex, Table: t.Name, Name: idx.Name},
				Type: Missing, Severity: Info,
				SourceDefinition: idx.Definition, SourceObject: idx,
			})
		}
	}
	if f.Triggers {
		for _, trg := range t.Triggers {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindTrigger, Table: t.Name, Name: trg.Name},
				Type: Missing, Severity: Info,
				SourceDefinition: trg.Definition, SourceObject: trg,
			})
		}
	}
	return diffs
}

func compareTable(src, dst *model.Table, f *Filter) []ObjectDiff {
	var diffs []ObjectDiff

	var attrs []AttributeDiff
	if src.Owner != dst.Owner {
		attrs = append(attrs, AttributeDiff{Name: "owner", SourceValue: src.Owner, DestinationValue: dst.Owner})
	}
	if src.Comment != dst.Comment {
		attrs = append(attrs, AttributeDiff{
			Name: "comment", SourceValue: src.Comment, DestinationValue: dst.Comment,
			Removed: src.Comment == "" && dst.Comment != "",
		})
	}
	if src.IsPartitioned != dst.IsPartitioned || src.PartitionKey != dst.PartitionKey {
		attrs = append(attrs, AttributeDiff{Name: "partition_key", SourceValue: src.PartitionKey, DestinationValue: dst.PartitionKey})
	}
	if len(attrs) > 0 {
		diffs = append(diffs, ObjectDiff{
			ID:   model.ObjectID{Kind: model.KindTable, Name: src.Name},
			Type: Modified, Severity: severityForAttrs(attrs),
			Attributes:   attrs,
			SourceObject: src, DestinationObject: dst,
		})
	}

	if f.Columns {
		diffs = append(diffs, compareColumns(src, dst)...)
	}
	if f.PrimaryKeys {
		diffs = append(diffs, comparePrimaryKeys(src, dst)...)
	}
	if f.ForeignKeys {
		diffs = append(diffs, compareConstraints(src.Name, model.KindForeignKey, src.ForeignKeys, dst.ForeignKeys)...)
	}
	if f.UniqueConstraints {
		diffs = append(diffs, compareConstraints(src.Name, model.KindUniqueConstraint, src.UniqueConstraints, dst.UniqueConstraints)...)
	}
	if f.CheckConstraints {
		diffs = append(diffs, compareConstraints(src.Name, model.KindCheckConstraint, src.CheckConstraints, dst.CheckConstraints)...)
	}
	if f.Indexes {
		diffs = append(diffs, compareIndexes(src, dst)...)
	}
	if f.Triggers {
		diffs = append(diffs, compareTriggers(src, dst)...)
	}
	return diffs
}

func compareColumns(srcTable, dstTable *model.Table) []ObjectDiff {
	srcMap := make(map[string]*model.Column, len(srcTable.Columns))
	dstMap := make(map[string]*model.Column, len(dstTable.Columns))
	for _, c := range srcTable.Columns {
		srcMap[c.Name] = c
	}
	for _, c := range dstTable.Columns {
		dstMap[c.Name] = c
	}

	var diffs []ObjectDiff
	for _, sc := range srcTable.Columns {
		id := model.ObjectID{Kind: model.KindColumn, Table: srcTable.Name, Name: sc.Name}
		dc, ok := dstMap[sc.Name]
		if !ok {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Missing, Severity: Info,
				SourceDefinition: sc.Definition(), SourceObject: sc,
			})
			continue
		}
		if attrs, sev := compareColumnAttrs(sc, dc); len(attrs) > 0 {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Modified, Severity: sev,
				Attributes:       attrs,
				SourceDefinition: sc.Definition(), DestinationDefinition: dc.Definition(),
				SourceObject:     sc, DestinationObject: dc,
			})
		}
	}
	for _, dc := range dstTable.Columns {
		if _, ok := srcMap[dc.Name]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindColumn, Table: dstTable.Name, Name: dc.Name},
				Type: Extra, Severity: Breaking,
				DestinationDefinition: dc.Definition(), DestinationObject: dc,
			})
		}
	}
	return diffs
}

func compareColumnAttrs(src, dst *model.Column) ([]AttributeDiff, Severity) {
	var attrs []AttributeDiff
	sev := Info

	if src.DataType != dst.DataType {
		attrs = append(attrs, AttributeDiff{Name: "data_type", SourceValue: src.DataType, DestinationValue: dst.DataType})
		sev = maxSeverity(sev, Warning)
	}
	if src.IsNullable != dst.IsNullable {
		a := AttributeDiff{
			Name:             "nullable",
			SourceValue:      nullability(src.IsNullable),
			DestinationValue: nullability(dst.IsNullable),
			// Source dropped the NOT NULL the destination still carries.
			Removed: src.IsNullable && !dst.IsNullable,
		}
		attrs = append(attrs, a)
		// Adding NOT NULL can fail on existing rows; dropping it loosens a
		// constraint. Both warrant a warning.
		sev = maxSeverity(sev, Warning)
	}
	sd, dd := derefOr(src.DefaultValue, ""), derefOr(dst.DefaultValue, "")
	// Default expressions compare as catalog-rendered text, verbatim.
	if sd != dd {
		attrs = append(attrs, AttributeDiff{
			Name: "default", SourceValue: sd, DestinationValue: dd,
			Removed: sd == "" && dd != "",
		})
		if sd == "" && dd != "" {
			sev = maxSeverity(sev, Warning)
		}
	}
	if src.IsIdentity != dst.IsIdentity || src.IdentityGeneration != dst.IdentityGeneration {
		attrs = append(attrs, AttributeDiff{
			Name:             "identity",
			SourceValue:      identitySummary(src),
			DestinationValue: identitySummary(dst),
			Removed:          !src.IsIdentity && dst.IsIdentity,
		})
		if !src.IsIdentity && dst.IsIdentity {
			sev = maxSeverity(sev, Warning)
		}
	}
	if src.IsGenerated != dst.IsGenerated || src.GenerationExpr != dst.GenerationExpr {
		attrs = append(attrs, AttributeDiff{
			Name:             "generated",
			SourceValue:      src.GenerationExpr,
			DestinationValue: dst.GenerationExpr,
			Removed:          !src.IsGenerated && dst.IsGenerated,
		})
		if !src.IsGenerated && dst.IsGenerated {
			sev = maxSeverity(sev, Warning)
		}
	}
	if src.Comment != dst.Comment {
		attrs = append(attrs, AttributeDiff{Name: "comment", SourceValue: src.Comment, DestinationValue: dst.Comment})
	}
	return attrs, sev
}

func nullability(isNullable bool) string {
	if isNullable {
		return "NULL"
	}
	return "NOT NULL"
}

func identitySummary(c *model.Column) string {
	if !c.IsIdentity {
		return ""
	}
	gen := c.IdentityGeneration
	if gen == "" {
		gen = "BY DEFAULT"
	}
	return "GENERATED " + gen + " AS IDENTITY"
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// comparePrimaryKeys treats the primary key as a single optional nested
// object. Its absence from the destination is a WARNING rather than INFO:
// dependents (foreign keys, replication) rely on it.
func comparePrimaryKeys(src, dst *model.Table) []ObjectDiff {
	switch {
	case src.PrimaryKey != nil && dst.PrimaryKey == nil:
		return []ObjectDiff{{
			ID:   model.ObjectID{Kind: model.KindPrimaryKey, Table: src.Name, Name: src.PrimaryKey.Name},
			Type: Missing, Severity: Warning,
			SourceDefinition: src.PrimaryKey.Definition, SourceObject: src.PrimaryKey,
		}}
	case src.PrimaryKey == nil && dst.PrimaryKey != nil:
		return []ObjectDiff{{
			ID:   model.ObjectID{Kind: model.KindPrimaryKey, Table: dst.Name, Name: dst.PrimaryKey.Name},
			Type: Extra, Severity: Breaking,
			DestinationDefinition: dst.PrimaryKey.Definition, DestinationObject: dst.PrimaryKey,
		}}
	case src.PrimaryKey != nil && dst.PrimaryKey != nil:
		var attrs []AttributeDiff
		if src.PrimaryKey.Name != dst.PrimaryKey.Name {
			attrs = append(attrs, AttributeDiff{Name: "name", SourceValue: src.PrimaryKey.Name, DestinationValue: dst.PrimaryKey.Name})
		}
		if sc, dc := strings.Join(src.PrimaryKey.Columns, ","), strings.Join(dst.PrimaryKey.Columns, ","); sc != dc {
			attrs = append(attrs, AttributeDiff{Name: "columns", SourceValue: sc, DestinationValue: dc})
		}
		if len(attrs) > 0 {
			return []ObjectDiff{{
				ID:   model.ObjectID{Kind: model.KindPrimaryKey, Table: src.Name, Name: src.PrimaryKey.Name},
				Type: Modified, Severity: Warning,
				Attributes:   attrs,
				SourceObject: src.PrimaryKey, DestinationObject: dst.PrimaryKey,
			}}
		}
	}
	return nil
}

// compareConstraints handles foreign key, unique and check constraints,
// identified by (table, name) and compared by catalog-rendered definition.
func compareConstraints(table string, kind model.ObjectKind, src, dst []*model.Constraint) []ObjectDiff {
	srcMap := make(map[string]*model.Constraint, len(src))
	dstMap := make(map[string]*model.Constraint, len(dst))
	for _, c := range src {
		srcMap[c.Name] = c
	}
	for _, c := range dst {
		dstMap[c.Name] = c
	}

	var diffs []ObjectDiff
	for _, sc := range src {
		id := model.ObjectID{Kind: kind, Table: table, Name: sc.Name}
		dc, ok := dstMap[sc.Name]
		if !ok {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Missing, Severity: Info,
				SourceDefinition: sc.Definition, SourceObject: sc,
			})
			continue
		}
		if sc.Definition != dc.Definition {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Modified, Severity: Warning,
				Attributes: []AttributeDiff{{
					Name: "definition", SourceValue: sc.Definition, DestinationValue: dc.Definition,
				}},
				SourceDefinition: sc.Definition, DestinationDefinition: dc.Definition,
				SourceObject:     sc, DestinationObject: dc,
			})
		}
	}
	for _, dc := range dst {
		if _, ok := srcMap[dc.Name]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: kind, Table: table, Name: dc.Name},
				Type: Extra, Severity: Breaking,
				DestinationDefinition: dc.Definition, DestinationObject: dc,
			})
		}
	}
	return diffs
}

func compareIndexes(srcTable, dstTable *model.Table) []ObjectDiff {
	srcMap := make(map[string]*model.Index, len(srcTable.Indexes))
	dstMap := make(map[string]*model.Index, len(dstTable.Indexes))
	for _, i := range srcTable.Indexes {
		srcMap[i.Name] = i
	}
	for _, i := range dstTable.Indexes {
		dstMap[i.Name] = i
	}

	var diffs []ObjectDiff
	for _, si := range srcTable.Indexes {
		id := model.ObjectID{Kind: model.KindIndex, Table: srcTable.Name, Name: si.Name}
		di, ok := dstMap[si.Name]
		if !ok {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Missing, Severity: Info,
				SourceDefinition: si.Definition, SourceObject: si,
			})
			continue
		}
		if attrs := compareIndexAttrs(si, di); len(attrs) > 0 {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Modified, Severity: severityForAttrs(attrs),
				Attributes:       attrs,
				SourceDefinition: si.Definition, DestinationDefinition: di.Definition,
				SourceObject:     si, DestinationObject: di,
			})
		}
	}
	for _, di := range dstTable.Indexes {
		if _, ok := srcMap[di.Name]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindIndex, Table: dstTable.Name, Name: di.Name},
				Type: Extra, Severity: Breaking,
				DestinationDefinition: di.Definition, DestinationObject: di,
			})
		}
	}
	return diffs
}

func compareIndexAttrs(src, dst *model.Index) []AttributeDiff {
	var attrs []AttributeDiff
	if sc, dc := strings.Join(src.Columns, ","), strings.Join(dst.Columns, ","); sc != dc {
		attrs = append(attrs, AttributeDiff{Name: "columns", SourceValue: sc, DestinationValue: dc})
	}
	if src.IsUnique != dst.IsUnique {
		attrs = append(attrs, AttributeDiff{
			Name: "unique", SourceValue: strconv.FormatBool(src.IsUnique), DestinationValue: strconv.FormatBool(dst.IsUnique),
			Removed: !src.IsUnique && dst.IsUnique,
		})
	}
	if src.Method != dst.Method {
		attrs = append(attrs, AttributeDiff{Name: "method", SourceValue: src.Method, DestinationValue: dst.Method})
	}
	if src.Predicate != dst.Predicate {
		attrs = append(attrs, AttributeDiff{
			Name: "predicate", SourceValue: src.Predicate, DestinationValue: dst.Predicate,
			Removed: src.Predicate == "" && dst.Predicate != "",
		})
	}
	if src.Definition != dst.Definition {
		attrs = append(attrs, AttributeDiff{Name: "definition", SourceValue: src.Definition, DestinationValue: dst.Definition})
	}
	return attrs
}

func compareTriggers(srcTable, dstTable *model.Table) []ObjectDiff {
	srcMap := make(map[string]*model.Trigger, len(srcTable.Triggers))
	dstMap := make(map[string]*model.Trigger, len(dstTable.Triggers))
	for _, t := range srcTable.Triggers {
		srcMap[t.Name] = t
	}
	for _, t := range dstTable.Triggers {
		dstMap[t.Name] = t
	}

	var diffs []ObjectDiff
	for _, st := range srcTable.Triggers {
		id := model.ObjectID{Kind: model.KindTrigger, Table: srcTable.Name, Name: st.Name}
		dt, ok := dstMap[st.Name]
		if !ok {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Missing, Severity: Info,
				SourceDefinition: st.Definition, SourceObject: st,
			})
			continue
		}
		if attrs := compareTriggerAttrs(st, dt); len(attrs) > 0 {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Modified, Severity: severityForAttrs(attrs),
				Attributes:       attrs,
				SourceDefinition: st.Definition, DestinationDefinition: dt.Definition,
				SourceObject:     st, DestinationObject: dt,
			})
		}
	}
	for _, dt := range dstTable.Triggers {
		if _, ok := srcMap[dt.Name]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindTrigger, Table: dstTable.Name, Name: dt.Name},
				Type: Extra, Severity: Breaking,
				DestinationDefinition: dt.Definition, DestinationObject: dt,
			})
		}
	}
	return diffs
}

func compareTriggerAttrs(src, dst *model.Trigger) []AttributeDiff {
	var attrs []AttributeDiff
	if src.Timing != dst.Timing {
		attrs = append(attrs, AttributeDiff{Name: "timing", SourceValue: src.Timing, DestinationValue: dst.Timing})
	}
	if se, de := strings.Join(src.Events, ","), strings.Join(dst.Events, ","); se != de {
		attrs = append(attrs, AttributeDiff{Name: "events", SourceValue: se, DestinationValue: de})
	}
	if src.Level != dst.Level {
		attrs = append(attrs, AttributeDiff{Name: "level", SourceValue: src.Level, DestinationValue: dst.Level})
	}
	if src.Function != dst.Function {
		attrs = append(attrs, AttributeDiff{Name: "function", SourceValue: src.Function, DestinationValue: dst.Function})
	}
	if src.Definition != dst.Definition {
		attrs = append(attrs, AttributeDiff{Name: "definition", SourceValue: src.Definition, DestinationValue: dst.Definition})
	}
	return attrs
}
