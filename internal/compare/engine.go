package compare

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pgcompare/pgcompare/internal/connect"
	"github.com/pgcompare/pgcompare/internal/extract"
	"github.com/pgcompare/pgcompare/internal/logger"
	"github.com/pgcompare/pgcompare/internal/model"
)

// Engine compares one schema on a source instance against one schema on a
// destination instance. Each comparison run is synchronous and stateless;
// engines are safe for concurrent use.
type Engine struct {
	provider connect.Provider
}

// NewEngine creates a diff engine over a connection provider.
func NewEngine(provider connect.Provider) *Engine {
	return &Engine{provider: provider}
}

// Compare extracts both sides category by category and collects differences.
// It never panics out or returns an error: an orchestration failure (e.g. a
// connection cannot be acquired) sets Success=false with an error message and
// returns whatever differences earlier categories produced.
func (e *Engine) Compare(ctx context.Context, srcInstance, dstInstance, srcSchema, dstSchema string, filter *Filter) *Result {
	f := filter.orAll()
	result := &Result{
		RunID:               uuid.NewString(),
		SourceInstance:      srcInstance,
		DestinationInstance: dstInstance,
		SourceSchema:        srcSchema,
		DestinationSchema:   dstSchema,
		Success:             true,
		Differences:         []ObjectDiff{},
		ComparedAt:          time.Now(),
	}

	categories := []struct {
		name    string
		enabled bool
		diff    func(src, dst *extract.Extractor) []ObjectDiff
	}{
		{"extensions", f.Extensions, func(src, dst *extract.Extractor) []ObjectDiff {
			return e.diffExtensions(ctx, srcInstance, dstInstance, src, dst, f)
		}},
		{"types", f.Types, func(src, dst *extract.Extractor) []ObjectDiff {
			return e.diffTypes(ctx, srcInstance, dstInstance, src, dst, f)
		}},
		{"sequences", f.Sequences, func(src, dst *extract.Extractor) []ObjectDiff {
			return e.diffSequences(ctx, srcInstance, dstInstance, src, dst, f)
		}},
		{"tables", f.Tables, func(src, dst *extract.Extractor) []ObjectDiff {
			return e.diffTables(ctx, srcInstance, dstInstance, src, dst, f)
		}},
		{"views", f.Views, func(src, dst *extract.Extractor) []ObjectDiff {
			return e.diffViews(ctx, srcInstance, dstInstance, src, dst, f)
		}},
		{"functions", f.Functions, func(src, dst *extract.Extractor) []ObjectDiff {
			return e.diffFunctions(ctx, srcInstance, dstInstance, src, dst, f)
		}},
	}

	for _, cat := range categories {
		if !cat.enabled {
			continue
		}

		// Connections are re-acquired per category per instance; the provider
		// decides whether that hands back a pooled handle or opens fresh.
		srcDB, err := e.provider.Acquire(ctx, srcInstance)
		if err != nil {
			return e.fail(result, fmt.Errorf("source instance %q: %w", srcInstance, err))
		}
		dstDB, err := e.provider.Acquire(ctx, dstInstance)
		if err != nil {
			return e.fail(result, fmt.Errorf("destination instance %q: %w", dstInstance, err))
		}

		src := extract.New(srcDB, srcSchema)
		dst := extract.New(dstDB, dstSchema)
		result.Differences = append(result.Differences, cat.diff(src, dst)...)
	}

	return result
}

func (e *Engine) fail(result *Result, err error) *Result {
	result.Success = false
	result.ErrorMessage = err.Error()
	logger.Get().Error("comparison aborted, returning partial result",
		"source", result.SourceInstance, "destination", result.DestinationInstance,
		"collected", len(result.Differences), "error", err)
	return result
}

// warnCategory logs a per-side extraction failure; the category then
// contributes an empty collection for that side.
func warnCategory(instance, category string, err error) {
	logger.Get().Warn("category extraction failed, treating as empty",
		"instance", instance, "category", category, "error", err)
}

func (e *Engine) diffExtensions(ctx context.Context, srcInstance, dstInstance string, src, dst *extract.Extractor, f *Filter) []ObjectDiff {
	srcExts, err := src.Extensions(ctx)
	if err != nil {
		warnCategory(srcInstance, "extensions", err)
		srcExts = map[string]string{}
	}
	dstExts, err := dst.Extensions(ctx)
	if err != nil {
		warnCategory(dstInstance, "extensions", err)
		dstExts = map[string]string{}
	}

	var diffs []ObjectDiff
	for name, version := range srcExts {
		if !f.Matches(name) {
			continue
		}
		id := model.ObjectID{Kind: model.KindExtension, Name: name}
		dstVersion, ok := dstExts[name]
		if !ok {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Missing, Severity: Info,
				SourceDefinition: version, SourceObject: version,
			})
			continue
		}
		if version != dstVersion {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Modified, Severity: Info,
				Attributes: []AttributeDiff{{Name: "version", SourceValue: version, DestinationValue: dstVersion}},
			})
		}
	}
	for name, version := range dstExts {
		if !f.Matches(name) {
			continue
		}
		if _, ok := srcExts[name]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindExtension, Name: name},
				Type: Extra, Severity: Breaking,
				DestinationDefinition: version, DestinationObject: version,
			})
		}
	}
	return diffs
}

func (e *Engine) diffTypes(ctx context.Context, srcInstance, dstInstance string, src, dst *extract.Extractor, f *Filter) []ObjectDiff {
	srcTypes, err := src.Types(ctx)
	if err != nil {
		warnCategory(srcInstance, "types", err)
	}
	dstTypes, err := dst.Types(ctx)
	if err != nil {
		warnCategory(dstInstance, "types", err)
	}

	srcMap := make(map[string]*model.Type)
	dstMap := make(map[string]*model.Type)
	for _, t := range srcTypes {
		if f.Matches(t.Name) {
			srcMap[t.Name] = t
		}
	}
	for _, t := range dstTypes {
		if f.Matches(t.Name) {
			dstMap[t.Name] = t
		}
	}

	var diffs []ObjectDiff
	for name, st := range srcMap {
		id := model.ObjectID{Kind: model.KindType, Name: name}
		dt, ok := dstMap[name]
		if !ok {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Missing, Severity: Info,
				SourceDefinition: typeSummary(st), SourceObject: st,
			})
			continue
		}
		if attrs := compareTypes(st, dt); len(attrs) > 0 {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Modified, Severity: severityForAttrs(attrs),
				Attributes:   attrs,
				SourceObject: st, DestinationObject: dt,
			})
		}
	}
	for name, dt := range dstMap {
		if _, ok := srcMap[name]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindType, Name: name},
				Type: Extra, Severity: Breaking,
				DestinationDefinition: typeSummary(dt), DestinationObject: dt,
			})
		}
	}
	return diffs
}

func typeSummary(t *model.Type) string {
	switch t.Kind {
	case model.TypeKindEnum:
		return "ENUM (" + strings.Join(t.EnumLabels, ", ") + ")"
	case model.TypeKindComposite:
		parts := make([]string, 0, len(t.Attributes))
		for _, a := range t.Attributes {
			parts = append(parts, a.Name+" "+a.DataType)
		}
		return "COMPOSITE (" + strings.Join(parts, ", ") + ")"
	case model.TypeKindDomain:
		return "DOMAIN AS " + t.BaseType
	}
	return string(t.Kind)
}

// compareTypes produces attribute differences between two same-named types.
// Expressions (domain defaults and checks) compare as catalog-rendered text.
func compareTypes(src, dst *model.Type) []AttributeDiff {
	var attrs []AttributeDiff
	if src.Kind != dst.Kind {
		attrs = append(attrs, AttributeDiff{Name: "kind", SourceValue: string(src.Kind), DestinationValue: string(dst.Kind)})
		return attrs
	}

	switch src.Kind {
	case model.TypeKindEnum:
		srcLabels := strings.Join(src.EnumLabels, ",")
		dstLabels := strings.Join(dst.EnumLabels, ",")
		if srcLabels != dstLabels {
			removed := len(missingStrings(dst.EnumLabels, src.EnumLabels)) > 0
			attrs = append(attrs, AttributeDiff{
				Name: "enum_labels", SourceValue: srcLabels, DestinationValue: dstLabels, Removed: removed,
			})
		}
	case model.TypeKindComposite:
		srcAttrs := compositeSummary(src.Attributes)
		dstAttrs := compositeSummary(dst.Attributes)
		if srcAttrs != dstAttrs {
			attrs = append(attrs, AttributeDiff{
				Name: "attributes", SourceValue: srcAttrs, DestinationValue: dstAttrs,
				Removed: len(src.Attributes) < len(dst.Attributes),
			})
		}
	case model.TypeKindDomain:
		if src.BaseType != dst.BaseType {
			attrs = append(attrs, AttributeDiff{Name: "base_type", SourceValue: src.BaseType, DestinationValue: dst.BaseType})
		}
		if src.NotNull != dst.NotNull {
			attrs = append(attrs, AttributeDiff{
				Name: "not_null", SourceValue: strconv.FormatBool(src.NotNull), DestinationValue: strconv.FormatBool(dst.NotNull),
				Removed: !src.NotNull && dst.NotNull,
			})
		}
		if src.Default != dst.Default {
			attrs = append(attrs, AttributeDiff{
				Name: "default", SourceValue: src.Default, DestinationValue: dst.Default,
				Removed: src.Default == "" && dst.Default != "",
			})
		}
		if src.CheckExpr != dst.CheckExpr {
			attrs = append(attrs, AttributeDiff{
				Name: "check", SourceValue: src.CheckExpr, DestinationValue: dst.CheckExpr,
				Removed: src.CheckExpr == "" && dst.CheckExpr != "",
			})
		}
	}

	if src.Comment != dst.Comment {
		attrs = append(attrs, AttributeDiff{Name: "comment", SourceValue: src.Comment, DestinationValue: dst.Comment})
	}
	return attrs
}

func compositeSummary(attrs []*model.TypeColumn) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, a.Name+" "+a.DataType)
	}
	return strings.Join(parts, ",")
}

// missingStrings returns the members of want absent from have, in want order.
func missingStrings(want, have []string) []string {
	present := make(map[string]bool, len(have))
	for _, h := range have {
		present[h] = true
	}
	var missing []string
	for _, w := range want {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	return missing
}

func (e *Engine) diffSequences(ctx context.Context, srcInstance, dstInstance string, src, dst *extract.Extractor, f *Filter) []ObjectDiff {
	srcSeqs, err := src.Sequences(ctx)
	if err != nil {
		warnCategory(srcInstance, "sequences", err)
	}
	dstSeqs, err := dst.Sequences(ctx)
	if err != nil {
		warnCategory(dstInstance, "sequences", err)
	}

	srcMap := make(map[string]*model.Sequence)
	dstMap := make(map[string]*model.Sequence)
	for _, s := range srcSeqs {
		if f.Matches(s.Name) {
			srcMap[s.Name] = s
		}
	}
	for _, s := range dstSeqs {
		if f.Matches(s.Name) {
			dstMap[s.Name] = s
		}
	}

	var diffs []ObjectDiff
	for name, ss := range srcMap {
		id := model.ObjectID{Kind: model.KindSequence, Name: name}
		ds, ok := dstMap[name]
		if !ok {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Missing, Severity: Info,
				SourceDefinition: ss.DataType, SourceObject: ss,
			})
			continue
		}
		if attrs := compareSequences(ss, ds); len(attrs) > 0 {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Modified, Severity: severityForAttrs(attrs),
				Attributes:   attrs,
				SourceObject: ss, DestinationObject: ds,
			})
		}
	}
	for name, ds := range dstMap {
		if _, ok := srcMap[name]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: model.KindSequence, Name: name},
				Type: Extra, Severity: Breaking,
				DestinationDefinition: ds.DataType, DestinationObject: ds,
			})
		}
	}
	return diffs
}

func compareSequences(src, dst *model.Sequence) []AttributeDiff {
	var attrs []AttributeDiff
	if src.DataType != dst.DataType {
		attrs = append(attrs, AttributeDiff{Name: "data_type", SourceValue: src.DataType, DestinationValue: dst.DataType})
	}
	if src.StartValue != dst.StartValue {
		attrs = append(attrs, AttributeDiff{Name: "start_value", SourceValue: formatInt(src.StartValue), DestinationValue: formatInt(dst.StartValue)})
	}
	if src.Increment != dst.Increment {
		attrs = append(attrs, AttributeDiff{Name: "increment", SourceValue: formatInt(src.Increment), DestinationValue: formatInt(dst.Increment)})
	}
	if sv, dv := formatIntPtr(src.MinValue), formatIntPtr(dst.MinValue); sv != dv {
		attrs = append(attrs, AttributeDiff{Name: "min_value", SourceValue: sv, DestinationValue: dv})
	}
	if sv, dv := formatIntPtr(src.MaxValue), formatIntPtr(dst.MaxValue); sv != dv {
		attrs = append(attrs, AttributeDiff{Name: "max_value", SourceValue: sv, DestinationValue: dv})
	}
	if src.CacheSize != dst.CacheSize {
		attrs = append(attrs, AttributeDiff{Name: "cache_size", SourceValue: formatInt(src.CacheSize), DestinationValue: formatInt(dst.CacheSize)})
	}
	if src.Cycle != dst.Cycle {
		attrs = append(attrs, AttributeDiff{Name: "cycle", SourceValue: strconv.FormatBool(src.Cycle), DestinationValue: strconv.FormatBool(dst.Cycle)})
	}
	return attrs
}

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func formatIntPtr(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func (e *Engine) diffViews(ctx context.Context, srcInstance, dstInstance string, src, dst *extract.Extractor, f *Filter) []ObjectDiff {
	srcViews, err := src.Views(ctx)
	if err != nil {
		warnCategory(srcInstance, "views", err)
	}
	dstViews, err := dst.Views(ctx)
	if err != nil {
		warnCategory(dstInstance, "views", err)
	}

	srcMap := make(map[string]*model.View)
	dstMap := make(map[string]*model.View)
	for _, v := range srcViews {
		if f.Matches(v.Name) {
			srcMap[v.Name] = v
		}
	}
	for _, v := range dstViews {
		if f.Matches(v.Name) {
			dstMap[v.Name] = v
		}
	}

	var diffs []ObjectDiff
	for name, sv := range srcMap {
		id := model.ObjectID{Kind: viewKind(sv), Name: name}
		dv, ok := dstMap[name]
		if !ok {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Missing, Severity: Info,
				SourceDefinition: sv.Definition, SourceObject: sv,
			})
			continue
		}
		var attrs []AttributeDiff
		if sv.IsMaterialized != dv.IsMaterialized {
			attrs = append(attrs, AttributeDiff{
				Name: "materialized", SourceValue: strconv.FormatBool(sv.IsMaterialized), DestinationValue: strconv.FormatBool(dv.IsMaterialized),
			})
		}
		// Definition text is compared verbatim as rendered by the catalog.
		if sv.Definition != dv.Definition {
			attrs = append(attrs, AttributeDiff{Name: "definition", SourceValue: sv.Definition, DestinationValue: dv.Definition})
		}
		if sv.Comment != dv.Comment {
			attrs = append(attrs, AttributeDiff{Name: "comment", SourceValue: sv.Comment, DestinationValue: dv.Comment})
		}
		if len(attrs) > 0 {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Modified, Severity: severityForAttrs(attrs),
				Attributes:   attrs,
				SourceObject: sv, DestinationObject: dv,
			})
		}
	}
	for name, dv := range dstMap {
		if _, ok := srcMap[name]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: viewKind(dv), Name: name},
				Type: Extra, Severity: Breaking,
				DestinationDefinition: dv.Definition, DestinationObject: dv,
			})
		}
	}
	return diffs
}

func viewKind(v *model.View) model.ObjectKind {
	if v.IsMaterialized {
		return model.KindMaterializedView
	}
	return model.KindView
}

func (e *Engine) diffFunctions(ctx context.Context, srcInstance, dstInstance string, src, dst *extract.Extractor, f *Filter) []ObjectDiff {
	srcFns, err := src.Functions(ctx)
	if err != nil {
		warnCategory(srcInstance, "functions", err)
	}
	dstFns, err := dst.Functions(ctx)
	if err != nil {
		warnCategory(dstInstance, "functions", err)
	}

	// Keyed by full signature so overloads compare independently.
	srcMap := make(map[string]*model.Function)
	dstMap := make(map[string]*model.Function)
	for _, fn := range srcFns {
		if f.Matches(fn.Name) {
			srcMap[fn.Signature()] = fn
		}
	}
	for _, fn := range dstFns {
		if f.Matches(fn.Name) {
			dstMap[fn.Signature()] = fn
		}
	}

	var diffs []ObjectDiff
	for sig, sf := range srcMap {
		id := model.ObjectID{Kind: routineKind(sf), Name: sig}
		df, ok := dstMap[sig]
		if !ok {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Missing, Severity: Info,
				SourceDefinition: sf.Definition, SourceObject: sf,
			})
			continue
		}
		if attrs := compareFunctions(sf, df); len(attrs) > 0 {
			diffs = append(diffs, ObjectDiff{
				ID: id, Type: Modified, Severity: severityForAttrs(attrs),
				Attributes:   attrs,
				SourceObject: sf, DestinationObject: df,
			})
		}
	}
	for sig, df := range dstMap {
		if _, ok := srcMap[sig]; !ok {
			diffs = append(diffs, ObjectDiff{
				ID:   model.ObjectID{Kind: routineKind(df), Name: sig},
				Type: Extra, Severity: Breaking,
				DestinationDefinition: df.Definition, DestinationObject: df,
			})
		}
	}
	return diffs
}

func routineKind(f *model.Function) model.ObjectKind {
	if f.IsProcedure {
		return model.KindProcedure
	}
	return model.KindFunction
}

func compareFunctions(src, dst *model.Function) []AttributeDiff {
	var attrs []AttributeDiff
	if src.ReturnType != dst.ReturnType {
		attrs = append(attrs, AttributeDiff{Name: "return_type", SourceValue: src.ReturnType, DestinationValue: dst.ReturnType})
	}
	if src.Language != dst.Language {
		attrs = append(attrs, AttributeDiff{Name: "language", SourceValue: src.Language, DestinationValue: dst.Language})
	}
	if src.Definition != dst.Definition {
		attrs = append(attrs, AttributeDiff{Name: "definition", SourceValue: src.Definition, DestinationValue: dst.Definition})
	}
	if src.Volatility != dst.Volatility {
		attrs = append(attrs, AttributeDiff{Name: "volatility", SourceValue: src.Volatility, DestinationValue: dst.Volatility})
	}
	if src.IsStrict != dst.IsStrict {
		attrs = append(attrs, AttributeDiff{Name: "strict", SourceValue: strconv.FormatBool(src.IsStrict), DestinationValue: strconv.FormatBool(dst.IsStrict)})
	}
	if src.IsSecurityDefiner != dst.IsSecurityDefiner {
		attrs = append(attrs, AttributeDiff{Name: "security_definer", SourceValue: strconv.FormatBool(src.IsSecurityDefiner), DestinationValue: strconv.FormatBool(dst.IsSecurityDefiner)})
	}
	return attrs
}

// severityForAttrs applies the attribute severity rules: any removal is at
// least WARNING, a data type change is WARNING, everything else INFO.
func severityForAttrs(attrs []AttributeDiff) Severity {
	sev := Info
	for _, a := range attrs {
		if a.Removed {
			sev = maxSeverity(sev, Warning)
		}
		if a.Name == "data_type" || a.Name == "base_type" {
			sev = maxSeverity(sev, Warning)
		}
	}
	return sev
}
