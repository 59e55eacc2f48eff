// Package compare implements the schema diff engine: it extracts two
// snapshots, applies a comparison filter, and produces a flat list of object
// differences with severities. Ordering of differences is irrelevant here;
// statement ordering is a generation-time concern.
package compare

import (
	"time"

	"github.com/pgcompare/pgcompare/internal/model"
)

// DiffType classifies one object difference.
type DiffType string

const (
	// Missing means present in source, absent in destination.
	Missing DiffType = "MISSING"
	// Extra means present in destination, absent in source.
	Extra DiffType = "EXTRA"
	// Modified means present on both sides with at least one differing attribute.
	Modified DiffType = "MODIFIED"
)

// Severity grades the compatibility risk of a difference or statement.
type Severity int

const (
	Info Severity = iota
	Warning
	Breaking
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "WARNING"
	case Breaking:
		return "BREAKING"
	default:
		return "INFO"
	}
}

// AttributeDiff is one differing property within a MODIFIED object.
// Removed is true when the destination carries a value the source no longer
// has, so reconciling requires dropping it.
type AttributeDiff struct {
	Name             string `json:"name"`
	SourceValue      string `json:"source_value"`
	DestinationValue string `json:"destination_value"`
	Removed          bool   `json:"removed"`
}

// ObjectDiff is one structural discrepancy between the two snapshots.
// SourceObject and DestinationObject carry the extracted model values so the
// generator can reconstruct full definitions; the definition strings are the
// catalog-rendered text for display and fallback generation.
type ObjectDiff struct {
	ID                    model.ObjectID  `json:"id"`
	Type                  DiffType        `json:"type"`
	Severity              Severity        `json:"severity"`
	Attributes            []AttributeDiff `json:"attributes,omitempty"`
	SourceDefinition      string          `json:"source_definition,omitempty"`
	DestinationDefinition string          `json:"destination_definition,omitempty"`
	SourceObject          any             `json:"-"`
	DestinationObject     any             `json:"-"`
}

// Kind returns the object kind of the difference.
func (d *ObjectDiff) Kind() model.ObjectKind { return d.ID.Kind }

// ObjectName returns the display name, table-qualified for nested objects.
func (d *ObjectDiff) ObjectName() string { return d.ID.String() }

// Result is the outcome of one comparison run. A run with Success=false
// still carries every difference collected before the failure.
type Result struct {
	RunID               string       `json:"run_id"`
	SourceInstance      string       `json:"source_instance"`
	DestinationInstance string       `json:"destination_instance"`
	SourceSchema        string       `json:"source_schema"`
	DestinationSchema   string       `json:"destination_schema"`
	Success             bool         `json:"success"`
	ErrorMessage        string       `json:"error_message,omitempty"`
	Differences         []ObjectDiff `json:"differences"`
	ComparedAt          time.Time    `json:"compared_at"`
}

// Counts tallies the differences by type.
func (r *Result) Counts() (missing, extra, modified int) {
	for i := range r.Differences {
		switch r.Differences[i].Type {
		case Missing:
			missing++
		case Extra:
			extra++
		case Modified:
			modified++
		}
	}
	return missing, extra, modified
}

// maxSeverity returns the higher of two severities.
func maxSeverity(a, b Severity) Severity {
	if a > b {
		return a
	}
	return b
}
