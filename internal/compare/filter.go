package compare

import "path"

// Filter selects which object kinds and names participate in a comparison.
// A nil *Filter includes everything.
type Filter struct {
	Tables     bool `yaml:"tables"`
	Views      bool `yaml:"views"`
	Functions  bool `yaml:"functions"`
	Sequences  bool `yaml:"sequences"`
	Types      bool `yaml:"types"`
	Extensions bool `yaml:"extensions"`

	Columns           bool `yaml:"columns"`
	PrimaryKeys       bool `yaml:"primary_keys"`
	ForeignKeys       bool `yaml:"foreign_keys"`
	UniqueConstraints bool `yaml:"unique_constraints"`
	CheckConstraints  bool `yaml:"check_constraints"`
	Indexes           bool `yaml:"indexes"`
	Triggers          bool `yaml:"triggers"`

	// NamePattern restricts top-level object names: shell-style glob, or
	// empty to match everything.
	NamePattern string `yaml:"name_pattern"`
}

// IncludeAll returns a filter with every toggle enabled and no name pattern.
func IncludeAll() *Filter {
	return &Filter{
		Tables:            true,
		Views:             true,
		Functions:         true,
		Sequences:         true,
		Types:             true,
		Extensions:        true,
		Columns:           true,
		PrimaryKeys:       true,
		ForeignKeys:       true,
		UniqueConstraints: true,
		CheckConstraints:  true,
		Indexes:           true,
		Triggers:          true,
	}
}

// Matches reports whether a top-level object name passes the name predicate.
// A nil filter or empty pattern matches everything; a malformed pattern
// matches nothing rather than silently matching everything.
func (f *Filter) Matches(name string) bool {
	if f == nil || f.NamePattern == "" {
		return true
	}
	ok, err := path.Match(f.NamePattern, name)
	if err != nil {
		return false
	}
	return ok
}

// orAll returns the receiver, or an include-everything filter when nil.
func (f *Filter) orAll() *Filter {
	if f == nil {
		return IncludeAll()
	}
	return f
}
