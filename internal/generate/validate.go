package generate

import (
	"fmt"
	"strings"

	pgquery "github.com/pganalyze/pg_query_go/v6"
)

// ValidateScript parses every generated statement with the PostgreSQL parser
// and returns one error per statement that fails to parse. Placeholder
// comments are skipped; they are deliberately not executable. Validation is
// advisory and never mutates the script.
func ValidateScript(script *Script) []error {
	var errs []error
	for i := range script.Statements {
		st := &script.Statements[i]
		if isPlaceholder(st.DDL) {
			continue
		}
		if _, err := pgquery.Parse(st.DDL); err != nil {
			errs = append(errs, fmt.Errorf("statement %d (%s %s): %w", st.Order, st.Kind, st.ObjectName, err))
		}
	}
	return errs
}

// ValidateSQL parses a raw SQL text, typically a rendered script, and reports
// whether it is syntactically valid as a whole.
func ValidateSQL(sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	_, err := pgquery.Parse(sql)
	return err
}
