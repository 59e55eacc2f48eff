package pgcompare

import (
	"context"

	"github.com/pgcompare/pgcompare/internal/compare"
	"github.com/pgcompare/pgcompare/internal/generate"
)

// CompareSchemas is a convenience function comparing one schema between two
// instances with everything included.
func CompareSchemas(ctx context.Context, source, destination DatabaseConfig, schema string) (*compare.Result, error) {
	client := NewClient(map[string]DatabaseConfig{
		"source":      source,
		"destination": destination,
	})
	defer client.Close()

	result, _, err := client.Compare(ctx, CompareOptions{
		Source:       "source",
		Destination:  "destination",
		SourceSchema: schema,
	})
	return result, err
}

// MigrationSQL is a convenience function producing the rendered migration
// script for a schema between two instances. DROPs for destination-only
// objects are generated only when includeDrops is set.
func MigrationSQL(ctx context.Context, source, destination DatabaseConfig, schema string, includeDrops bool) (string, error) {
	client := NewClient(map[string]DatabaseConfig{
		"source":      source,
		"destination": destination,
	})
	defer client.Close()

	result, _, err := client.Compare(ctx, CompareOptions{
		Source:       "source",
		Destination:  "destination",
		SourceSchema: schema,
	})
	if err != nil {
		return "", err
	}
	script := client.Script(result, ScriptOptions{
		Wrap:         generate.WrapTransaction,
		IncludeDrops: includeDrops,
	})
	return script.SQL(), nil
}
