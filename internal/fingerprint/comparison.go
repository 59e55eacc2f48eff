package fingerprint

import (
	"fmt"
)

// Compare returns an error describing the mismatch when two fingerprints
// differ, and nil when they match.
func Compare(expected, actual *Fingerprint) error {
	if Equal(expected, actual) {
		return nil
	}
	return fmt.Errorf("fingerprint mismatch - expected: %s, actual: %s",
		preview(expected), preview(actual))
}

func preview(f *Fingerprint) string {
	if f == nil {
		return "<none>"
	}
	if len(f.Hash) > 16 {
		return f.Hash[:16]
	}
	return f.Hash
}
