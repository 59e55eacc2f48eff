// Package fingerprint derives stable digests of snapshots and comparison
// results. Two snapshots with identical structure produce identical
// fingerprints, so stored history can cheaply detect when a schema changed
// between runs without replaying the full diff.
package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgcompare/pgcompare/internal/compare"
	"github.com/pgcompare/pgcompare/internal/model"
)

// Fingerprint is a SHA256 digest over canonical JSON.
type Fingerprint struct {
	Hash string `json:"hash"`
}

// Snapshot fingerprints one extracted schema. The snapshot timestamp and
// instance label are excluded so that structurally identical schemas hash
// identically regardless of where or when they were captured.
func Snapshot(snap *model.Snapshot) (*Fingerprint, error) {
	shadow := *snap
	shadow.Instance = ""
	shadow.TakenAt = time.Time{}
	return hashObject(&shadow)
}

// Result fingerprints the difference set of a comparison run. Runs that found
// the same differences hash identically even across distinct run IDs, which
// is what drift detection compares.
func Result(r *compare.Result) (*Fingerprint, error) {
	return hashObject(r.Differences)
}

func hashObject(obj any) (*Fingerprint, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to compute fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return &Fingerprint{Hash: fmt.Sprintf("%x", sum)}, nil
}

// Equal reports whether two fingerprints match. A nil fingerprint never
// matches anything.
func Equal(a, b *Fingerprint) bool {
	return a != nil && b != nil && a.Hash == b.Hash
}

// String returns a short human-readable preview of the digest.
func (f *Fingerprint) String() string {
	if len(f.Hash) >= 8 {
		return f.Hash[:8]
	}
	return f.Hash
}
