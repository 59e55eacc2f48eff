package fingerprint

import (
	"strings"
	"testing"
)

func TestCompareMatching(t *testing.T) {
	a := &Fingerprint{Hash: "deadbeef"}
	b := &Fingerprint{Hash: "deadbeef"}
	if err := Compare(a, b); err != nil {
		t.Errorf("matching fingerprints must compare clean: %v", err)
	}
}

func TestCompareMismatch(t *testing.T) {
	a := &Fingerprint{Hash: strings.Repeat("a", 64)}
	b := &Fingerprint{Hash: strings.Repeat("b", 64)}
	err := Compare(a, b)
	if err == nil {
		t.Fatal("expected a mismatch error")
	}
	// Previews are truncated so logs stay readable.
	if strings.Contains(err.Error(), strings.Repeat("a", 64)) {
		t.Errorf("error should preview, not dump, the hash: %v", err)
	}
}

func TestCompareNil(t *testing.T) {
	if err := Compare(nil, &Fingerprint{Hash: "x"}); err == nil {
		t.Error("nil fingerprints never match")
	}
}
