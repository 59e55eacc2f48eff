package util

import "testing"

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("PGCOMPARE_TEST_VAR", "set")
	if got := GetEnvWithDefault("PGCOMPARE_TEST_VAR", "fallback"); got != "set" {
		t.Errorf("GetEnvWithDefault = %q", got)
	}
	if got := GetEnvWithDefault("PGCOMPARE_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnvWithDefault = %q", got)
	}
}

func TestGetEnvIntWithDefault(t *testing.T) {
	t.Setenv("PGCOMPARE_TEST_PORT", "6432")
	if got := GetEnvIntWithDefault("PGCOMPARE_TEST_PORT", 5432); got != 6432 {
		t.Errorf("GetEnvIntWithDefault = %d", got)
	}
	t.Setenv("PGCOMPARE_TEST_PORT", "not-a-number")
	if got := GetEnvIntWithDefault("PGCOMPARE_TEST_PORT", 5432); got != 5432 {
		t.Errorf("GetEnvIntWithDefault = %d", got)
	}
}
