// Package unittest has helpers for gating tests on the environment.
package unittest

import (
	"os"
	"testing"
)

// CockroachDBEmulatorHostEnvVar holds the host:port of a CockroachDB
// instance started for tests, e.g. "localhost:26257".
const CockroachDBEmulatorHostEnvVar = "COCKROACHDB_EMULATOR_HOST"

// RequiresCockroachDB skips the test unless a CockroachDB emulator is
// configured, and returns its host.
func RequiresCockroachDB(t testing.TB) string {
	host := os.Getenv(CockroachDBEmulatorHostEnvVar)
	if host == "" {
		t.Skipf("%s is not set", CockroachDBEmulatorHostEnvVar)
	}
	return host
}
