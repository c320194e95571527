// Package testutil provides shared helpers for council tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// PostgresDSNEnv names the variable holding a DSN for tests that need a
// live Postgres server.
const PostgresDSNEnv = "COUNCIL_TEST_POSTGRES_DSN"

// PostgresDSN returns the test DSN, skipping the test when it is not set.
func PostgresDSN(t *testing.T) string {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv(PostgresDSNEnv))
	if dsn == "" {
		t.Skipf("%s not set, skipping test", PostgresDSNEnv)
	}
	return dsn
}

// IsolateDirs points XDG_CONFIG_HOME and XDG_DATA_HOME at fresh temporary
// directories for the duration of the test. It returns the council config
// and data directories beneath them.
func IsolateDirs(t *testing.T) (configDir, dataDir string) {
	t.Helper()

	configHome := t.TempDir()
	dataHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	return filepath.Join(configHome, "council"), filepath.Join(dataHome, "council")
}

// WriteFile creates dir if needed, writes content to dir/name and returns
// the file's path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// WriteLines writes lines joined by newlines, as found in JSONL files.
func WriteLines(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	return WriteFile(t, dir, name, strings.Join(lines, "\n"))
}

// SkipIfNoGolangciLint skips the test if golangci-lint is not installed.
func SkipIfNoGolangciLint(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("golangci-lint"); err != nil {
		t.Skip("golangci-lint not found in PATH, skipping test")
	}
}
