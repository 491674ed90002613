package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnvMissingFileIsIgnored(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
}

func TestLoadDotEnvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("HTTP_ADDR=:9999\nLANE_GAMES_DOTENV_PROBE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("LANE_GAMES_DOTENV_PROBE", "")
	os.Unsetenv("LANE_GAMES_DOTENV_PROBE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("HTTP_ADDR"); got != ":7000" {
		t.Fatalf("HTTP_ADDR = %q, want :7000", got)
	}
	if got := os.Getenv("LANE_GAMES_DOTENV_PROBE"); got != "from-file" {
		t.Fatalf("probe = %q, want from-file", got)
	}
}
