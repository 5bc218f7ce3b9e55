package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsWithNoOverrides(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxSessionsPerUser != 5 {
		t.Fatalf("expected default max sessions 5, got %d", cfg.MaxSessionsPerUser)
	}
	if cfg.ToolTimeout != 300*time.Second {
		t.Fatalf("expected default tool timeout 300s, got %s", cfg.ToolTimeout)
	}
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("DBGMCP_MAX_SESSIONS_PER_USER", "2")
	t.Setenv("DBGMCP_API_KEY", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxSessionsPerUser != 2 {
		t.Fatalf("expected env override to 2, got %d", cfg.MaxSessionsPerUser)
	}
	if cfg.APIKey != "secret" {
		t.Fatalf("expected api key from env, got %q", cfg.APIKey)
	}
}

func TestLoadYAMLFileOverridesDefaultsButNotEnv(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.yaml"
	if err := os.WriteFile(path, []byte("max_sessions_per_user: 9\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxSessionsPerUser != 9 {
		t.Fatalf("expected yaml override to 9, got %d", cfg.MaxSessionsPerUser)
	}

	t.Setenv("DBGMCP_MAX_SESSIONS_PER_USER", "3")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxSessionsPerUser != 3 {
		t.Fatalf("expected env to win over yaml, got %d", cfg.MaxSessionsPerUser)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
}
