package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rankgate/rankgate/config"
	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rankgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Database.DSN != "rankgate.db" {
		t.Errorf("dsn = %s, want rankgate.db", cfg.Database.DSN)
	}
	if cfg.Auth.Header != "X-API-Key" {
		t.Errorf("auth header = %s", cfg.Auth.Header)
	}
	if cfg.Quota.Free != 10 || cfg.Quota.Starter != 500 || cfg.Quota.Pro != 5000 || cfg.Quota.Enterprise != 999999 {
		t.Errorf("unexpected default quotas: %+v", cfg.Quota)
	}
}

func TestLoad_QuotaOverrides(t *testing.T) {
	path := writeConfig(t, `
quota:
  free: 25
  pro: 10000
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	c := cfg.Quota.Ceilings()
	if c.Free != 25 {
		t.Errorf("free = %d, want 25", c.Free)
	}
	if c.Pro != 10000 {
		t.Errorf("pro = %d, want 10000", c.Pro)
	}
	if c.Starter != 500 {
		t.Errorf("starter = %d, want default 500", c.Starter)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "quota:\n  free: 25\n")

	t.Setenv("RANKGATE_QUOTA_FREE", "77")
	t.Setenv("RANKGATE_SERVER_PORT", "9100")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quota.Free != 77 {
		t.Errorf("free = %d, want env override 77", cfg.Quota.Free)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 70000\n"},
		{"bad level", "logging:\n  level: chatty\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"negative quota", "quota:\n  free: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := config.Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadWithFallback_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("RANKGATE_QUOTA_STARTER", "600")

	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quota.Starter != 600 {
		t.Errorf("starter = %d, want 600", cfg.Quota.Starter)
	}
}

func TestHolder_ReloadInvokesCallbacks(t *testing.T) {
	path := writeConfig(t, "quota:\n  free: 10\n")

	holder, err := config.NewHolder(path, testLogger())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	defer holder.Stop()

	var gotFree int64
	holder.OnChange(func(cfg *config.Config) {
		gotFree = cfg.Quota.Free
	})

	if err := os.WriteFile(path, []byte("quota:\n  free: 42\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := holder.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if gotFree != 42 {
		t.Errorf("callback saw free = %d, want 42", gotFree)
	}
	if holder.Get().Quota.Free != 42 {
		t.Errorf("holder free = %d, want 42", holder.Get().Quota.Free)
	}
}

func TestHolder_BadReloadKeepsOldConfig(t *testing.T) {
	path := writeConfig(t, "quota:\n  free: 10\n")

	holder, err := config.NewHolder(path, testLogger())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	defer holder.Stop()

	if err := os.WriteFile(path, []byte("quota:\n  free: -5\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if err := holder.Reload(); err == nil {
		t.Error("expected reload error")
	}
	if holder.Get().Quota.Free != 10 {
		t.Errorf("old config should survive a bad reload, free = %d", holder.Get().Quota.Free)
	}
}
