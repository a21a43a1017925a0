package bootstrap_test

import (
	"path/filepath"
	"testing"

	"github.com/rankgate/rankgate/bootstrap"
)

func TestNew_EnvOnlyConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RANKGATE_DATABASE_DSN", filepath.Join(dir, "test.db"))
	t.Setenv("RANKGATE_METRICS_ENABLED", "false")

	a, err := bootstrap.New(bootstrap.Options{
		ConfigPath: filepath.Join(dir, "absent.yaml"),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Shutdown()

	if a.Admission == nil || a.Issuer == nil {
		t.Error("services not wired")
	}
	if a.HTTPServer == nil || a.HTTPServer.Handler == nil {
		t.Error("http server not wired")
	}
	if a.Metrics != nil {
		t.Error("metrics should be disabled")
	}
}

func TestNew_MetricsEnabled(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RANKGATE_DATABASE_DSN", filepath.Join(dir, "test.db"))
	t.Setenv("RANKGATE_METRICS_ENABLED", "true")

	a, err := bootstrap.New(bootstrap.Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer a.Shutdown()

	if a.Metrics == nil {
		t.Error("metrics collector should be created")
	}
}

func TestSetupLoggerFromEnv_BadLevelFallsBack(t *testing.T) {
	t.Setenv("RANKGATE_LOG_LEVEL", "chatty")

	// Must not panic; falls back to info.
	_ = bootstrap.SetupLoggerFromEnv()
}
