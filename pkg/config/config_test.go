package config

import (
	"path/filepath"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAPIBaseURL, "https://api.museeloquente.fr")
	t.Setenv(EnvStatePath, filepath.Join(t.TempDir(), "state.db"))
}

func TestLoadAppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.App.IsDev() {
		t.Fatalf("expected development default, got %q", cfg.App.Env)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Fatalf("expected 15s timeout default, got %s", cfg.API.Timeout)
	}
	if cfg.Payment.Environment() != "test" {
		t.Fatalf("expected test payment env default, got %q", cfg.Payment.Environment())
	}
	if cfg.Payment.ReturnURL() != "http://127.0.0.1:8787/" {
		t.Fatalf("unexpected return url %q", cfg.Payment.ReturnURL())
	}
}

func TestLoadRequiresBaseURL(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "")
	t.Setenv(EnvStatePath, filepath.Join(t.TempDir(), "state.db"))

	if _, err := Load(); err == nil {
		t.Fatal("missing base url must be rejected")
	}
}

func TestLoadRejectsNonHTTPBaseURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvAPIBaseURL, "ftp://api.museeloquente.fr")

	if _, err := Load(); err == nil {
		t.Fatal("non-http scheme must be rejected")
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPublishable, "pk_live_abc")
	t.Setenv(EnvPaymentEnv, "LIVE")
	t.Setenv(EnvCallbackPort, "9100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Fatalf("expected production, got %q", cfg.App.Env)
	}
	if cfg.Payment.Environment() != "live" {
		t.Fatalf("expected normalized live env, got %q", cfg.Payment.Environment())
	}
	if cfg.Payment.ReturnURL() != "http://127.0.0.1:9100/" {
		t.Fatalf("unexpected return url %q", cfg.Payment.ReturnURL())
	}
}

func TestStatePathDefaultsIntoUserConfigDir(t *testing.T) {
	t.Setenv(EnvAPIBaseURL, "https://api.museeloquente.fr")
	t.Setenv(EnvStatePath, "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(cfg.Storage.StatePath) != "state.db" {
		t.Fatalf("unexpected state path %q", cfg.Storage.StatePath)
	}
}
