package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvConfigFile, EnvPort, EnvLogLevel, EnvLogFormat, EnvDataDir,
		EnvRenderURL, EnvRenderToken, EnvRenderTimeout, EnvHeadless, EnvHistoryLimit,
	} {
		t.Setenv(key, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogFormat() != DefaultLogFormat {
		t.Errorf("LogFormat() = %q", cfg.LogFormat())
	}
	if cfg.RenderURL() != "" {
		t.Errorf("RenderURL() = %q, want empty", cfg.RenderURL())
	}
	if cfg.RenderTimeout() != DefaultRenderTimeout*time.Second {
		t.Errorf("RenderTimeout() = %v", cfg.RenderTimeout())
	}
	if cfg.HistoryLimit() != DefaultHistoryLimit {
		t.Errorf("HistoryLimit() = %d", cfg.HistoryLimit())
	}
	if cfg.Headless() {
		t.Error("Headless() = true by default")
	}
	if filepath.Base(cfg.DBPath()) != DBFilename || filepath.Base(cfg.LockPath()) != LockFilename {
		t.Errorf("DBPath() = %q, LockPath() = %q", cfg.DBPath(), cfg.LockPath())
	}
}

func TestNew_FromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvPort, "9090")
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvRenderURL, "http://render.local/")
	t.Setenv(EnvRenderToken, "secret")
	t.Setenv(EnvRenderTimeout, "5s")
	t.Setenv(EnvHeadless, "true")
	t.Setenv(EnvHistoryLimit, "0")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9090 {
		t.Errorf("Port() = %d", cfg.Port())
	}
	if cfg.DBPath() != filepath.Join(dir, DBFilename) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.RenderURL() != "http://render.local" {
		t.Errorf("RenderURL() = %q, want trailing slash trimmed", cfg.RenderURL())
	}
	if cfg.RenderToken() != "secret" || cfg.RenderTimeout() != 5*time.Second {
		t.Errorf("render = %q, %v", cfg.RenderToken(), cfg.RenderTimeout())
	}
	if !cfg.Headless() || cfg.HistoryLimit() != 0 {
		t.Errorf("Headless() = %v, HistoryLimit() = %d", cfg.Headless(), cfg.HistoryLimit())
	}
}

func TestNew_InvalidEnv(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{EnvPort, "abc"},
		{EnvPort, "70000"},
		{EnvRenderTimeout, "soon"},
		{EnvRenderTimeout, "-1s"},
		{EnvHeadless, "maybe"},
		{EnvHistoryLimit, "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := New(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "studio.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNew_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port = 7000
log_level = "debug"
headless = true

[history]
limit = 50

[render]
url = "http://file.local"
timeout_seconds = 12
`)
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvPort, "7100")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.File() != path {
		t.Errorf("File() = %q", cfg.File())
	}
	if cfg.Port() != 7100 {
		t.Errorf("Port() = %d, env should win over file", cfg.Port())
	}
	if cfg.LogLevel() != "debug" || !cfg.Headless() || cfg.HistoryLimit() != 50 {
		t.Errorf("file values not applied: %q %v %d", cfg.LogLevel(), cfg.Headless(), cfg.HistoryLimit())
	}
	if cfg.RenderURL() != "http://file.local" || cfg.RenderTimeout() != 12*time.Second {
		t.Errorf("render = %q, %v", cfg.RenderURL(), cfg.RenderTimeout())
	}
}

func TestNew_BadFile(t *testing.T) {
	tests := map[string]string{
		"syntax":  "port = ",
		"port":    "port = 0x1FFFF",
		"history": "[history]\nlimit = -1",
		"timeout": "[render]\ntimeout_seconds = -4",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvConfigFile, writeFile(t, body))
			if _, err := New(); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "nope.toml"))
		if _, err := New(); err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}
