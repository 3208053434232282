package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"CONFIG_FILE", "SERVER_URL", "POLL_INTERVAL", "FETCH_LIMIT", "REQUEST_TIMEOUT",
	"REQUEST_RATE", "BATCH_BACKOFF_INITIAL", "BATCH_BACKOFF_MAX", "SETTINGS_DIR",
	"METRICS_ENABLED", "METRICS_PORT", "SIMILARITY_CACHE_TTL",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
	t.Setenv("SETTINGS_DIR", t.TempDir())
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ServerURL != "http://127.0.0.1:8000" {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
	if cfg.FetchLimit != 100 {
		t.Errorf("FetchLimit = %d, want 100", cfg.FetchLimit)
	}
	if cfg.RequestRate != 20 {
		t.Errorf("RequestRate = %v, want 20", cfg.RequestRate)
	}
	if cfg.BatchBackoffInitial != 250*time.Millisecond || cfg.BatchBackoffMax != 5*time.Second {
		t.Errorf("backoff = %v/%v, want 250ms/5s", cfg.BatchBackoffInitial, cfg.BatchBackoffMax)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false")
	}
	if cfg.MetricsPort != "9464" {
		t.Errorf("MetricsPort = %q, want 9464", cfg.MetricsPort)
	}
	if cfg.SimilarityCacheTTL != 5*time.Minute {
		t.Errorf("SimilarityCacheTTL = %v, want 5m", cfg.SimilarityCacheTTL)
	}
	if filepath.Base(cfg.SettingsPath) != "settings.db" {
		t.Errorf("SettingsPath = %q, want settings.db file", cfg.SettingsPath)
	}
}

func TestLoadConfigEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVER_URL", "http://indexer:9000/")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("FETCH_LIMIT", "24")
	t.Setenv("BATCH_BACKOFF_INITIAL", "0")
	t.Setenv("BATCH_BACKOFF_MAX", "0")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ServerURL != "http://indexer:9000" {
		t.Errorf("ServerURL = %q, want trailing slash trimmed", cfg.ServerURL)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %v, want 250ms", cfg.PollInterval)
	}
	if cfg.FetchLimit != 24 {
		t.Errorf("FetchLimit = %d, want 24", cfg.FetchLimit)
	}
	if cfg.BatchBackoffInitial != 0 || cfg.BatchBackoffMax != 0 {
		t.Errorf("backoff = %v/%v, want disabled", cfg.BatchBackoffInitial, cfg.BatchBackoffMax)
	}
	if !cfg.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true")
	}
}

func TestLoadConfigInvalidValuesFallBack(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("POLL_INTERVAL", "soon")
	t.Setenv("FETCH_LIMIT", "-3")
	t.Setenv("REQUEST_RATE", "fast")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %v, want 1s", cfg.PollInterval)
	}
	if cfg.FetchLimit != 100 {
		t.Errorf("FetchLimit = %d, want 100", cfg.FetchLimit)
	}
	if cfg.RequestRate != 20 {
		t.Errorf("RequestRate = %v, want 20", cfg.RequestRate)
	}
}

func TestLoadConfigFileOverlay(t *testing.T) {
	clearConfigEnv(t)

	path := filepath.Join(t.TempDir(), "explorer.yaml")
	content := "server_url: http://from-file:8000\nfetch_limit: \"50\"\npoll_interval: 2s\nmetrics_enabled: \"true\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("FETCH_LIMIT", "75")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.ServerURL != "http://from-file:8000" {
		t.Errorf("ServerURL = %q, want value from file", cfg.ServerURL)
	}
	if cfg.FetchLimit != 75 {
		t.Errorf("FetchLimit = %d, want environment to win (75)", cfg.FetchLimit)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Errorf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if !cfg.MetricsEnabled {
		t.Error("MetricsEnabled = false, want true from file")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() error = nil, want error for missing config file")
	}
}

func TestEnsureSettingsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "settings")
	cfg := &Config{SettingsDir: dir}

	if err := EnsureSettingsDir(cfg); err != nil {
		t.Fatalf("EnsureSettingsDir() error = %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("settings directory not created: %v", err)
	}
}

func TestEnsureSettingsDirRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := EnsureSettingsDir(&Config{SettingsDir: file}); err == nil {
		t.Error("EnsureSettingsDir() error = nil, want error for regular file")
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"valid", "3s", 3 * time.Second},
		{"zero", "0", 0},
		{"invalid", "nope", time.Minute},
		{"negative", "-1s", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.value)
			if got := getEnvDuration("TEST_DURATION", "1m", time.Minute); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
