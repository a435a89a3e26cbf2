package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 9090
database:
  path: /data/wess.db
  dev_path: /data/wess-dev.db
reader:
  cache_size: 100
  channel_size: 50
writer:
  channel_size: 25
runner:
  cache_size: 64
  channel_size: 64
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Reader.CacheSize != 100 || cfg.Writer.ChannelSize != 25 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.DatabasePath(false) != "/data/wess.db" {
		t.Fatalf("DatabasePath(false) = %q", cfg.DatabasePath(false))
	}
	if cfg.DatabasePath(true) != "/data/wess-dev.db" {
		t.Fatalf("DatabasePath(true) = %q", cfg.DatabasePath(true))
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /data/wess.db
  dev_path: /data/wess-dev.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := Default()
	if cfg.Server.Port != d.Server.Port || cfg.Reader.CacheSize != d.Reader.CacheSize {
		t.Fatalf("cfg = %+v, want defaults applied", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
database:
  path: /data/wess.db
  dev_path: /data/wess-dev.db
bogus_top_level_key: true
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("Load with unknown key succeeded, want strict-decode error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("Load(missing file) err = nil")
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: -1},
	}
	errs := cfg.Validate()
	if len(errs) < 2 {
		t.Fatalf("Validate() = %v, want multiple violations reported together", errs)
	}
	joined := ""
	for _, e := range errs {
		joined += e.Error() + "\n"
	}
	if !strings.Contains(joined, "server.port") || !strings.Contains(joined, "database.path") {
		t.Fatalf("Validate() errors = %q, missing expected violations", joined)
	}
}
