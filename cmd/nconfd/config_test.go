package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nconfd/nconfd/internal/supervisor"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nconfd.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestOverridesDefinedKeys(t *testing.T) {
	path := writeManifest(t, `
models = ["/opt/nconfd/x509.yin", "  ", "/opt/nconfd/extra.yin"]
datastore_model = "/opt/nconfd/server.yin"
datastore_path = "/var/lib/nconfd/datastore.xml"
pid_file = "/run/nconfd.pid"
poll_interval = "250ms"

[[feature]]
model = "netconf-server"
name = "tls"
`)

	cfg, err := loadManifest(path, supervisor.DefaultConfig())
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}

	wantModels := []string{"/opt/nconfd/x509.yin", "/opt/nconfd/extra.yin"}
	if len(cfg.Models) != len(wantModels) {
		t.Fatalf("unexpected models: %v", cfg.Models)
	}
	for i, m := range wantModels {
		if cfg.Models[i] != m {
			t.Fatalf("unexpected models: %v", cfg.Models)
		}
	}
	if cfg.DatastoreModel != "/opt/nconfd/server.yin" {
		t.Fatalf("unexpected datastore model: %q", cfg.DatastoreModel)
	}
	if cfg.DatastorePath != "/var/lib/nconfd/datastore.xml" {
		t.Fatalf("unexpected datastore path: %q", cfg.DatastorePath)
	}
	if cfg.PidFile != "/run/nconfd.pid" {
		t.Fatalf("unexpected pid file: %q", cfg.PidFile)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval)
	}
	if len(cfg.Features) != 1 || cfg.Features[0] != (supervisor.Feature{Model: "netconf-server", Name: "tls"}) {
		t.Fatalf("unexpected features: %v", cfg.Features)
	}
}

func TestLoadManifestKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := writeManifest(t, `pid_file = "/run/nconfd.pid"`)

	base := supervisor.DefaultConfig()
	cfg, err := loadManifest(path, base)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if cfg.DatastorePath != base.DatastorePath {
		t.Fatalf("absent key must keep default, got %q", cfg.DatastorePath)
	}
	if len(cfg.Features) != len(base.Features) {
		t.Fatalf("absent features must keep defaults, got %v", cfg.Features)
	}
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := loadManifest(filepath.Join(t.TempDir(), "absent.toml"), supervisor.DefaultConfig())
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadManifestRejectsBadPollInterval(t *testing.T) {
	path := writeManifest(t, `poll_interval = "soon"`)
	if _, err := loadManifest(path, supervisor.DefaultConfig()); err == nil {
		t.Fatalf("expected error for bad poll_interval")
	}
}

func TestLoadManifestRejectsIncompleteFeature(t *testing.T) {
	path := writeManifest(t, `
[[feature]]
model = "netconf-server"
name = ""
`)
	if _, err := loadManifest(path, supervisor.DefaultConfig()); err == nil {
		t.Fatalf("expected error for incomplete feature")
	}
}
