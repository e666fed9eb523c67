package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "wapm.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Registry.URL != defaultRegistryURL {
		t.Errorf("got %q", cfg.Registry.URL)
	}
	if !cfg.Telemetry.Enabled || !cfg.UpdateNotifications.Enabled {
		t.Error("expected telemetry and update notifications on by default")
	}
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wapm.toml")
	cfg := Default()
	cfg.Registry.Token = "secret"
	cfg.Proxy.URL = "http://proxy.local:8080"

	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Registry.Token != "secret" {
		t.Errorf("got %q", loaded.Registry.Token)
	}
	if loaded.Proxy.URL != "http://proxy.local:8080" {
		t.Errorf("got %q", loaded.Proxy.URL)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wapm.toml")
	if err := os.WriteFile(path, []byte("unknown_top_level_key = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected strict decoding to reject an unknown field")
	}
}
