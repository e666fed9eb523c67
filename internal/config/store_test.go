package config

import (
	"path/filepath"
	"testing"
)

func TestStore_GetSetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wapm.toml")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Set("registry.url", "https://example.com/graphql"); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get("registry.url")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.com/graphql" {
		t.Errorf("got %q", got)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := reopened.Get("registry.url"); got != "https://example.com/graphql" {
		t.Errorf("Set did not persist: got %q", got)
	}
}

func TestStore_SettingRegistryURLClearsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wapm.toml")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Set("registry.token", "sometoken"); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Get("registry.token"); got != "sometoken" {
		t.Fatalf("expected token to be set, got %q", got)
	}

	if err := store.Set("registry.url", "https://example.com/graphql"); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get("registry.token")
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("expected registry.token to be cleared when registry.url changes, got %q", got)
	}
}

func TestStore_GetUnknownKeyErrors(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "wapm.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get("nonsense.key"); err == nil {
		t.Fatal("expected an error for an unknown dotted key")
	}
}

func TestStore_GetSectionKeyErrors(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "wapm.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get("registry"); err == nil {
		t.Fatal("expected an error when the key refers to a section, not a value")
	}
}

func TestStore_SetBooleanField(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "wapm.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set("telemetry.enabled", "false"); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get("telemetry.enabled")
	if err != nil {
		t.Fatal(err)
	}
	if got != "false" {
		t.Errorf("got %q", got)
	}
}

func TestStore_SetInvalidBooleanErrors(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "wapm.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set("telemetry.enabled", "not-a-bool"); err == nil {
		t.Fatal("expected an error for an invalid boolean value")
	}
}
