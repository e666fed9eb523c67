package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateWasmFile_AcceptsValidMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.wasm")
	if err := os.WriteFile(path, wasmMagic, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateWasmFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateWasmFile_RejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.wasm")
	if err := os.WriteFile(path, []byte("not wasm"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateWasmFile(path); err == nil {
		t.Fatal("expected an error for a non-wasm file")
	}
}

func TestValidateManifestFile_ReportsMissingSource(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "wapm.toml")
	toml := `[package]
name = "demo"
version = "0.1.0"

[[module]]
name = "main"
source = "main.wasm"
`
	if err := os.WriteFile(manifestPath, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateManifestFile(manifestPath); err == nil {
		t.Fatal("expected an error since main.wasm does not exist")
	}
}

func TestValidateManifestFile_AcceptsWhenSourcesExist(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "wapm.toml")
	toml := `[package]
name = "demo"
version = "0.1.0"

[[module]]
name = "main"
source = "main.wasm"
`
	if err := os.WriteFile(manifestPath, []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.wasm"), wasmMagic, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := validateManifestFile(manifestPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
