package run

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wapmhq/wapm/internal/layout"
	"github.com/wapmhq/wapm/internal/manifest"
)

func writeLockfile(t *testing.T, scope layout.Scope, lock *manifest.Lockfile) {
	t.Helper()
	if err := os.MkdirAll(scope.Root, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := manifest.WriteLockfile(scope.LockfilePath, lock); err != nil {
		t.Fatalf("WriteLockfile failed: %v", err)
	}
}

func lockfileWithCommand(name, pkg, version, module, source string) *manifest.Lockfile {
	lock := manifest.New()
	lock.Modules[manifest.ModuleKey(pkg, version, module)] = manifest.LockfileModule{
		Package: pkg, PackageVersion: version, Name: module, Source: source,
	}
	lock.Commands[name] = manifest.LockfileCommand{
		Name: name, Package: pkg, Version: version, Module: module, IsTopLevel: true,
	}
	return lock
}

func TestResolve_PrefersProjectOverGlobal(t *testing.T) {
	projectDir := t.TempDir()
	globalDir := t.TempDir()
	project := layout.ProjectScope(projectDir)
	global := layout.GlobalScope(globalDir)

	writeLockfile(t, project, lockfileWithCommand("tool", "ns/tool", "1.0.0", "tool", "wapm_packages/ns/tool@1.0.0/tool.wasm"))
	writeLockfile(t, global, lockfileWithCommand("tool", "ns/tool", "2.0.0", "tool", "wapm_packages/ns/tool@2.0.0/tool.wasm"))

	r := NewResolver(project, true, global)
	res, err := r.Resolve("tool")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if res.Module.PackageVersion != "1.0.0" {
		t.Errorf("Resolve() picked version %s, want project's 1.0.0", res.Module.PackageVersion)
	}
	wantPath := filepath.Join(project.Root, "wapm_packages/ns/tool@1.0.0/tool.wasm")
	if res.ModuleFile != wantPath {
		t.Errorf("ModuleFile = %s, want %s", res.ModuleFile, wantPath)
	}
}

func TestResolve_FallsBackToGlobal(t *testing.T) {
	globalDir := t.TempDir()
	global := layout.GlobalScope(globalDir)
	writeLockfile(t, global, lockfileWithCommand("tool", "ns/tool", "2.0.0", "tool", "wapm_packages/ns/tool@2.0.0/tool.wasm"))

	r := NewResolver(layout.Scope{}, false, global)
	res, err := r.Resolve("tool")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if res.Module.PackageVersion != "2.0.0" {
		t.Errorf("Resolve() picked version %s, want global's 2.0.0", res.Module.PackageVersion)
	}
}

func TestResolve_UnknownCommand_ReturnsResolutionError(t *testing.T) {
	globalDir := t.TempDir()
	global := layout.GlobalScope(globalDir)
	writeLockfile(t, global, manifest.New())

	r := NewResolver(layout.Scope{}, false, global)
	if _, err := r.Resolve("missing"); err == nil {
		t.Fatal("Resolve() should fail for a command absent from every scope")
	}
}
