package run

import (
	"bytes"
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/manifest"
)

func TestRuntimeBinary_DefaultsToWasmer(t *testing.T) {
	os.Unsetenv("WAPM_RUNTIME")
	if got := RuntimeBinary(); got != "wasmer" {
		t.Errorf("RuntimeBinary() = %q, want %q", got, "wasmer")
	}
}

func TestRuntimeBinary_HonorsOverride(t *testing.T) {
	t.Setenv("WAPM_RUNTIME", "echo")
	if got := RuntimeBinary(); got != "echo" {
		t.Errorf("RuntimeBinary() = %q, want %q", got, "echo")
	}
}

func TestBuildArgv_IncludesCommandNameUnlessDisabled(t *testing.T) {
	t.Setenv("WAPM_RUNTIME", "wasmer")
	res := Resolution{
		Command:    manifest.LockfileCommand{Name: "lolcat"},
		Module:     manifest.LockfileModule{Abi: string(manifest.ABIWasi)},
		ModuleFile: "/pkgs/lolcat/lolcat.wasm",
	}

	argv := BuildArgv(res, []string{"-V"})
	want := []string{"wasmer", "--wasi", "/pkgs/lolcat/lolcat.wasm", "--command-name", "lolcat", "-V"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("BuildArgv() = %v, want %v", argv, want)
	}

	res.DisableRename = true
	argv = BuildArgv(res, []string{"-V"})
	want = []string{"wasmer", "--wasi", "/pkgs/lolcat/lolcat.wasm", "-V"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("BuildArgv() with disable_rename = %v, want %v", argv, want)
	}
}

func TestBuildArgv_IncludesMainArgs(t *testing.T) {
	t.Setenv("WAPM_RUNTIME", "wasmer")
	res := Resolution{
		Command:    manifest.LockfileCommand{Name: "tool", MainArgs: "--flag value"},
		ModuleFile: "/pkgs/tool/tool.wasm",
	}
	argv := BuildArgv(res, nil)
	want := []string{"wasmer", "/pkgs/tool/tool.wasm", "--command-name", "tool", "--flag", "value"}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("BuildArgv() = %v, want %v", argv, want)
	}
}

func TestRun_PropagatesExitCode(t *testing.T) {
	t.Setenv("WAPM_RUNTIME", "false")
	res := Resolution{
		Command:       manifest.LockfileCommand{Name: "fail"},
		ModuleFile:    "unused-arg",
		DisableRename: true,
	}
	var stdout, stderr bytes.Buffer
	code, err := Run(context.Background(), res, nil, nil, &stdout, &stderr)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if code != 1 {
		t.Errorf("Run() exit code = %d, want 1 from the `false` binary", code)
	}
}

func TestRun_MissingRuntime_ReturnsRuntimeMissing(t *testing.T) {
	t.Setenv("WAPM_RUNTIME", "wapm-runtime-that-does-not-exist")
	res := Resolution{
		Command:    manifest.LockfileCommand{Name: "x"},
		ModuleFile: "mod.wasm",
	}
	var stdout, stderr bytes.Buffer
	_, err := Run(context.Background(), res, nil, nil, &stdout, &stderr)
	if !errs.Is(err, errs.RuntimeMissing) {
		t.Fatalf("Run() error = %v, want errs.RuntimeMissing", err)
	}
}
