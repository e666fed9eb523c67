package run

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/manifest"
)

// RuntimeBinary returns $WAPM_RUNTIME if set, else "wasmer" to be resolved
// against $PATH, per spec.md §4.G.
func RuntimeBinary() string {
	if bin := os.Getenv("WAPM_RUNTIME"); bin != "" {
		return bin
	}
	return "wasmer"
}

// abiFlags returns the runtime flags derived from a module's abi, mirroring
// wasmer's own convention of an explicit --wasi flag for WASI modules and
// no special flag for emscripten or abi-less modules.
func abiFlags(abi manifest.ABI) []string {
	switch abi {
	case manifest.ABIWasi:
		return []string{"--wasi"}
	default:
		return nil
	}
}

// BuildArgv constructs the runtime's argv per spec.md §4.G:
// [runtime] [abi flags] [module_file] [--command-name <name> unless disable_rename] [main_args] [user args].
func BuildArgv(res Resolution, userArgs []string) []string {
	argv := []string{RuntimeBinary()}
	argv = append(argv, abiFlags(manifest.ABI(res.Module.Abi))...)
	argv = append(argv, res.ModuleFile)

	if !res.DisableRename {
		argv = append(argv, "--command-name", res.Command.Name)
	}
	if res.Command.MainArgs != "" {
		argv = append(argv, splitArgs(res.Command.MainArgs)...)
	}
	argv = append(argv, userArgs...)
	return argv
}

// splitArgs splits a manifest's whitespace-separated main-args string.
// Quoting is intentionally not supported: main-args in the wild is a
// simple flag list, and shell-style quoting would need a real parser this
// field has never needed.
func splitArgs(s string) []string {
	var args []string
	start := -1
	for i := 0; i <= len(s); i++ {
		isSpace := i == len(s) || s[i] == ' ' || s[i] == '\t'
		if !isSpace && start < 0 {
			start = i
		} else if isSpace && start >= 0 {
			args = append(args, s[start:i])
			start = -1
		}
	}
	return args
}

// Run spawns the resolved command's runtime, inheriting the invoking
// process's working directory (spec.md §4.G: "the module sees mapped-in fs
// mounts" relative to cwd) and propagating its exit code.
func Run(ctx context.Context, res Resolution, userArgs []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	argv := BuildArgv(res, userArgs)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	if isNotFound(err) {
		return 0, errs.Newf(errs.RuntimeMissing, "runtime %q not found; install wasmer or set $WAPM_RUNTIME", argv[0])
	}
	return 0, errs.Wrap(errs.Unknown, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}
