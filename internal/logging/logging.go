// Package logging configures the process-wide structured logger.
//
// Human-facing messages go to the command itself (fmt.Println/Fprintln in
// internal/app); this package backs the diagnostic trail that spec.md §7
// requires: a full backtrace appended to $HOME_DIR/wapm.log for every
// top-level failure, plus optional debug-level output to stderr when
// RUST_BACKTRACE is set (kept as the diagnostic env var name the original
// tool used, per spec.md §6).
package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger that writes JSON lines to logPath (created if
// missing) and, when verbose is true, also writes human-readable output to
// stderr at debug level. logPath may be empty, in which case only the
// stderr core (if verbose) is installed; a nil-safe no-op logger is
// returned when neither sink is available.
func New(logPath string, verbose bool) (*zap.Logger, error) {
	var cores []zapcore.Core

	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return zap.NewNop(), err
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zap.NewNop(), err
		}
		fileEncoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEncoder, zapcore.AddSync(f), zapcore.DebugLevel))
	}

	if verbose {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder := zapcore.NewConsoleEncoder(cfg)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stderr), zapcore.DebugLevel))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// LogPath returns the default log file location under homeDir, matching
// the layout package's $HOME_DIR/wapm.log.
func LogPath(homeDir string) string {
	return filepath.Join(homeDir, "wapm.log")
}
