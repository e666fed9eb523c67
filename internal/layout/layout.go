// Package layout defines wapm's canonical on-disk paths: the home
// directory, the two install scopes (project and global), the key
// database, and the execute cache — spec.md §4.B.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	globalDirName    = "globals"
	packagesDirName  = "wapm_packages"
	lockfileName     = "wapm.lock"
	manifestName     = "wapm.toml"
	keyDBName        = "wapm.sqlite"
	waxIndexName     = ".wax_index.toml"
	logFileName      = "wapm.log"
	scopeLockSuffix  = ".lock"
	stagingDirPrefix = ".staging-"
	trashDirPrefix   = ".trash-"
)

// HomeDir returns wapm's home directory: $WASMER_DIR if set, otherwise
// "<user home>/.wasmer". It is created if missing.
func HomeDir() (string, error) {
	if dir := os.Getenv("WASMER_DIR"); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("cannot create WASMER_DIR %s: %w", dir, err)
		}
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home directory: %w", err)
	}

	dir := filepath.Join(home, ".wasmer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return dir, nil
}

// KeyDBPath returns $HOME_DIR/wapm.sqlite.
func KeyDBPath(homeDir string) string {
	return filepath.Join(homeDir, keyDBName)
}

// WaxIndexPath returns $HOME_DIR/.wax_index.toml.
func WaxIndexPath(homeDir string) string {
	return filepath.Join(homeDir, waxIndexName)
}

// ConfigPath returns $CONFIG_DIR/wapm.toml. Today $CONFIG_DIR is $HOME_DIR;
// kept as a distinct function since the two are conceptually different
// (spec.md §4.A vs §4.B) and historically diverge in the original tool.
func ConfigPath(homeDir string) string {
	return filepath.Join(homeDir, manifestName)
}

// LogPath returns $HOME_DIR/wapm.log.
func LogPath(homeDir string) string {
	return filepath.Join(homeDir, logFileName)
}

// Scope is either the global install root or a project's install root.
// Both are represented by the same type and selected by a flag at the
// call site (Design Notes: avoid duplicated codepaths).
type Scope struct {
	// Name is "global" or "project", used only for diagnostics.
	Name string
	// Root is the scope's root directory (contains the lockfile and the
	// wapm_packages/ tree).
	Root string
	// ManifestPath is the wapm.toml for this scope. Only the project scope
	// has an author-managed manifest; the global scope's manifest path may
	// not exist (global installs are not manifest-driven).
	ManifestPath string
	// LockfilePath is the wapm.lock for this scope.
	LockfilePath string
	// PackagesDir is the wapm_packages/ tree root for this scope.
	PackagesDir string
}

// lockFilePath returns the path to the file lock guarding the scope
// (spec.md §5): "<scope>/wapm.lock.lock".
func (s Scope) lockFilePath() string {
	return s.LockfilePath + scopeLockSuffix
}

// InstallDir returns the on-disk install directory for a package within
// this scope: <PackagesDir>/<namespace>/<name>@<version>.
func (s Scope) InstallDir(namespace, name, version string) string {
	return filepath.Join(s.PackagesDir, namespace, fmt.Sprintf("%s@%s", name, version))
}

// GlobalScope returns the Scope rooted at $HOME_DIR/globals.
func GlobalScope(homeDir string) Scope {
	root := filepath.Join(homeDir, globalDirName)
	return Scope{
		Name:         "global",
		Root:         root,
		ManifestPath: filepath.Join(root, manifestName),
		LockfilePath: filepath.Join(root, lockfileName),
		PackagesDir:  filepath.Join(root, packagesDirName),
	}
}

// ProjectScope returns the Scope rooted at dir directly, without walking
// upward. Use FindProjectScope to discover the nearest ancestor manifest.
func ProjectScope(dir string) Scope {
	return Scope{
		Name:         "project",
		Root:         dir,
		ManifestPath: filepath.Join(dir, manifestName),
		LockfilePath: filepath.Join(dir, lockfileName),
		PackagesDir:  filepath.Join(dir, packagesDirName),
	}
}

// FindProjectScope walks upward from startDir looking for the nearest
// ancestor directory containing a wapm.toml manifest, per spec.md §4.G's
// "current directory upward to the nearest wapm.toml". It returns
// (Scope{}, false) if none is found before reaching the filesystem root.
func FindProjectScope(startDir string) (Scope, bool) {
	dir := startDir
	for {
		manifestPath := filepath.Join(dir, manifestName)
		if _, err := os.Stat(manifestPath); err == nil {
			return ProjectScope(dir), true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Scope{}, false
		}
		dir = parent
	}
}

// EnsureDirs creates the scope's package directory tree.
func (s Scope) EnsureDirs() error {
	return os.MkdirAll(s.PackagesDir, 0o755)
}
