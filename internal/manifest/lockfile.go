package manifest

import (
	"fmt"

	"github.com/wapmhq/wapm/internal/errs"
)

// LockfileModuleKey identifies a module entry within a lockfile's modules
// table: (package_qualified_name, package_version, module_name).
type LockfileModuleKey struct {
	Package string
	Version string
	Module  string
}

func (k LockfileModuleKey) String() string {
	return fmt.Sprintf("%s@%s:%s", k.Package, k.Version, k.Module)
}

// LockfileModule is one entry of the lockfile's modules table.
type LockfileModule struct {
	Package        string `toml:"package_name"`
	PackageVersion string `toml:"package_version"`
	Name           string `toml:"name"`
	// Source is relative to the lockfile's anchor directory.
	Source string `toml:"source"`
	// ResolvedSource is the remote download URL the module came from.
	ResolvedSource string `toml:"resolved_source"`
	Abi            string `toml:"abi,omitempty"`
	// DisableRename mirrors the owning package's package.disable-command-rename
	// (spec.md §3), carried into the lockfile so the runner does not need to
	// reparse the dependency's manifest at run time.
	DisableRename bool `toml:"disable_rename,omitempty"`
}

// LockfileCommand is one entry of the lockfile's commands table.
type LockfileCommand struct {
	Name        string `toml:"name"`
	Package     string `toml:"package"`
	Version     string `toml:"version"`
	Module      string `toml:"module"`
	MainArgs    string `toml:"main-args,omitempty"`
	IsTopLevel  bool   `toml:"is_top_level"`
}

// Lockfile is the parsed schema of wapm.lock.
type Lockfile struct {
	Version  int                                  `toml:"version"`
	Modules  map[string]LockfileModule            `toml:"modules,omitempty"`
	Commands map[string]LockfileCommand           `toml:"commands,omitempty"`
}

// New returns an empty lockfile stamped with the current schema version.
func New() *Lockfile {
	return &Lockfile{
		Version:  LockfileVersion,
		Modules:  map[string]LockfileModule{},
		Commands: map[string]LockfileCommand{},
	}
}

// ModuleKey formats the map key used for the Modules table.
func ModuleKey(pkg, version, module string) string {
	return LockfileModuleKey{Package: pkg, Version: version, Module: module}.String()
}

// ResolveCommand looks up a command entry, then the module it points to.
func (l *Lockfile) ResolveCommand(name string) (LockfileCommand, LockfileModule, error) {
	cmd, ok := l.Commands[name]
	if !ok {
		return LockfileCommand{}, LockfileModule{}, errs.Newf(errs.Resolution, "command %q not found", name)
	}
	key := ModuleKey(cmd.Package, cmd.Version, cmd.Module)
	mod, ok := l.Modules[key]
	if !ok {
		return LockfileCommand{}, LockfileModule{}, errs.Newf(errs.Lockfile, "command %q references missing module %s", name, key)
	}
	return cmd, mod, nil
}

// Validate enforces referential integrity: every command references an
// extant module entry (spec.md §3 lockfile invariants). Extant-install-dir
// checking is done by the caller, which knows the scope's anchor.
func (l *Lockfile) Validate() error {
	for name, cmd := range l.Commands {
		key := ModuleKey(cmd.Package, cmd.Version, cmd.Module)
		if _, ok := l.Modules[key]; !ok {
			return errs.Newf(errs.Lockfile, "command %q references missing module %s", name, key)
		}
	}
	return nil
}

// PackageVersions returns the set of distinct (package, version) pairs
// present in the modules table.
func (l *Lockfile) PackageVersions() map[[2]string]bool {
	out := make(map[[2]string]bool)
	for _, m := range l.Modules {
		out[[2]string{m.Package, m.PackageVersion}] = true
	}
	return out
}
