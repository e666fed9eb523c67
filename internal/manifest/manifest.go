// Package manifest implements the in-memory schema, invariants, and
// regeneration algorithm for wapm.toml (author-authored) and wapm.lock
// (generated) described in spec.md §3 and §4.E.
package manifest

import (
	"fmt"

	"github.com/wapmhq/wapm/internal/errs"
)

// LockfileVersion is bumped whenever the lockfile schema changes.
const LockfileVersion = 3

// ABI is the host-function interface a module targets.
type ABI string

const (
	ABIWasi       ABI = "wasi"
	ABIEmscripten ABI = "emscripten"
	ABINone       ABI = "none"
)

// PackageInfo is the manifest's [package] table.
type PackageInfo struct {
	Name                 string `toml:"name"`
	Version              string `toml:"version"`
	Description          string `toml:"description,omitempty"`
	License              string `toml:"license,omitempty"`
	LicenseFile          string `toml:"license-file,omitempty"`
	Readme               string `toml:"readme,omitempty"`
	Repository           string `toml:"repository,omitempty"`
	Homepage             string `toml:"homepage,omitempty"`
	WasmerExtraFlags     string `toml:"wasmer-extra-flags,omitempty"`
	DisableCommandRename bool   `toml:"disable-command-rename,omitempty"`
	// Abi is a package-level default applied to any module that omits its
	// own abi (recovered from original_source/src/data/manifest.rs).
	Abi string `toml:"abi,omitempty"`
}

// Module is one entry of the manifest's module[] array.
type Module struct {
	Name       string            `toml:"name"`
	Source     string            `toml:"source"`
	Abi        string            `toml:"abi,omitempty"`
	Interfaces map[string]string `toml:"interfaces,omitempty"`
}

// Command is one entry of the manifest's command[] array.
type Command struct {
	Name     string `toml:"name"`
	Module   string `toml:"module"`
	MainArgs string `toml:"main-args,omitempty"`
	Package  string `toml:"package,omitempty"`
}

// Manifest is the parsed, validated schema of wapm.toml.
type Manifest struct {
	Package      PackageInfo       `toml:"package"`
	Dependencies map[string]string `toml:"dependencies,omitempty"`
	Modules      []Module          `toml:"module,omitempty"`
	Commands     []Command         `toml:"command,omitempty"`
	FS           map[string]string `toml:"fs,omitempty"`
}

// QualifiedName returns "namespace/name" for the given namespace, or the
// bare Package.Name when namespace is "" or "_". Manifests declare their own
// package name unqualified; namespace is assigned by the registry on
// publish.
func (m *Manifest) QualifiedName(namespace string) string {
	if namespace == "" || namespace == "_" {
		return m.Package.Name
	}
	return namespace + "/" + m.Package.Name
}

// ModuleByName looks up a module by name.
func (m *Manifest) ModuleByName(name string) (*Module, bool) {
	for i := range m.Modules {
		if m.Modules[i].Name == name {
			return &m.Modules[i], true
		}
	}
	return nil, false
}

// Validate enforces the manifest invariants of spec.md §3:
//   - every command.module resolves within module[]
//   - package.version is a valid SemVer
//   - dependencies keys are valid qualified names
//
// Module source readability/wasm-ness is checked separately at the point
// of use (publish time vs. install time have different meanings for that
// invariant), not here.
func (m *Manifest) Validate() error {
	if m.Package.Name == "" {
		return errs.New(errs.Manifest, "package.name is required")
	}
	if !isValidSemVer(m.Package.Version) {
		return errs.Newf(errs.Manifest, "package.version %q is not a valid SemVer", m.Package.Version)
	}

	seen := make(map[string]bool, len(m.Modules))
	for _, mod := range m.Modules {
		if mod.Name == "" {
			return errs.New(errs.Manifest, "module entries must have a name")
		}
		if seen[mod.Name] {
			return errs.Newf(errs.Manifest, "duplicate module name %q", mod.Name)
		}
		seen[mod.Name] = true

		if mod.Abi != "" {
			switch ABI(mod.Abi) {
			case ABIWasi, ABIEmscripten, ABINone:
			default:
				return errs.Newf(errs.Manifest, "module %q has invalid abi %q", mod.Name, mod.Abi)
			}
		}
	}

	for _, cmd := range m.Commands {
		if cmd.Name == "" {
			return errs.New(errs.Manifest, "command entries must have a name")
		}
		if cmd.Package != "" {
			// Aliased foreign command: module lives in another package,
			// nothing to resolve locally.
			continue
		}
		if _, ok := m.ModuleByName(cmd.Module); !ok {
			return errs.Newf(errs.Manifest, "command %q references unknown module %q", cmd.Name, cmd.Module)
		}
	}

	for dep := range m.Dependencies {
		if !isValidQualifiedName(dep) {
			return errs.Newf(errs.Manifest, "dependency key %q is not a valid qualified package name", dep)
		}
	}

	return nil
}

// EffectiveAbi returns the module's abi, falling back to the manifest's
// package-level default, then to ABINone.
func (m *Manifest) EffectiveAbi(mod Module) ABI {
	if mod.Abi != "" {
		return ABI(mod.Abi)
	}
	if m.Package.Abi != "" {
		return ABI(m.Package.Abi)
	}
	return ABINone
}

func isValidQualifiedName(name string) bool {
	if name == "" {
		return false
	}
	slashes := 0
	for _, r := range name {
		if r == '/' {
			slashes++
		}
		if r == ' ' || r == '\t' || r == '\n' {
			return false
		}
	}
	return slashes <= 1
}

// isValidSemVer performs a permissive structural check (major.minor.patch
// with optional -prerelease/+build metadata) sufficient for this
// implementation's purposes; full SemVer range parsing is the registry's
// job (it is the solver, per spec.md §1).
func isValidSemVer(v string) bool {
	if v == "" {
		return false
	}
	core := v
	for i, r := range v {
		if r == '-' || r == '+' {
			core = v[:i]
			break
		}
	}
	dots := 0
	digits := 0
	for _, r := range core {
		switch {
		case r == '.':
			dots++
		case r >= '0' && r <= '9':
			digits++
		default:
			return false
		}
	}
	return dots == 2 && digits > 0
}

// ParseQualifiedName splits "namespace/name@version" (version optional)
// into its parts. namespace is "" if elided (short-form).
func ParseQualifiedName(spec string) (namespace, name, version string) {
	rest := spec
	if idx := indexByte(rest, '@'); idx >= 0 {
		version = rest[idx+1:]
		rest = rest[:idx]
	}
	if idx := indexByte(rest, '/'); idx >= 0 {
		namespace = rest[:idx]
		name = rest[idx+1:]
	} else {
		name = rest
	}
	return
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// FormatQualifiedName reconstructs "namespace/name@version" (namespace
// omitted if empty or "_", version omitted if empty).
func FormatQualifiedName(namespace, name, version string) string {
	s := name
	if namespace != "" && namespace != "_" {
		s = namespace + "/" + s
	}
	if version != "" {
		s = fmt.Sprintf("%s@%s", s, version)
	}
	return s
}
