package manifest

import (
	"path/filepath"
)

// ResolvedPackage is one entry of the registry's flat resolved dependency
// set (spec.md §1: "the registry provides a flat resolved list"). Manifest
// is the dependency's own manifest, supplying its module[]/command[] to
// materialize into the lockfile.
type ResolvedPackage struct {
	Namespace   string
	Name        string
	Version     string
	Manifest    *Manifest
	DownloadURL string
	// SourcePaths maps a module name to the on-disk path (inside the
	// installed package directory) where its wasm binary lives; Regenerate
	// rewrites it relative to anchorDir.
	SourcePaths map[string]string
}

// QualifiedName returns "namespace/name".
func (r ResolvedPackage) QualifiedName() string {
	return FormatQualifiedName(r.Namespace, r.Name, "")
}

// Regenerate implements spec.md §4.E's regeneration algorithm. root is the
// project's own manifest (nil for the global scope, which has no author
// manifest). resolved is the registry's flat resolved set for the current
// root dependency set. topLevel is the set of qualified names that are
// direct dependencies of root (or, for a bare `install <spec>`, the specs
// being installed). anchorDir is the directory module/command `source`
// paths are made relative to (the lockfile's own directory).
func Regenerate(root *Manifest, resolved []ResolvedPackage, topLevel map[string]bool, anchorDir string) (*Lockfile, error) {
	lock := New()

	// Steps 3-4: materialize modules[] and commands[] per resolved package,
	// rewriting source paths relative to anchorDir.
	//
	// commandOwners tracks, for each command name, the candidate entries so
	// step 5's conflict resolution can run once all packages are
	// materialized.
	type candidate struct {
		pkg        ResolvedPackage
		cmd        Command
		isTopLevel bool
		declOrder  int
	}
	candidates := map[string][]candidate{}
	declOrder := 0

	for _, pkg := range resolved {
		qn := pkg.QualifiedName()
		isTop := topLevel[qn]

		if pkg.Manifest == nil {
			continue
		}

		for _, mod := range pkg.Manifest.Modules {
			srcPath := pkg.SourcePaths[mod.Name]
			if srcPath == "" {
				srcPath = mod.Source
			}
			rel, err := filepath.Rel(anchorDir, srcPath)
			if err != nil {
				rel = srcPath
			}

			key := ModuleKey(qn, pkg.Version, mod.Name)
			lock.Modules[key] = LockfileModule{
				Package:        qn,
				PackageVersion: pkg.Version,
				Name:           mod.Name,
				Source:         rel,
				ResolvedSource: pkg.DownloadURL,
				Abi:            string(pkg.Manifest.EffectiveAbi(mod)),
				DisableRename:  pkg.Manifest.Package.DisableCommandRename,
			}
		}

		for _, cmd := range pkg.Manifest.Commands {
			candidates[cmd.Name] = append(candidates[cmd.Name], candidate{
				pkg: pkg, cmd: cmd, isTopLevel: isTop, declOrder: declOrder,
			})
			declOrder++
		}
	}

	// Step 5: same command name exported by two packages — the one
	// reachable from a top-level dependency wins; ties are broken by the
	// package's position in resolved (earlier wins). The root manifest's
	// own dependency declaration order is not consulted.
	for name, cands := range candidates {
		best := cands[0]
		for _, c := range cands[1:] {
			switch {
			case c.isTopLevel && !best.isTopLevel:
				best = c
			case c.isTopLevel == best.isTopLevel && c.declOrder < best.declOrder:
				best = c
			}
		}

		lock.Commands[name] = LockfileCommand{
			Name:       name,
			Package:    best.pkg.QualifiedName(),
			Version:    best.pkg.Version,
			Module:     best.cmd.Module,
			MainArgs:   best.cmd.MainArgs,
			IsTopLevel: best.isTopLevel,
		}
	}

	if err := lock.Validate(); err != nil {
		return nil, err
	}
	return lock, nil
}

// GarbageCollect drops any (package, version) whose modules/commands carry
// no is_top_level=true entry and are not reachable as a dependency of a
// remaining top-level package, per spec.md §4.E step 4. depsOf maps a
// package's qualified name to the qualified names it depends on
// (transitive-closure input; typically each resolved package's own
// Dependencies map).
//
// Grounded on the teacher's leaf-detection pass over its dependency graph
// (originally used to find Homebrew formulae with no reverse dependency);
// here the graph is the lockfile's package set instead of installed brew
// formulae, and "leaf with no top-level mark" replaces "leaf with no
// dependents" as the removal criterion.
func GarbageCollect(lock *Lockfile, depsOf map[string][]string) {
	reachable := map[string]bool{}
	var mark func(name string)
	mark = func(name string) {
		if reachable[name] {
			return
		}
		reachable[name] = true
		for _, dep := range depsOf[name] {
			mark(dep)
		}
	}

	for _, cmd := range lock.Commands {
		if cmd.IsTopLevel {
			mark(cmd.Package)
		}
	}
	for pv := range lock.PackageVersions() {
		if isTopLevelPackage(lock, pv[0]) {
			mark(pv[0])
		}
	}

	for key, mod := range lock.Modules {
		if !reachable[mod.Package] {
			delete(lock.Modules, key)
		}
	}
	for name, cmd := range lock.Commands {
		if !reachable[cmd.Package] {
			delete(lock.Commands, name)
		}
	}
}

func isTopLevelPackage(lock *Lockfile, pkg string) bool {
	for _, cmd := range lock.Commands {
		if cmd.Package == pkg && cmd.IsTopLevel {
			return true
		}
	}
	return false
}

// ValidateInstallDirs checks that every modules[] entry's package
// directory still exists under packagesDir, per spec.md §8's lockfile
// referential integrity property. Missing entries are removed in place and
// returned as the list of dropped module keys.
func ValidateInstallDirs(lock *Lockfile, exists func(pkg, version string) bool) []string {
	var dropped []string
	for key, mod := range lock.Modules {
		if !exists(mod.Package, mod.PackageVersion) {
			dropped = append(dropped, key)
			delete(lock.Modules, key)
		}
	}
	for name, cmd := range lock.Commands {
		if _, ok := lock.Modules[ModuleKey(cmd.Package, cmd.Version, cmd.Module)]; !ok {
			delete(lock.Commands, name)
		}
	}
	if len(dropped) > 0 {
		return dropped
	}
	return nil
}
