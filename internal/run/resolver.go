// Package run implements the command resolver and runtime invocation of
// spec.md §4.G: locating a command's module file across the project and
// global lockfiles (or, for ephemeral execution, a registry search) and
// spawning the external WebAssembly runtime.
package run

import (
	"context"
	"fmt"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/layout"
	"github.com/wapmhq/wapm/internal/manifest"
	"github.com/wapmhq/wapm/internal/registry"
)

// Resolution is everything the runner needs to build argv and locate the
// module on disk for a resolved command.
type Resolution struct {
	Scope         layout.Scope
	Command       manifest.LockfileCommand
	Module        manifest.LockfileModule
	ModuleFile    string
	DisableRename bool
}

// Resolver looks up commands against the project and global lockfiles,
// caching parsed lockfiles for the lifetime of the Resolver so that
// resolving many commands in one run (e.g. a shell completion sweep) does
// not reparse the same lockfile repeatedly.
type Resolver struct {
	Project layout.Scope
	Global  layout.Scope
	cache   *lru.Cache[string, *manifest.Lockfile]
}

// NewResolver builds a Resolver. hasProject is false when no ancestor
// wapm.toml was found (layout.FindProjectScope's second return value).
func NewResolver(project layout.Scope, hasProject bool, global layout.Scope) *Resolver {
	cache, _ := lru.New[string, *manifest.Lockfile](8)
	r := &Resolver{Global: global, cache: cache}
	if hasProject {
		r.Project = project
	}
	return r
}

func (r *Resolver) loadLockfile(scope layout.Scope) (*manifest.Lockfile, error) {
	if lock, ok := r.cache.Get(scope.LockfilePath); ok {
		return lock, nil
	}
	lock, err := manifest.LoadLockfile(scope.LockfilePath)
	if err != nil {
		return nil, err
	}
	r.cache.Add(scope.LockfilePath, lock)
	return lock, nil
}

// Resolve looks up name in the project lockfile (if any), then the global
// lockfile, per spec.md §4.G's lookup order.
func (r *Resolver) Resolve(name string) (Resolution, error) {
	scopes := make([]layout.Scope, 0, 2)
	if r.Project.Root != "" {
		scopes = append(scopes, r.Project)
	}
	scopes = append(scopes, r.Global)

	for _, scope := range scopes {
		lock, err := r.loadLockfile(scope)
		if err != nil {
			continue
		}
		cmd, mod, err := lock.ResolveCommand(name)
		if err != nil {
			continue
		}
		return Resolution{
			Scope:         scope,
			Command:       cmd,
			Module:        mod,
			ModuleFile:    filepath.Join(scope.Root, mod.Source),
			DisableRename: mod.DisableRename,
		}, nil
	}

	return Resolution{}, errs.Newf(errs.Resolution, "command %q is not installed in the project or global scope", name)
}

// SuggestInstall queries the registry for packages that might provide
// name, for the "did you mean to install X?" hint spec.md §4.G calls for
// when resolution fails and --offline was not given.
func SuggestInstall(ctx context.Context, client *registry.Client, name string) (string, error) {
	result, err := client.Search(ctx, name, "")
	if err != nil {
		return "", err
	}
	if len(result.Packages) == 0 {
		return "", nil
	}
	top := result.Packages[0]
	return fmt.Sprintf("%s/%s@%s", top.Namespace, top.Name, top.LatestVersion), nil
}
