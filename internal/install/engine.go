package install

import (
	"context"
	"os"
	"path/filepath"

	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/keys"
	"github.com/wapmhq/wapm/internal/layout"
	"github.com/wapmhq/wapm/internal/manifest"
	"github.com/wapmhq/wapm/internal/output"
	"github.com/wapmhq/wapm/internal/registry"
)

// Flags carries the install/uninstall behavior switches that come from
// global CLI flags (spec.md §4.A): ForceYes (--force-yes) accepts signature
// prompts, Offline (--offline) forbids any registry traffic, and Quiet
// (--quiet) suppresses the progress bar. --yes is not carried here.
type Flags struct {
	ForceYes bool
	Offline  bool
	Quiet    bool
}

// Engine drives the resolve/download/verify/extract/commit pipeline for a
// single scope, mirroring the teacher's brew/installer.go's role of
// wrapping an external package manager's install steps behind one type,
// generalized here to wapm's own registry and on-disk layout.
type Engine struct {
	Scope     layout.Scope
	Client    *registry.Client
	KeyStore  *keys.Store
	Confirmer keys.Confirmer
}

// NewEngine builds an Engine for a single install/uninstall run.
func NewEngine(scope layout.Scope, client *registry.Client, keyStore *keys.Store, confirmer keys.Confirmer) *Engine {
	return &Engine{Scope: scope, Client: client, KeyStore: keyStore, Confirmer: confirmer}
}

// Install resolves and installs everything the scope's manifest currently
// declares (spec.md §4.F "install", no args), then regenerates and writes
// the lockfile. For the global scope, which has no author manifest, extra
// is used as the root dependency set directly (an explicit `install
// <spec>` at global scope).
func (e *Engine) Install(ctx context.Context, extra map[string]string, flags Flags) error {
	return e.installLocked(ctx, extra, flags)
}

// installLocked performs the actual work and takes the scope lock itself.
// AddPackages and RemovePackages call it after rewriting the manifest; that
// rewrite happens before the lock is taken.
func (e *Engine) installLocked(ctx context.Context, extra map[string]string, flags Flags) error {
	scopeLock, err := layout.Lock(e.Scope)
	if err != nil {
		return errs.Wrap(errs.FilesystemIO, err)
	}
	defer scopeLock.Unlock()

	if err := e.Scope.EnsureDirs(); err != nil {
		return errs.Wrap(errs.FilesystemIO, err)
	}

	rootDeps := map[string]string{}
	var rootManifest *manifest.Manifest

	if _, statErr := os.Stat(e.Scope.ManifestPath); statErr == nil {
		m, err := manifest.LoadManifest(e.Scope.ManifestPath)
		if err != nil {
			return err
		}
		rootManifest = m
		for name, ver := range m.Dependencies {
			rootDeps[name] = ver
		}
	}
	for name, ver := range extra {
		rootDeps[name] = ver
	}

	if len(rootDeps) == 0 {
		lock := manifest.New()
		return manifest.WriteLockfile(e.Scope.LockfilePath, lock)
	}

	if flags.Offline {
		return errs.New(errs.Network, "install requires registry access; --offline forbids it")
	}

	topLevel := make(map[string]bool, len(rootDeps))
	specs := make([]string, 0, len(rootDeps))
	for name, ver := range rootDeps {
		spec := name
		if ver != "" {
			spec = manifest.FormatQualifiedName("", name, ver)
		}
		specs = append(specs, spec)
		topLevel[name] = true
	}

	pvs, err := e.Client.GetPackageVersions(ctx, specs)
	if err != nil {
		return err
	}
	if len(pvs) == 0 {
		return errs.New(errs.Resolution, "registry returned no packages for the requested dependency set")
	}

	bar := output.NewProgress(len(pvs), "Installing packages...")
	if flags.Quiet {
		bar = nil
	}

	resolved := make([]manifest.ResolvedPackage, 0, len(pvs))
	depsOf := map[string][]string{}

	for _, pv := range pvs {
		rp, deps, err := e.fetchAndInstallOne(ctx, pv, flags)
		if err != nil {
			return err
		}
		resolved = append(resolved, rp)
		qn := rp.QualifiedName()
		topLevel[qn] = topLevel[qn] || topLevel[rp.Name]
		depsOf[qn] = deps
		if bar != nil {
			bar.Increment()
		}
	}
	if bar != nil {
		bar.Finish()
	}

	newLock, err := manifest.Regenerate(rootManifest, resolved, topLevel, e.Scope.Root)
	if err != nil {
		return err
	}
	manifest.GarbageCollect(newLock, depsOf)

	dropped := manifest.ValidateInstallDirs(newLock, func(pkg, version string) bool {
		ns, name, _ := manifest.ParseQualifiedName(pkg)
		_, statErr := os.Stat(e.Scope.InstallDir(ns, name, version))
		return statErr == nil
	})
	for _, key := range dropped {
		_ = key // surfaced to the caller only via the lockfile diff; nothing to log here without a logger handle.
	}

	return manifest.WriteLockfile(e.Scope.LockfilePath, newLock)
}

// fetchAndInstallOne downloads, verifies, and extracts a single resolved
// package version if it is not already installed, returning the
// ResolvedPackage entry for lockfile regeneration and the qualified names
// of its own dependencies (for garbage collection reachability).
func (e *Engine) fetchAndInstallOne(ctx context.Context, pv registry.PackageVersion, flags Flags) (manifest.ResolvedPackage, []string, error) {
	pkgManifest, err := manifest.ParseManifest([]byte(pv.ManifestTOML))
	if err != nil {
		return manifest.ResolvedPackage{}, nil, err
	}

	installDir := e.Scope.InstallDir(pv.Namespace, pv.Name, pv.Version)
	sourcePaths := map[string]string{}
	for _, mod := range pkgManifest.Modules {
		sourcePaths[mod.Name] = filepath.Join(installDir, mod.Source)
	}

	deps := make([]string, 0, len(pkgManifest.Dependencies))
	for dep := range pkgManifest.Dependencies {
		deps = append(deps, dep)
	}

	rp := manifest.ResolvedPackage{
		Namespace:   pv.Namespace,
		Name:        pv.Name,
		Version:     pv.Version,
		Manifest:    pkgManifest,
		DownloadURL: "",
		SourcePaths: sourcePaths,
	}
	if pv.Distribution != nil {
		rp.DownloadURL = pv.Distribution.DownloadURL
	}

	// Content-addressed by (namespace, name, version): if the directory is
	// already there, the archive underneath it cannot have changed, so skip
	// the network round trip entirely (spec.md §8 install idempotence).
	if _, statErr := os.Stat(installDir); statErr == nil {
		return rp, deps, nil
	}

	if flags.Offline {
		return manifest.ResolvedPackage{}, nil, errs.Newf(errs.Network, "package %s/%s@%s is not installed and --offline forbids downloading it", pv.Namespace, pv.Name, pv.Version)
	}
	if pv.Distribution == nil || pv.Distribution.DownloadURL == "" {
		return manifest.ResolvedPackage{}, nil, errs.Newf(errs.Registry, "package %s/%s@%s has no download distribution", pv.Namespace, pv.Name, pv.Version)
	}

	layout.SweepOrphans(installDir)

	archive, err := e.Client.Download(ctx, pv.Distribution.DownloadURL)
	if err != nil {
		return manifest.ResolvedPackage{}, nil, err
	}

	if e.KeyStore != nil {
		presented := signatureFromResponse(pv.Signature)
		publisher := pv.PublisherName
		if publisher == "" {
			publisher = pv.Namespace
		}
		if err := keys.Verify(e.KeyStore, e.Confirmer, publisher, pv.Name, archive, presented, flags.ForceYes); err != nil {
			return manifest.ResolvedPackage{}, nil, err
		}
	}

	staging := layout.StagingDir(installDir)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return manifest.ResolvedPackage{}, nil, errs.Wrap(errs.FilesystemIO, err)
	}
	defer os.RemoveAll(staging)

	if err := ExtractArchive(archive, staging); err != nil {
		return manifest.ResolvedPackage{}, nil, err
	}
	if err := layout.CommitStaging(staging, installDir); err != nil {
		return manifest.ResolvedPackage{}, nil, errs.Wrap(errs.FilesystemIO, err)
	}

	return rp, deps, nil
}

func signatureFromResponse(sig *registry.Signature) *keys.Presented {
	if sig == nil {
		return &keys.Presented{}
	}
	return &keys.Presented{
		KeyID:     sig.PublicKey.KeyID,
		KeyValue:  sig.PublicKey.Key,
		KeyType:   "ed25519",
		Signature: sig.Data,
	}
}

// AddPackages merges specs into the project manifest's [dependencies]
// table, writes it, and reinstalls (spec.md §4.F "add").
func (e *Engine) AddPackages(ctx context.Context, specs []string, flags Flags) error {
	if _, err := os.Stat(e.Scope.ManifestPath); err != nil {
		return errs.New(errs.Manifest, "no wapm.toml manifest found in this project; run `wapm init` first")
	}
	m, err := manifest.LoadManifest(e.Scope.ManifestPath)
	if err != nil {
		return err
	}
	if m.Dependencies == nil {
		m.Dependencies = map[string]string{}
	}

	extra := map[string]string{}
	for _, spec := range specs {
		ns, name, ver := manifest.ParseQualifiedName(spec)
		qn := name
		if ns != "" {
			qn = ns + "/" + name
		}
		m.Dependencies[qn] = ver
		extra[qn] = ver
	}

	if err := manifest.WriteManifest(e.Scope.ManifestPath, m); err != nil {
		return err
	}
	return e.installLocked(ctx, extra, flags)
}

// RemovePackages drops specs from the project manifest's [dependencies]
// table, writes it, then reinstalls so the lockfile's garbage collection
// pass drops any package left unreachable (spec.md §4.F "remove").
func (e *Engine) RemovePackages(ctx context.Context, specs []string, flags Flags) error {
	m, err := manifest.LoadManifest(e.Scope.ManifestPath)
	if err != nil {
		return err
	}

	for _, spec := range specs {
		ns, name, _ := manifest.ParseQualifiedName(spec)
		qn := name
		if ns != "" {
			qn = ns + "/" + name
		}
		delete(m.Dependencies, qn)
	}

	if err := manifest.WriteManifest(e.Scope.ManifestPath, m); err != nil {
		return err
	}

	if err := e.installLocked(ctx, nil, flags); err != nil {
		return err
	}
	return e.pruneUnreferencedInstalls(ctx)
}

// Uninstall removes specs directly from the scope's lockfile without a
// manifest edit (spec.md §4.F "uninstall", used at the global scope which
// has no author manifest) and deletes their on-disk install directories
// once nothing else in the lockfile still references them.
func (e *Engine) Uninstall(ctx context.Context, specs []string) error {
	scopeLock, err := layout.Lock(e.Scope)
	if err != nil {
		return errs.Wrap(errs.FilesystemIO, err)
	}
	defer scopeLock.Unlock()

	lock, err := manifest.LoadLockfile(e.Scope.LockfilePath)
	if err != nil {
		return err
	}

	targets := make(map[string]bool, len(specs))
	for _, spec := range specs {
		ns, name, _ := manifest.ParseQualifiedName(spec)
		qn := name
		if ns != "" {
			qn = ns + "/" + name
		}
		targets[qn] = true
	}

	for name, cmd := range lock.Commands {
		if targets[cmd.Package] {
			delete(lock.Commands, name)
		}
	}
	for key, mod := range lock.Modules {
		if targets[mod.Package] {
			delete(lock.Modules, key)
		}
	}

	manifest.GarbageCollect(lock, map[string][]string{})

	if err := manifest.WriteLockfile(e.Scope.LockfilePath, lock); err != nil {
		return err
	}
	return e.pruneUnreferencedInstalls(ctx)
}

// pruneUnreferencedInstalls walks the scope's on-disk package tree and
// removes any namespace/name@version directory that the current lockfile
// no longer references, moving each aside to a trash directory first so a
// crash mid-sweep cannot corrupt a directory still in use.
func (e *Engine) pruneUnreferencedInstalls(ctx context.Context) error {
	lock, err := manifest.LoadLockfile(e.Scope.LockfilePath)
	if err != nil {
		return err
	}
	referenced := lock.PackageVersions()

	nsEntries, err := os.ReadDir(e.Scope.PackagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.Wrap(errs.FilesystemIO, err)
	}

	for _, nsEntry := range nsEntries {
		if !nsEntry.IsDir() {
			continue
		}
		nsDir := filepath.Join(e.Scope.PackagesDir, nsEntry.Name())
		pkgEntries, err := os.ReadDir(nsDir)
		if err != nil {
			continue
		}
		for _, pkgEntry := range pkgEntries {
			name, version, ok := splitNameVersion(pkgEntry.Name())
			if !ok {
				continue
			}
			qn := name
			if nsEntry.Name() != "" && nsEntry.Name() != "_" {
				qn = nsEntry.Name() + "/" + name
			}
			if referenced[[2]string{qn, version}] {
				continue
			}
			installDir := filepath.Join(nsDir, pkgEntry.Name())
			trash := layout.TrashDir(installDir)
			if err := os.Rename(installDir, trash); err != nil {
				continue
			}
			os.RemoveAll(trash)
		}
	}
	return nil
}

// splitNameVersion parses an install directory's base name "<name>@<version>".
func splitNameVersion(base string) (name, version string, ok bool) {
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '@' {
			return base[:i], base[i+1:], true
		}
	}
	return "", "", false
}
