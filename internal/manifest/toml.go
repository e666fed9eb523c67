package manifest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/wapmhq/wapm/internal/errs"
)

// ParseManifest strictly decodes wapm.toml bytes: unknown keys are a
// Manifest-kind error, per spec.md §4.E ("parsing is strict").
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, errs.Wrap(errs.Manifest, fmt.Errorf("failed to parse manifest: %w", err))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.Manifest, fmt.Errorf("failed to read manifest %s: %w", path, err))
	}
	return ParseManifest(data)
}

// WriteManifest encodes m in canonical field order (package, dependencies,
// module[], command[], fs — spec.md §4.E) and writes it atomically to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return errs.Wrap(errs.Manifest, fmt.Errorf("failed to encode manifest: %w", err))
	}
	return atomicWrite(path, data)
}

// ParseLockfile strictly decodes wapm.lock bytes.
func ParseLockfile(data []byte) (*Lockfile, error) {
	var l Lockfile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&l); err != nil {
		return nil, errs.Wrap(errs.Lockfile, fmt.Errorf("failed to parse lockfile: %w", err))
	}
	if l.Modules == nil {
		l.Modules = map[string]LockfileModule{}
	}
	if l.Commands == nil {
		l.Commands = map[string]LockfileCommand{}
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoadLockfile reads and parses the lockfile at path. A missing file
// yields a fresh, empty lockfile rather than an error — a project with no
// lockfile yet is a valid starting state for regeneration.
func LoadLockfile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errs.Wrap(errs.Lockfile, fmt.Errorf("failed to read lockfile %s: %w", path, err))
	}
	return ParseLockfile(data)
}

// WriteLockfile encodes l and writes it atomically (temp + rename) to
// path, per spec.md §4.E step 6.
func WriteLockfile(path string, l *Lockfile) error {
	data, err := toml.Marshal(l)
	if err != nil {
		return errs.Wrap(errs.Lockfile, fmt.Errorf("failed to encode lockfile: %w", err))
	}
	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to write %s: %w", tmp, err))
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.FilesystemIO, fmt.Errorf("failed to commit %s: %w", path, err))
	}
	return nil
}
