// Package wax implements the ephemeral execute cache described in
// spec.md §4.H: a non-authoritative command_name → package mapping that
// `wapm execute`/`wapm wax` record after an ephemeral install, with
// opportunistic time-based eviction. Command resolution does not read it;
// it goes through the project and global lockfiles.
package wax

import (
	"bytes"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/wapmhq/wapm/internal/errs"
)

// DefaultTTL is the age at which a cache entry becomes eligible for
// eviction; the CLI offers no flag to override it.
const DefaultTTL = 14 * 24 * time.Hour

// Entry records the package an ephemeral command execution resolved to.
type Entry struct {
	Package  string    `toml:"package"`
	Version  string    `toml:"version"`
	LastUsed time.Time `toml:"last_used"`
}

// Index is the parsed schema of .wax_index.toml.
type Index struct {
	Entries map[string]Entry `toml:"entries"`
}

// New returns an empty index.
func New() *Index {
	return &Index{Entries: map[string]Entry{}}
}

// Load reads the index at path. A missing file yields an empty index, the
// same "not yet populated" convention as the lockfile.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}

	var idx Index
	dec := toml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&idx); err != nil {
		return nil, errs.Wrap(errs.FilesystemIO, err)
	}
	if idx.Entries == nil {
		idx.Entries = map[string]Entry{}
	}
	return &idx, nil
}

// Save writes idx atomically to path.
func Save(path string, idx *Index) error {
	data, err := toml.Marshal(idx)
	if err != nil {
		return errs.Wrap(errs.FilesystemIO, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errs.Wrap(errs.FilesystemIO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Wrap(errs.FilesystemIO, err)
	}
	return nil
}

// Touch records or refreshes a command's resolved package, stamped with
// now (callers pass time.Now() so the cache stays testable).
func (idx *Index) Touch(command, pkg, version string, now time.Time) {
	idx.Entries[command] = Entry{Package: pkg, Version: version, LastUsed: now}
}

// Lookup returns the cached entry for command, if any.
func (idx *Index) Lookup(command string) (Entry, bool) {
	e, ok := idx.Entries[command]
	return e, ok
}

// EvictExpired drops every entry whose LastUsed is older than ttl relative
// to now, returning the evicted command names. Called opportunistically at
// resolve time, per spec.md §4.H, not on a background timer.
func (idx *Index) EvictExpired(ttl time.Duration, now time.Time) []string {
	var evicted []string
	for name, e := range idx.Entries {
		if now.Sub(e.LastUsed) > ttl {
			evicted = append(evicted, name)
			delete(idx.Entries, name)
		}
	}
	return evicted
}

// Clear empties the index in place, for `wax --clear`.
func (idx *Index) Clear() {
	idx.Entries = map[string]Entry{}
}
