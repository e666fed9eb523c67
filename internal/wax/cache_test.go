package wax

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFile_ReturnsEmptyIndex(t *testing.T) {
	idx, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(idx.Entries) != 0 {
		t.Errorf("expected an empty index, got %d entries", len(idx.Entries))
	}
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".wax_index.toml")
	idx := New()
	now := time.Now().Round(time.Second)
	idx.Touch("lolcat", "wapmhq/lolcat", "1.0.0", now)

	if err := Save(path, idx); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	entry, ok := loaded.Lookup("lolcat")
	if !ok {
		t.Fatal("expected lolcat entry to round-trip")
	}
	if entry.Package != "wapmhq/lolcat" || entry.Version != "1.0.0" {
		t.Errorf("entry = %+v, want package wapmhq/lolcat version 1.0.0", entry)
	}
	if !entry.LastUsed.Equal(now) {
		t.Errorf("LastUsed = %v, want %v", entry.LastUsed, now)
	}
}

func TestEvictExpired_DropsOldEntriesOnly(t *testing.T) {
	idx := New()
	now := time.Now()
	idx.Touch("fresh", "ns/fresh", "1.0.0", now)
	idx.Touch("stale", "ns/stale", "1.0.0", now.Add(-30*24*time.Hour))

	evicted := idx.EvictExpired(DefaultTTL, now)
	if len(evicted) != 1 || evicted[0] != "stale" {
		t.Fatalf("evicted = %v, want [stale]", evicted)
	}
	if _, ok := idx.Lookup("stale"); ok {
		t.Error("stale entry should have been removed")
	}
	if _, ok := idx.Lookup("fresh"); !ok {
		t.Error("fresh entry should still be present")
	}
}

func TestClear_EmptiesIndex(t *testing.T) {
	idx := New()
	idx.Touch("a", "ns/a", "1.0.0", time.Now())
	idx.Clear()
	if len(idx.Entries) != 0 {
		t.Errorf("expected Clear() to empty the index, got %d entries", len(idx.Entries))
	}
}
