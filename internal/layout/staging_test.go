package layout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStagingDir_IsSiblingWithUniqueSuffix(t *testing.T) {
	final := "/pkgs/_/cowsay@1.0.0"
	a := StagingDir(final)
	b := StagingDir(final)

	if filepath.Dir(a) != filepath.Dir(final) {
		t.Errorf("expected staging dir to be a sibling of %q, got %q", final, a)
	}
	if !strings.HasPrefix(filepath.Base(a), ".staging-cowsay@1.0.0-") {
		t.Errorf("unexpected staging dir name %q", a)
	}
	if a == b {
		t.Error("expected two calls to StagingDir to produce distinct names")
	}
}

func TestCommitStaging_MovesDirectoryIntoPlace(t *testing.T) {
	root := t.TempDir()
	staging := filepath.Join(root, ".staging-pkg-abc")
	final := filepath.Join(root, "pkg")

	if err := os.MkdirAll(staging, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staging, "file.txt"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CommitStaging(staging, final); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(final, "file.txt")); err != nil {
		t.Errorf("expected file to exist in the final directory: %v", err)
	}
	if _, err := os.Stat(staging); !os.IsNotExist(err) {
		t.Error("expected the staging directory to no longer exist")
	}
}

func TestCommitStaging_ReplacesExistingFinalDir(t *testing.T) {
	root := t.TempDir()
	staging := filepath.Join(root, ".staging-pkg-new")
	final := filepath.Join(root, "pkg")

	if err := os.MkdirAll(final, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(final, "old.txt"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staging, "new.txt"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CommitStaging(staging, final); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(final, "new.txt")); err != nil {
		t.Errorf("expected new file to exist: %v", err)
	}
	if _, err := os.Stat(filepath.Join(final, "old.txt")); !os.IsNotExist(err) {
		t.Error("expected the old install to have been replaced")
	}
}

func TestSweepOrphans_RemovesLeftoverStagingAndTrashDirs(t *testing.T) {
	root := t.TempDir()
	final := filepath.Join(root, "pkg")

	orphanStaging := filepath.Join(root, ".staging-pkg-orphan")
	orphanTrash := filepath.Join(root, ".trash-pkg-orphan")
	unrelated := filepath.Join(root, "other")
	for _, dir := range []string{orphanStaging, orphanTrash, unrelated} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	SweepOrphans(final)

	if _, err := os.Stat(orphanStaging); !os.IsNotExist(err) {
		t.Error("expected leftover staging dir to be removed")
	}
	if _, err := os.Stat(orphanTrash); !os.IsNotExist(err) {
		t.Error("expected leftover trash dir to be removed")
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Error("expected unrelated directory to survive")
	}
}
