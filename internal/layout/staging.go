package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// StagingDir returns a sibling directory of finalDir uniquely named with a
// UUID, per spec.md §4.B's atomicity rule: installs write into a staging
// sibling and are renamed into place.
func StagingDir(finalDir string) string {
	parent := filepath.Dir(finalDir)
	base := filepath.Base(finalDir)
	return filepath.Join(parent, stagingDirPrefix+base+"-"+uuid.NewString())
}

// TrashDir returns a sibling directory of installDir uniquely named with a
// UUID, per spec.md §4.B and §4.F uninstall step 1.
func TrashDir(installDir string) string {
	parent := filepath.Dir(installDir)
	base := filepath.Base(installDir)
	return filepath.Join(parent, trashDirPrefix+base+"-"+uuid.NewString())
}

// SweepOrphans removes any leftover ".staging-<base>-*" or ".trash-<base>-*"
// directories that share the given install directory's base name, left
// behind by a process that crashed mid-install or mid-uninstall (Design
// Notes open question: "trash directory cleanup across process crashes").
// It is called at the start of every install so a crashed install of the
// same package is cleaned up and overwritten rather than accumulating.
func SweepOrphans(installDir string) {
	parent := filepath.Dir(installDir)
	base := filepath.Base(installDir)
	entries, err := os.ReadDir(parent)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, stagingDirPrefix+base+"-") || strings.HasPrefix(name, trashDirPrefix+base+"-") {
			os.RemoveAll(filepath.Join(parent, name))
		}
	}
}

// CommitStaging renames stagingDir into finalDir atomically. Any existing
// finalDir is first moved aside to a trash directory so the rename cannot
// fail with "directory not empty", then best-effort deleted.
func CommitStaging(stagingDir, finalDir string) error {
	if _, err := os.Stat(finalDir); err == nil {
		trash := TrashDir(finalDir)
		if err := os.Rename(finalDir, trash); err != nil {
			return fmt.Errorf("failed to move existing install directory aside: %w", err)
		}
		defer os.RemoveAll(trash)
	}

	if err := os.MkdirAll(filepath.Dir(finalDir), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", finalDir, err)
	}

	if err := os.Rename(stagingDir, finalDir); err != nil {
		return fmt.Errorf("failed to commit staging directory: %w", err)
	}
	return nil
}
