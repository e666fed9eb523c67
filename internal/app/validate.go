package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/manifest"
)

// wasmMagic is the 8-byte header every binary WebAssembly module starts
// with: magic number 0x0061736d followed by version 1, little-endian. No
// full validator ships in this ecosystem's dependency set (DESIGN.md), so
// this is the extent of the structural check.
var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a wapm.toml manifest or a .wasm module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if strings.HasSuffix(path, ".wasm") {
			return validateWasmFile(path)
		}
		return validateManifestFile(path)
	},
}

func validateManifestFile(path string) error {
	m, err := manifest.LoadManifest(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	for _, mod := range m.Modules {
		source := filepath.Join(dir, mod.Source)
		if strings.HasSuffix(source, ".wasm") {
			if err := validateWasmFile(source); err != nil {
				return errs.Newf(errs.Manifest, "module %q: %v", mod.Name, err)
			}
		} else if _, statErr := os.Stat(source); statErr != nil {
			return errs.Newf(errs.Manifest, "module %q: source %s is not readable: %v", mod.Name, source, statErr)
		}
	}
	fmt.Printf("%s is valid\n", path)
	return nil
}

func validateWasmFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.Wrap(errs.FilesystemIO, err)
	}
	defer f.Close()

	header := make([]byte, len(wasmMagic))
	if _, err := f.Read(header); err != nil {
		return errs.Newf(errs.Manifest, "%s: cannot read header: %v", path, err)
	}
	for i, b := range wasmMagic {
		if header[i] != b {
			return errs.Newf(errs.Manifest, "%s is not a valid WebAssembly binary module", path)
		}
	}
	fmt.Printf("%s is valid\n", path)
	return nil
}
