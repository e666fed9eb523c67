package app

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/manifest"
)

var initAcceptDefaults bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a new wapm.toml manifest in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		manifestPath := filepath.Join(cwd, "wapm.toml")
		if _, statErr := os.Stat(manifestPath); statErr == nil {
			return errs.Newf(errs.Manifest, "%s already exists", manifestPath)
		}

		defaultName := filepath.Base(cwd)
		name := defaultName
		version := "0.1.0"
		description := ""

		if !initAcceptDefaults {
			reader := bufio.NewReader(os.Stdin)
			name = promptWithDefault(reader, fmt.Sprintf("Package name [%s]: ", defaultName), defaultName)
			version = promptWithDefault(reader, "Version [0.1.0]: ", "0.1.0")
			description = promptWithDefault(reader, "Description: ", "")
		}

		m := &manifest.Manifest{
			Package: manifest.PackageInfo{
				Name:        name,
				Version:     version,
				Description: description,
			},
		}
		if err := m.Validate(); err != nil {
			return err
		}
		if err := manifest.WriteManifest(manifestPath, m); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", manifestPath)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initAcceptDefaults, "yes", "y", false, "accept default values without prompting")
}

func promptWithDefault(reader *bufio.Reader, prompt, def string) string {
	fmt.Fprint(os.Stderr, prompt)
	line, _ := reader.ReadString('\n')
	line = trimNewline(line)
	if line == "" {
		return def
	}
	return line
}
