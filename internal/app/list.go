package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/layout"
	"github.com/wapmhq/wapm/internal/manifest"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages and commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagAll {
			if ctx.hasProject {
				if err := printLockfile("project", ctx.project); err != nil {
					return err
				}
			}
			return printLockfile("global", ctx.global)
		}
		scope, err := ctx.scopeFor(flagGlobal)
		if err != nil {
			return err
		}
		label := "project"
		if flagGlobal {
			label = "global"
		}
		return printLockfile(label, scope)
	},
}

func init() {
	listCmd.Flags().BoolVarP(&flagAll, "all", "a", false, "list both project and global scopes")
}

func printLockfile(label string, scope layout.Scope) error {
	lock, err := manifest.LoadLockfile(scope.LockfilePath)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s):\n", label, scope.LockfilePath)
	if len(lock.Modules) == 0 {
		fmt.Println("  (nothing installed)")
		return nil
	}

	seen := map[[2]string]bool{}
	pkgs := make([][2]string, 0, len(lock.Modules))
	for _, mod := range lock.Modules {
		key := [2]string{mod.Package, mod.PackageVersion}
		if !seen[key] {
			seen[key] = true
			pkgs = append(pkgs, key)
		}
	}
	sort.Slice(pkgs, func(i, j int) bool {
		if pkgs[i][0] != pkgs[j][0] {
			return pkgs[i][0] < pkgs[j][0]
		}
		return pkgs[i][1] < pkgs[j][1]
	})
	for _, pv := range pkgs {
		ns, name, _ := manifest.ParseQualifiedName(pv[0])
		if ns == "" {
			ns = "_"
			name = pv[0]
		}
		size := dirSize(scope.InstallDir(ns, name, pv[1]))
		fmt.Printf("  %s@%s (%s)\n", pv[0], pv[1], formatSize(size))
	}

	if len(lock.Commands) > 0 {
		fmt.Println("  commands:")
		names := make([]string, 0, len(lock.Commands))
		for name := range lock.Commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cmd := lock.Commands[name]
			fmt.Printf("    %s -> %s@%s\n", name, cmd.Package, cmd.Version)
		}
	}
	return nil
}

// dirSize sums file sizes under root; unreadable trees report 0 rather
// than failing the whole listing.
func dirSize(root string) int64 {
	var total int64
	filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
