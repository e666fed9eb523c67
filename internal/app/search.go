package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/manifest"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the registry for packages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := ctx.client.Search(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}
		if len(result.Packages) == 0 {
			fmt.Println("no packages found")
			return nil
		}
		for _, pkg := range result.Packages {
			qn := manifest.FormatQualifiedName(pkg.Namespace, pkg.Name, pkg.LatestVersion)
			if pkg.Description != "" {
				fmt.Printf("%s - %s\n", qn, pkg.Description)
			} else {
				fmt.Println(qn)
			}
		}
		return nil
	},
}
