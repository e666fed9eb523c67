package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var binCmd = &cobra.Command{
	Use:   "bin",
	Short: "Print the directory where installed commands' scripts live",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(filepath.Join(ctx.homeDir, "bin"))
		return nil
	},
}
