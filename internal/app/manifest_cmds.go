package app

import (
	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/install"
)

var addCmd = &cobra.Command{
	Use:   "add <spec...>",
	Short: "Add dependencies to the project manifest and install them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ctx.hasProject {
			return errNoProject
		}
		engine := install.NewEngine(ctx.project, ctx.client, ctx.keyStore, ctx.confirmer)
		return engine.AddPackages(cmd.Context(), args, install.Flags{
			ForceYes: ctx.forceYes,
			Offline:  ctx.offline,
			Quiet:    ctx.quiet,
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <spec...>",
	Short: "Remove dependencies from the project manifest and uninstall them if unreferenced",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ctx.hasProject {
			return errNoProject
		}
		engine := install.NewEngine(ctx.project, ctx.client, ctx.keyStore, ctx.confirmer)
		return engine.RemovePackages(cmd.Context(), args, install.Flags{
			ForceYes: ctx.forceYes,
			Offline:  ctx.offline,
			Quiet:    ctx.quiet,
		})
	},
}
