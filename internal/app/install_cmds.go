package app

import (
	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/install"
	"github.com/wapmhq/wapm/internal/manifest"
)

var installCmd = &cobra.Command{
	Use:   "install [spec...]",
	Short: "Install dependencies from the manifest, or install extra packages ephemerally",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := ctx.scopeFor(flagGlobal)
		if err != nil {
			return err
		}
		flags := install.Flags{
			ForceYes: ctx.forceYes,
			Offline:  ctx.offline,
			Quiet:    ctx.quiet,
		}
		engine := install.NewEngine(scope, ctx.client, ctx.keyStore, ctx.confirmer)
		if len(args) == 0 {
			return engine.Install(cmd.Context(), nil, flags)
		}
		extra := make(map[string]string, len(args))
		for _, spec := range args {
			ns, name, ver := manifest.ParseQualifiedName(spec)
			qn := name
			if ns != "" {
				qn = ns + "/" + name
			}
			extra[qn] = ver
		}
		return engine.Install(cmd.Context(), extra, flags)
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <spec...>",
	Short: "Remove installed packages and prune unreferenced installs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, err := ctx.scopeFor(flagGlobal)
		if err != nil {
			return err
		}
		engine := install.NewEngine(scope, ctx.client, ctx.keyStore, ctx.confirmer)
		return engine.Uninstall(cmd.Context(), args)
	},
}
