package app

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/install"
	"github.com/wapmhq/wapm/internal/layout"
	"github.com/wapmhq/wapm/internal/manifest"
	"github.com/wapmhq/wapm/internal/run"
	"github.com/wapmhq/wapm/internal/wax"
)

// run/execute/wax hand their trailing arguments straight to the WebAssembly
// module, so cobra's own flag parsing is disabled for them (spec.md §4.G):
// a `--foo` meant for the module must not be swallowed as a wapm flag.
// wapm's own run/execute/wax flags (--which, --clear) are only recognized
// when they appear before the command name.

var runCmd = &cobra.Command{
	Use:                "run <name> [-- args...]",
	Short:              "Run an installed command through the WebAssembly runtime",
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		which, rest := takeLeadingFlag(args, "--which")
		if len(rest) == 0 {
			return errs.New(errs.Resolution, "run requires a command name")
		}
		return runOrExecute(cmd, rest, false, which)
	},
}

var executeCmd = &cobra.Command{
	Use:                "execute <name> [args...]",
	Short:              "Run a command, installing it ephemerally into the global scope if needed",
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		which, rest := takeLeadingFlag(args, "--which")
		if len(rest) == 0 {
			return errs.New(errs.Resolution, "execute requires a command name")
		}
		return runOrExecute(cmd, rest, true, which)
	},
}

var waxCmd = &cobra.Command{
	Use:                "wax <name> [args...]",
	Short:              "Alias for execute; also manages the execute cache",
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		clear, rest := takeLeadingFlag(args, "--clear")
		if clear {
			return clearWaxCache()
		}
		which, rest := takeLeadingFlag(rest, "--which")
		if len(rest) == 0 {
			return errs.New(errs.Resolution, "wax requires a command name or --clear")
		}
		return runOrExecute(cmd, rest, true, which)
	},
}

// takeLeadingFlag reports whether flag is the first argument (i.e. appears
// before the command name) and, if so, strips it.
func takeLeadingFlag(args []string, flag string) (present bool, rest []string) {
	if len(args) > 0 && args[0] == flag {
		return true, args[1:]
	}
	return false, args
}

func clearWaxCache() error {
	idxPath := layout.WaxIndexPath(ctx.homeDir)
	idx, err := wax.Load(idxPath)
	if err != nil {
		return err
	}
	idx.Clear()
	return wax.Save(idxPath, idx)
}

// runOrExecute resolves name against the project and global lockfiles and
// runs it. When ephemeral is true (execute/wax), an unresolved command
// triggers an install into the global scope before resolving again.
func runOrExecute(cmd *cobra.Command, args []string, ephemeral, which bool) error {
	name := args[0]
	userArgs := args[1:]

	idxPath := layout.WaxIndexPath(ctx.homeDir)
	if idx, err := wax.Load(idxPath); err == nil {
		if evicted := idx.EvictExpired(wax.DefaultTTL, time.Now()); len(evicted) > 0 {
			_ = wax.Save(idxPath, idx)
		}
	}

	resolver := run.NewResolver(ctx.project, ctx.hasProject, ctx.global)
	res, err := resolver.Resolve(name)
	if err != nil {
		if !ephemeral {
			return suggestOrFail(cmd, name, err)
		}
		if ctx.offline {
			return errs.New(errs.Network, "command not installed and --offline forbids resolving it from the registry")
		}
		res, err = ephemeralInstall(cmd, resolver, name)
		if err != nil {
			return err
		}
	}

	if which {
		fmt.Println(res.ModuleFile)
		return nil
	}

	code, err := run.Run(cmd.Context(), res, userArgs, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

func suggestOrFail(cmd *cobra.Command, name string, resolveErr error) error {
	if ctx.offline {
		return resolveErr
	}
	suggestion, err := run.SuggestInstall(cmd.Context(), ctx.client, name)
	if err != nil || suggestion == "" {
		return resolveErr
	}
	return errs.Newf(errs.Resolution, "command %q not found; did you mean to install %s?", name, suggestion)
}

// ephemeralInstall resolves name to a package via the registry, installs it
// into the global scope, records the resolution in the execute cache, and
// resolves name again against the now-updated global lockfile.
func ephemeralInstall(cmd *cobra.Command, resolver *run.Resolver, name string) (run.Resolution, error) {
	suggestion, err := run.SuggestInstall(cmd.Context(), ctx.client, name)
	if err != nil || suggestion == "" {
		return run.Resolution{}, errs.Newf(errs.Resolution, "command %q not found in the registry", name)
	}

	ns, pkgName, ver := manifest.ParseQualifiedName(suggestion)
	qn := pkgName
	if ns != "" {
		qn = ns + "/" + pkgName
	}

	engine := install.NewEngine(ctx.global, ctx.client, ctx.keyStore, ctx.confirmer)
	extra := map[string]string{qn: ver}
	if err := engine.Install(cmd.Context(), extra, install.Flags{
		ForceYes: ctx.forceYes,
		Offline:  ctx.offline,
		Quiet:    ctx.quiet,
	}); err != nil {
		return run.Resolution{}, err
	}

	idxPath := layout.WaxIndexPath(ctx.homeDir)
	if idx, err := wax.Load(idxPath); err == nil {
		idx.Touch(name, qn, ver, time.Now())
		_ = wax.Save(idxPath, idx)
	}

	// A fresh resolver: the caller's resolver has the pre-install global
	// lockfile cached.
	return run.NewResolver(ctx.project, ctx.hasProject, ctx.global).Resolve(name)
}
