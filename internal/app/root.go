package app

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagGlobal   bool
	flagYes      bool
	flagForceYes bool
	flagOffline  bool
	flagQuiet    bool
	flagAll      bool

	ctx *appContext

	// RootCmd is wapm's root command.
	RootCmd = &cobra.Command{
		Use:   "wapm",
		Short: "Install, run, and publish WebAssembly packages",
		Long: `wapm is a package manager for WebAssembly. It resolves and installs
packages from the wapm registry, dispatches commands to an external
WebAssembly runtime, and lets publishers sign and distribute their own
packages.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAppContext(flagYes, flagForceYes, flagOffline, flagQuiet)
			if err != nil {
				return err
			}
			ctx = c
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if ctx != nil {
				ctx.close()
			}
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&flagGlobal, "global", "g", false, "operate on the global scope instead of the current project")
	RootCmd.PersistentFlags().BoolVarP(&flagYes, "yes", "y", false, "accept default prompts")
	RootCmd.PersistentFlags().BoolVar(&flagForceYes, "force-yes", false, "accept all prompts, including trust-on-first-use signature prompts")
	RootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "never contact the registry")
	RootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress progress output")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(addCmd, removeCmd)
	RootCmd.AddCommand(installCmd, uninstallCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(runCmd, executeCmd, waxCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(publishCmd)
	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(keysCmd)
	RootCmd.AddCommand(binCmd)
}

// Execute runs the root command. A failing command's error is appended,
// with a stack trace, to the log file before it is returned.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil && ctx != nil && ctx.logger != nil {
		ctx.logger.Error("command failed", zap.Error(err), zap.Stack("stacktrace"))
	}
	return err
}
