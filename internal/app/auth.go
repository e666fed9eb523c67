package app

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/errs"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the registry and store a token",
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)
		fmt.Fprint(os.Stderr, "Username: ")
		username, err := reader.ReadString('\n')
		if err != nil {
			return errs.Wrap(errs.Auth, err)
		}
		username = trimNewline(username)

		fmt.Fprint(os.Stderr, "Password: ")
		password, err := readPassword()
		if err != nil {
			return errs.Wrap(errs.Auth, err)
		}
		fmt.Fprintln(os.Stderr)

		result, err := ctx.client.TokenAuth(cmd.Context(), username, password)
		if err != nil {
			return err
		}
		if result == nil || result.Token == "" {
			return errs.New(errs.Auth, "registry did not return a token")
		}

		if err := ctx.cfg.Set("registry.token", result.Token); err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", result.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the stored registry token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return ctx.cfg.Set("registry.token", "")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Print the currently authenticated username",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := ctx.cfg.Config().Registry.Token
		if token == "" {
			return errs.New(errs.Auth, "not logged in; run `wapm login`")
		}
		username, err := ctx.client.VerifyToken(cmd.Context(), token)
		if err != nil {
			return err
		}
		fmt.Println(username)
		return nil
	},
}

func readPassword() (string, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return trimNewline(line), nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
