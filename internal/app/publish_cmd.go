package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/install"
	"github.com/wapmhq/wapm/internal/keys"
)

var flagDryRun bool

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Package and upload the current directory's manifest to the registry",
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		sign, err := activeSigner()
		if err != nil {
			return err
		}

		publisher := install.NewPublisher(ctx.client)
		result, err := publisher.Publish(cmd.Context(), cwd, sign, flagDryRun)
		if err != nil {
			return err
		}
		if flagDryRun {
			fmt.Println("dry run: manifest and archive built successfully, nothing uploaded")
			return nil
		}
		if !ctx.quiet {
			fmt.Printf("Published package version %s\n", result.PackageVersion)
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "build and validate without uploading")
}

// activeSigner returns a Signer bound to the local user's active personal
// key, or nil if none is configured (an unsigned publish).
func activeSigner() (install.Signer, error) {
	if ctx.keyStore == nil {
		return nil, nil
	}
	pk, err := ctx.keyStore.ActivePersonalKey()
	if err != nil || pk == nil {
		return nil, nil
	}

	passphrase := ""
	if pk.Encrypted {
		fmt.Fprint(os.Stderr, "Passphrase for signing key: ")
		p, err := readPassword()
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(os.Stderr)
		passphrase = p
	}

	priv, err := keys.ReadPrivateKey(pk.PrivateKeyPath, pk.Encrypted, passphrase)
	if err != nil {
		return nil, err
	}
	return func(archive []byte) string {
		return keys.SignArchive(priv, archive)
	}, nil
}
