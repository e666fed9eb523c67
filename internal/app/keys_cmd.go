package app

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/keys"
)

var flagKeysAll bool

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage trusted publisher keys and local signing keys",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trusted public keys (-a) or local personal keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagKeysAll {
			all, names, err := ctx.keyStore.ListAllPublicKeys()
			if err != nil {
				return err
			}
			for _, k := range all {
				status := "trusted"
				if k.Revoked() {
					status = "revoked"
				}
				fmt.Printf("%s  %s  owner=%s  %s\n", k.KeyID, k.KeyType, names[k.UserID], status)
			}
			return nil
		}
		personal, err := ctx.keyStore.ListPersonalKeys()
		if err != nil {
			return err
		}
		for _, pk := range personal {
			active := ""
			if pk.Active {
				active = " (active)"
			}
			fmt.Printf("%s%s\n", pk.PublicKeyID, active)
		}
		return nil
	},
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new ed25519 signing keypair",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := keys.Generate()
		if err != nil {
			return err
		}

		fmt.Fprint(os.Stderr, "Passphrase to encrypt the private key (empty for none): ")
		passphrase, err := readPassword()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr)

		keyDir := filepath.Join(ctx.homeDir, "keys")
		if err := os.MkdirAll(keyDir, 0o700); err != nil {
			return errs.Wrap(errs.FilesystemIO, err)
		}
		privPath := filepath.Join(keyDir, gen.KeyID+".key")

		encrypted, err := keys.WritePrivateKey(privPath, gen.PrivateRaw, passphrase)
		if err != nil {
			return err
		}

		pk := &keys.PersonalKey{
			PublicKeyID:    gen.KeyID,
			PublicKeyValue: gen.PublicB64,
			PrivateKeyPath: privPath,
			Encrypted:      encrypted,
		}
		if err := ctx.keyStore.InsertPersonalKey(pk); err != nil {
			return err
		}
		fmt.Printf("Generated key %s (private key at %s)\n", gen.KeyID, privPath)
		return nil
	},
}

var keysRegisterCmd = &cobra.Command{
	Use:   "register <key-id>",
	Short: "Publish a local personal key to the registry so others can trust it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		personal, err := ctx.keyStore.ListPersonalKeys()
		if err != nil {
			return err
		}
		for _, pk := range personal {
			if pk.PublicKeyID == args[0] {
				return ctx.client.PublishPublicKey(cmd.Context(), pk.PublicKeyID, pk.PublicKeyValue, "")
			}
		}
		return errs.Newf(errs.Resolution, "no local personal key with id %s", args[0])
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <key-id>",
	Short: "Delete a local personal key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return ctx.keyStore.DeletePersonalKey(args[0])
	},
}

var keysImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import an existing private key file as a personal signing key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)
		fmt.Fprint(os.Stderr, "Key id: ")
		keyID, _ := reader.ReadString('\n')
		keyID = trimNewline(keyID)
		fmt.Fprint(os.Stderr, "Public key (base64): ")
		pubB64, _ := reader.ReadString('\n')
		pubB64 = trimNewline(pubB64)

		if _, err := os.Stat(args[0]); err != nil {
			return errs.Wrap(errs.FilesystemIO, err)
		}
		pk := &keys.PersonalKey{
			PublicKeyID:    keyID,
			PublicKeyValue: pubB64,
			PrivateKeyPath: args[0],
			Encrypted:      false,
		}
		return ctx.keyStore.InsertPersonalKey(pk)
	},
}

func init() {
	keysListCmd.Flags().BoolVarP(&flagKeysAll, "all", "a", false, "list all trusted publisher keys instead of local personal keys")
	keysCmd.AddCommand(keysListCmd, keysGenerateCmd, keysRegisterCmd, keysDeleteCmd, keysImportCmd)
}
