package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/saferent-network/saferent/internal/infra/signer"
)

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().BoolP("force", "f", false, "Overwrite an existing key file")
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the validator signing key",
	Long: `Generate a fresh secp256k1 signing key and write it to the key file
named in the configuration. The printed public key is what relying
parties use to verify certificates, so publish it; the key file itself
must stay private.`,
	RunE: runKeygen,
}

func runKeygen(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")

	keyFile := cfg.Validator.KeyFile
	if _, err := os.Stat(keyFile); err == nil && !force {
		return fmt.Errorf("key file %s already exists; a new key would orphan every signed block (use --force to overwrite)", keyFile)
	}

	auth, err := signer.Generate()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(keyFile), 0700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(keyFile, []byte(auth.PrivateKeyHex()+"\n"), 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Signing key written to %s\n", keyFile)
	fmt.Fprintf(os.Stdout, "Validator public key: %s\n", auth.PublicKeyHex())
	return nil
}
