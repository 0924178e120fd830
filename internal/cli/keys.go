package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forgo/recipebook/internal/config"
	"github.com/forgo/recipebook/pkg/jwt"
)

// NewKeysCommand creates the keys command.
func NewKeysCommand(rootOpts *RootOptions) *cobra.Command {
	var privatePath, publicPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate the RSA key pair used to sign access tokens",
		Long: `Generate a 2048-bit RSA key pair in PEM format.

Paths default to jwt.private_key_path and jwt.public_key_path from the
configuration. Existing keys are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if privatePath == "" {
				privatePath = cfg.JWT.PrivateKeyPath
			}
			if publicPath == "" {
				publicPath = cfg.JWT.PublicKeyPath
			}

			if !force {
				for _, p := range []string{privatePath, publicPath} {
					if _, err := os.Stat(p); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", p)
					} else if !errors.Is(err, os.ErrNotExist) {
						return err
					}
				}
			}

			for _, p := range []string{privatePath, publicPath} {
				if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
					return fmt.Errorf("failed to create key directory: %w", err)
				}
			}
			if err := jwt.GenerateKeyPair(privatePath, publicPath); err != nil {
				return fmt.Errorf("failed to generate keys: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "private key: %s\npublic key:  %s\n", privatePath, publicPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&privatePath, "private", "", "private key output path")
	cmd.Flags().StringVar(&publicPath, "public", "", "public key output path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing keys")

	return cmd
}
