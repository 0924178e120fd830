package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgo/recipebook/internal/service"
	"github.com/forgo/recipebook/pkg/jwt"
)

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "token <username>",
		Short: "Sign an access token for an existing user",
		Long: `Sign an access token for an existing user without their password.

Useful for local development and scripted API calls. The token is signed
with the configured private key and expires after jwt.expiration_mins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			logger, _ := newLogger(cfg, cmd)

			jwtService, err := jwt.NewService(jwt.Config{
				PrivateKeyPath: cfg.JWT.PrivateKeyPath,
				PublicKeyPath:  cfg.JWT.PublicKeyPath,
				Issuer:         cfg.JWT.Issuer,
				ExpirationMins: cfg.JWT.ExpirationMins,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize JWT service (run `recipebook keys` first): %w", err)
			}

			store, err := openBackend(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() { _ = store.Close() }()

			auth := service.NewAuthService(service.AuthServiceConfig{
				UserRepo:   store.Users,
				JWTService: jwtService,
				Logger:     logger,
			})
			resp, err := auth.IssueToken(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to issue token for %q: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			expires := time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
			fmt.Fprintf(out, "User ID:  %s\n", resp.User.ID)
			fmt.Fprintf(out, "Username: %s\n", resp.User.Username)
			fmt.Fprintf(out, "Expires:  %s\n\n", expires.Format(time.RFC3339))
			fmt.Fprintln(out, resp.AccessToken)
			return nil
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "output as JSON")

	return cmd
}
