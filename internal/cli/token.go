package cli

import (
	"fmt"
	"strings"
	"time"

	"quizwise-service/internal/config"
	"quizwise-service/internal/domain"
	"quizwise-service/internal/identity"
	"github.com/spf13/cobra"
)

// NewTokenCmd signs a bearer token with the configured secret, for local
// clients and manual testing against a running server.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		userID string
		name   string
		email  string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return fmt.Errorf("auth.jwt_secret not configured")
			}
			if strings.TrimSpace(userID) == "" {
				return fmt.Errorf("--user is required")
			}
			token, err := identity.NewJWTResolver(cfg.Auth.JWTSecret).Issue(domain.Identity{
				UserID:      userID,
				DisplayName: name,
				Email:       email,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "stable user id (token subject)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
