package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/anchor/backend/internal/auth"
)

func newTokenCmd(envFile *string) *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with the configured JWT secret",
		Long: `Token signs an HS256 token the server accepts, for local development and
scripts. It needs ANCHOR_JWT_SECRET (or SUPABASE_JWT_SECRET) in the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			signer := auth.NewJWTAuthenticator(cfg.Auth.TokenSecret(), cfg.Auth.JWTIssuer)
			if signer == nil {
				return errors.New("no JWT secret configured")
			}

			token, err := signer.IssueToken(auth.User{ID: userID, Email: email}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "subject of the token")
	cmd.Flags().StringVar(&email, "email", "", "optional email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
