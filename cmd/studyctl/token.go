package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"studymate/internal/config"
	"studymate/internal/pkg/jwtutil"
)

func newTokenCmd() *cobra.Command {
	var (
		userID   uint
		username string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.Auth.JWTExpireMinute) * time.Minute
			}
			token, err := jwtutil.GenerateToken(cfg.Auth.JWTSecret, ttl, userID, username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "User id to embed in the token")
	cmd.Flags().StringVar(&username, "name", "", "Optional username claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to auth.jwt_expire_minute)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
