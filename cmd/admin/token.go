package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/medrecords-api/internal/config"
	"github.com/jwalitptl/medrecords-api/internal/model"
	"github.com/jwalitptl/medrecords-api/pkg/auth"
)

func tokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		expiry time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token used to attribute requests in the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			r, err := model.ParseRole(role)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if expiry <= 0 {
				expiry = cfg.JWT.TokenExpiry
			}

			token, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, expiry).Issue(id, string(r))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", "doctor", "patient, doctor or admin")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime (defaults to JWT_TOKEN_EXPIRY)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
