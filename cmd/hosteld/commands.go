package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"hostel-allocation-backend/internal/db"
	"hostel-allocation-backend/internal/mw"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := db.Open(&app.cfg.Database)
			if err != nil {
				return err
			}
			if err := db.Migrate(gormDB); err != nil {
				return err
			}
			app.logger.Info("database schema is up to date")
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		role string
		id   int64
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an identity token for a student or admin",
		Long:  `Prints a signed bearer token. Intended for local testing and operator scripts.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != mw.RoleStudent && role != mw.RoleAdmin {
				return fmt.Errorf("role must be %q or %q", mw.RoleStudent, mw.RoleAdmin)
			}
			if id <= 0 {
				return fmt.Errorf("id must be positive")
			}

			ttl := time.Duration(app.cfg.Auth.TokenTTLMinutes) * time.Minute
			tok, err := mw.IssueToken(app.cfg.Auth.JWTSecret, app.cfg.Auth.Issuer, role, id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", mw.RoleStudent, "Token role (student or admin)")
	cmd.Flags().Int64Var(&id, "id", 0, "Student or admin id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
