package main

import (
	"errors"
	"fmt"

	"construction-platform/internal/audit"
	"construction-platform/internal/auth"
	"construction-platform/internal/users"
	"construction-platform/pkg/utils"

	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateOpts struct {
	email    string
	password string
	name     string
	role     string
}

// userCreateCmd seeds accounts, notably the first ADMIN, which the API
// cannot create because registration always yields a WORKER.
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account with an explicit role",
	Example: `  api user create --email admin@site.example --password 'change-me-now' --name "Site Admin" --role ADMIN`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := userCreateOpts
		role, ok := users.ParseRole(opts.role)
		if !ok {
			return fmt.Errorf("unknown role %q", opts.role)
		}
		if len(opts.password) < 8 {
			return errors.New("password must be at least 8 characters")
		}

		cfg, log, closeLogs, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeLogs()
		pg, err := utils.OpenPostgres(cmd.Context(), cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2})
		if err != nil {
			return err
		}
		defer pg.Close()

		digest, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost).Hash(opts.password)
		if err != nil {
			return err
		}
		u, err := users.NewPostgresRepo(pg).Create(cmd.Context(), users.User{
			Email:        opts.email,
			Name:         opts.name,
			Role:         role,
			PasswordHash: digest,
			IsActive:     true,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		if err := audit.NewService(audit.NewPostgresRepo(pg)).UserRegistered(cmd.Context(), u.ID, u.Email, ""); err != nil {
			log.Warn("audit write failed", "error", err.Error())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", u.Role, u.Email, u.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	f := userCreateCmd.Flags()
	f.StringVar(&userCreateOpts.email, "email", "", "account email")
	f.StringVar(&userCreateOpts.password, "password", "", "initial password (min 8 characters)")
	f.StringVar(&userCreateOpts.name, "name", "", "display name")
	f.StringVar(&userCreateOpts.role, "role", string(users.RoleWorker), "ADMIN, MANAGER, SUPERVISOR, WORKER or CLIENT")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")
}
