package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-auth/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-auth/internal/app"
	"github.com/odyssey-erp/odyssey-auth/internal/auth"
	"github.com/odyssey-erp/odyssey-auth/internal/platform/db"
	"github.com/odyssey-erp/odyssey-auth/internal/users"
)

// exitError carries a non-zero exit code from a helper that already reported
// its failure.
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func exitCode(code int) error {
	if code == 0 {
		return nil
	}
	return exitError(code)
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pool, err := db.New(ctx, cfg.PGDSN)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := db.Migrate(ctx, pool); err != nil {
				return err
			}
			app.NewLogger(cfg).Info("migrations applied")
			return nil
		},
	}
}

func newCreateSuperuserCommand() *cobra.Command {
	var (
		opts      cli.SuperuserOptions
		staff     bool
		superuser bool
	)

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create the bootstrap Admin principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("staff") {
				opts.Staff = &staff
			}
			if cmd.Flags().Changed("superuser") {
				opts.Superuser = &superuser
			}
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()

			ctx := cmd.Context()
			cfg, err := app.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pool, err := db.New(ctx, cfg.PGDSN)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := users.NewService(users.NewRepository(pool), auth.NewBcryptHasher(cfg.BcryptCost), app.NewLogger(cfg))
			return exitCode(cli.CreateSuperuserCommand(ctx, svc, opts))
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "Login name of the superuser")
	cmd.Flags().StringVar(&opts.Email, "email", "", "Optional email address")
	cmd.Flags().StringVar(&opts.Password, "password", "", "Password (falls back to "+cli.PasswordEnv+")")
	cmd.Flags().StringVar(&opts.Role, "role", "", "Role; only Admin is accepted")
	cmd.Flags().BoolVar(&staff, "staff", true, "Staff flag; must stay true")
	cmd.Flags().BoolVar(&superuser, "superuser", true, "Superuser flag; must stay true")
	cmd.Flags().BoolVar(&opts.JSONOutput, "json", false, "Print the created principal as JSON")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Background job operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newJobsPurgeCommand())
	cmd.AddCommand(newJobsStatsCommand())
	return cmd
}

func newJobsPurgeCommand() *cobra.Command {
	var opts cli.PurgeOptions

	cmd := &cobra.Command{
		Use:   "purge-revocations",
		Short: "Enqueue a purge of expired revocation records",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, err := app.LoadRevocationBackend()
			if err != nil {
				return err
			}
			opts.Backend = backend
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			return withJobsCLI(func(c *cli.JobsCLI) int {
				return c.PurgeCommand(cmd.Context(), opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Before, "before", "", "RFC3339 cut-off; defaults to the execution time")
	return cmd
}

func newJobsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show default queue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withJobsCLI(func(c *cli.JobsCLI) int {
				return c.StatsCommand(cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	}
}

func withJobsCLI(run func(*cli.JobsCLI) int) error {
	// LoadConfig would also demand JWT_SECRET.
	opts, err := app.LoadRedisOptions()
	if err != nil {
		return err
	}
	c := cli.NewJobsCLI(opts.AsynqOpt())
	code := run(c)
	if err := c.Close(); err != nil && code == 0 {
		return err
	}
	return exitCode(code)
}
