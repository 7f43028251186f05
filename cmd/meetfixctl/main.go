package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"meetfix/contexts/event-coordination/group-service/adapters/invitecode"
	"meetfix/internal/app/bootstrap"
	"meetfix/internal/platform/config"
	"meetfix/internal/platform/db"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "meetfixctl",
		Short:         "Operator utility for the MeetFix backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newICSCommand())
	cmd.AddCommand(newInviteCodeCommand())
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// resolveDSN prefers the flag and falls back to POSTGRES_DSN.
func resolveDSN(ctx context.Context, flagValue string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue, nil
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return "", err
	}
	if !cfg.UsesPostgres() {
		return "", errors.New("postgres dsn is required (--dsn or POSTGRES_DSN)")
	}
	return cfg.PostgresDSN, nil
}

func newMigrateCommand() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect database migrations",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(db.MigrateUp), string(db.MigrateDown), string(db.MigrateStatus)},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			resolved, err := resolveDSN(ctx, dsn)
			if err != nil {
				return err
			}
			return db.Migrate(ctx, resolved, db.MigrationDirection(args[0]))
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string (defaults to POSTGRES_DSN)")
	return cmd
}

func newICSCommand() *cobra.Command {
	var (
		userID string
		output string
	)

	cmd := &cobra.Command{
		Use:   "ics <event-id>",
		Short: "Export a finalized event as an iCalendar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			if !cfg.UsesPostgres() {
				return errors.New("POSTGRES_DSN is required")
			}
			cfg.NATSURL = ""

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			runtime, err := bootstrap.Build(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer runtime.Close()

			body, err := runtime.Services.Events.Queries.ExportICS(ctx, userID, args[0])
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			return os.WriteFile(output, body, 0o644)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Member user id the export is made for")
	cmd.Flags().StringVar(&output, "output", "-", "Destination file, or - for stdout")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newInviteCodeCommand() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "invite-code",
		Short: "Generate invite codes with the production alphabet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return errors.New("--count must be positive")
			}
			generator := invitecode.Generator{}
			for i := 0; i < count; i++ {
				code, err := generator.NewInviteCode()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "Number of codes to print")
	return cmd
}
