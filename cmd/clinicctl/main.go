package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinicx/internal/appointment"
	"github.com/hackgods/clinicx/internal/config"
	"github.com/hackgods/clinicx/internal/db"
	"github.com/hackgods/clinicx/internal/observability"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinicctl",
		Short:         "ClinicX administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dry, _ := cmd.Flags().GetBool("print"); dry {
				fmt.Print(db.Schema())
				return nil
			}

			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
				if err := db.ApplySchema(ctx, pool); err != nil {
					return err
				}
				logger.Info().Msg("schema applied")
				return nil
			})
		},
	}
	cmd.Flags().Bool("print", false, "print the schema instead of applying it")
	return cmd
}

func seedCmd() *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fake doctors, staff, patients and appointments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) error {
				opts.Slots = appointment.GenerateTimes(cfg.ClinicOpenHour, cfg.ClinicCloseHour, cfg.SlotMinutes)
				return runSeed(ctx, pool, opts, logger)
			})
		},
	}

	cmd.Flags().IntVar(&opts.Doctors, "doctors", 20, "number of doctors")
	cmd.Flags().IntVar(&opts.Nurses, "nurses", 10, "number of nurses")
	cmd.Flags().IntVar(&opts.Patients, "patients", 500, "number of patients")
	cmd.Flags().IntVar(&opts.Appointments, "appointments", 2000, "number of appointments")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed, 0 picks one from the clock")
	return cmd
}

func withPool(ctx context.Context, fn func(context.Context, *config.Config, *pgxpool.Pool, zerolog.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.InitLogger("clinicctl", cfg.Env)

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(connCtx, cfg.PostgresDSN, cfg.DBMaxConns)
	cancel()
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, &cfg, pool, logger)
}
