package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinicx/internal/appointment"
	"github.com/hackgods/clinicx/internal/config"
	"github.com/hackgods/clinicx/internal/dashboard"
	"github.com/hackgods/clinicx/internal/db"
	"github.com/hackgods/clinicx/internal/observability"
	redisclient "github.com/hackgods/clinicx/internal/redis"
)

func main() {
	cfg, err := config.Load()
	logger := observability.InitLogger("dashboard-warmer", cfg.Env)
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger.Info().
		Str("env", cfg.Env).
		Dur("interval", cfg.WorkerInterval).
		Msg("dashboard warmer starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.DBMaxConns)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		PoolSize: 2,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	repo := appointment.NewPgRepository(pgPool)
	// Entries outlive one interval so readers never fall into a gap between runs.
	cache := redisclient.NewSummaryCache(rdb, cfg.WorkerInterval+cfg.DashboardCacheTTL)
	svc := dashboard.NewService(repo, cache, cfg.Location(), logger)

	// Run once at startup
	runOnce(rootCtx, svc, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping dashboard warmer")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, logger)
		}
	}
}

func runOnce(ctx context.Context, svc *dashboard.Service, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	d, err := svc.Refresh(runCtx)
	if err != nil {
		logger.Error().Err(err).Msg("dashboard refresh failed")
		return
	}
	logger.Info().
		Int("appointments", d.TotalAppointments).
		Int("today", d.AppointmentCounts[appointment.TodayKey]).
		Dur("took", time.Since(start)).
		Msg("dashboard refresh complete")
}
