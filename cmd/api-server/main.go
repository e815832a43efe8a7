package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/hackgods/clinicx/internal/api"
	"github.com/hackgods/clinicx/internal/appointment"
	"github.com/hackgods/clinicx/internal/auth"
	"github.com/hackgods/clinicx/internal/config"
	"github.com/hackgods/clinicx/internal/dashboard"
	"github.com/hackgods/clinicx/internal/db"
	"github.com/hackgods/clinicx/internal/observability"
	redisclient "github.com/hackgods/clinicx/internal/redis"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	logger := observability.InitLogger("api-server", cfg.Env)
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}

	logger.Info().
		Str("env", cfg.Env).
		Str("http_port", cfg.HTTPPort).
		Str("clinic_timezone", cfg.Location().String()).
		Msg("api-server starting up")

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

	// Redis only backs the dashboard cache; run without it if it is down.
	var (
		summaries   *redisclient.SummaryCache
		redisPinger api.PingFunc
	)
	rdb, err := redisclient.NewRedisClient(rootCtx, redisclient.Options{
		Addr:     cfg.RedisAddr,
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, dashboard cache disabled")
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("error closing redis")
			}
		}()
		summaries = redisclient.NewSummaryCache(rdb, cfg.DashboardCacheTTL)
		redisPinger = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info().Msg("connected to Redis")
	}

	repo := appointment.NewPgRepository(pgPool)
	slots := appointment.GenerateTimes(cfg.ClinicOpenHour, cfg.ClinicCloseHour, cfg.SlotMinutes)

	var (
		invalidator appointment.SummaryInvalidator
		cache       dashboard.Cache
	)
	if summaries != nil {
		invalidator = summaries
		cache = summaries
	}

	apptSvc := appointment.NewService(repo, invalidator, slots, logger.With().Str("component", "appointments").Logger())
	dashSvc := dashboard.NewService(repo, cache, cfg.Location(), logger.With().Str("component", "dashboard").Logger())

	verifier := auth.NewVerifier(auth.Config{
		Secret:       []byte(cfg.JWTSecret),
		Issuer:       cfg.JWTIssuer,
		AllowHeaders: cfg.IsDev(),
	})

	router := api.NewRouter(api.RouterConfig{
		Appointments: apptSvc,
		Dashboards:   dashSvc,
		Auth:         verifier,
		Health:       api.NewHealthHandler(pgPool.Ping, redisPinger, cfg.Env, version),
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
