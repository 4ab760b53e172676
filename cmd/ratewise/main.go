package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"ratewise-service/internal/application/services"
	"ratewise-service/internal/domain/entities"
	"ratewise-service/internal/domain/interfaces"
	"ratewise-service/internal/infrastructure/config"
	"ratewise-service/internal/infrastructure/frame"
	"ratewise-service/internal/infrastructure/logging"
	"ratewise-service/internal/infrastructure/metrics"
	"ratewise-service/internal/infrastructure/observability"
	"ratewise-service/internal/infrastructure/ratelimit"
	"ratewise-service/internal/infrastructure/refresh"
	"ratewise-service/internal/infrastructure/repositories/cache"
	"ratewise-service/internal/infrastructure/repositories/postgres"
	"ratewise-service/internal/infrastructure/source"
	"ratewise-service/internal/infrastructure/web/handlers"
	"ratewise-service/internal/infrastructure/web/server"
)

const (
	serviceName    = "ratewise-service"
	serviceVersion = "1.0.0"
	uptimeInterval = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ratewise: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	startedAt := time.Now()

	environment := config.GetEnvironment()
	cfg, err := config.NewLoader().LoadForEnvironment(environment)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logConfig := logging.NewConfig(serviceName, serviceVersion, environment).
		WithLevel(logging.LogLevelFromString(cfg.Logging.Level)).
		WithFormat(logging.LogFormatFromString(cfg.Logging.Format))
	if err := logging.InitializeGlobalLoggers(logConfig); err != nil {
		return fmt.Errorf("failed to initialize loggers: %w", err)
	}

	metrics.SetApplicationInfo(serviceVersion, runtime.Version())
	logging.Info(ctx, "Starting ratewise service", logging.Fields{
		"environment": environment,
		"version":     serviceVersion,
	})

	observer := observability.NewObserver(logging.GetGlobalLoggers())

	// Cache de snapshots
	backend, err := cache.NewFactory().CreateCache(ctx, cache.Config{
		Type:      cache.CacheType(cfg.Cache.Backend),
		RedisAddr: cfg.Cache.Redis.Addr,
		RedisDB:   cfg.Cache.Redis.DB,
		Password:  cfg.Cache.Redis.Password,
		KeyPrefix: cfg.Cache.Prefix,
	})
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	if closer, ok := backend.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}
	store := cache.NewSnapshotStore(backend, cfg.Cache.LatestTTL, cfg.Cache.HistoryTTL)

	// Fuente de tasas
	limiter := ratelimit.NewMirrorLimiter(ratelimit.Config{
		Enabled:      cfg.Source.RateLimit.Enabled,
		Capacity:     cfg.Source.RateLimit.Capacity,
		RefillRate:   cfg.Source.RateLimit.RefillRate,
		RefillPeriod: cfg.Source.RateLimit.RefillPeriod,
	})
	transport := source.NewHTTPTransport(source.TransportOptions{
		Timeout:    cfg.Source.Timeout,
		MaxRetries: cfg.Source.MaxRetries,
		Limiter:    limiter,
	})
	client := source.NewMirrorClient(
		transport,
		source.NewMirrorSet(cfg.Source.LatestMirrors, cfg.Source.HistoryMirrors),
		store,
		source.WithObserver(observer),
		source.WithProbe(cfg.Source.Probe),
	)

	location, err := time.LoadLocation(cfg.History.Location)
	if err != nil {
		return fmt.Errorf("invalid history location %q: %w", cfg.History.Location, err)
	}
	history := services.NewHistoryService(client, services.HistoryOptions{
		MaxDays:        cfg.History.MaxDays,
		MaxConcurrency: cfg.History.MaxConcurrency,
		Location:       location,
		Observer:       observer,
	})
	calc := services.NewCalculator(services.NewRateResolver(observer))

	// Archivo opcional en Postgres
	var archive interfaces.SnapshotArchive
	if cfg.Archive.Enabled {
		pool, err := postgres.Connect(ctx, cfg.Archive.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect archive: %w", err)
		}
		defer pool.Close()

		pgArchive := postgres.NewSnapshotArchive(pool)
		if err := pgArchive.Migrations().Setup(ctx); err != nil {
			return fmt.Errorf("failed to migrate archive: %w", err)
		}
		archive = pgArchive
	}

	tracked, err := parseTracked(cfg.Scheduler.Tracked)
	if err != nil {
		return err
	}
	rateType, err := entities.ParseRateType(cfg.Scheduler.RateType)
	if err != nil {
		return err
	}

	hub := handlers.NewConverterHub()
	health := handlers.NewHealthHandler(hub, archive)
	router := server.NewRouter(server.Handlers{
		Rates:  handlers.NewRatesHandler(client, history, calc),
		Health: health,
		Converter: handlers.NewConverterHandler(hub, client, calc, handlers.ConverterOptions{
			Tracked:  tracked,
			RateType: rateType,
			Frames:   frame.NewTickerScheduler(cfg.Scheduler.FrameInterval),
			Budget:   cfg.Scheduler.Budget,
			Observer: observer,
		}),
	})
	srv := server.NewServer(router, cfg.Server.Host, cfg.Server.Port)

	job, err := refresh.NewJob(client, refresh.Options{
		Spec:      cfg.Refresh.Spec,
		Location:  location,
		Publisher: hub,
		Archive:   archive,
	})
	if err != nil {
		return err
	}

	// Carga inicial; si falla, el conversor pide latest al abrir la sesión
	if err := job.RunOnce(ctx); err != nil {
		logging.WarnWithError(ctx, "Initial rates load failed", err, nil)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		hub.Shutdown(shutdownCtx)
		return srv.Stop(shutdownCtx)
	})

	if cfg.Refresh.Enabled {
		g.Go(func() error {
			return job.Run(gctx)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(uptimeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				metrics.UpdateUptime(time.Since(startedAt).Seconds())
				health.RecordSnapshotAge()
			}
		}
	})

	err = g.Wait()
	logging.Info(context.Background(), "Ratewise service stopped", nil)
	return err
}

func parseTracked(raw []string) ([]entities.CurrencyCode, error) {
	codes := make([]entities.CurrencyCode, 0, len(raw))
	for _, r := range raw {
		code, err := entities.ParseCurrencyCode(r)
		if err != nil {
			return nil, fmt.Errorf("invalid tracked currency: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, nil
}
