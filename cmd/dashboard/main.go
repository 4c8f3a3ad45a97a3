package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/you/bixi-explorer/internal/config"
	"github.com/you/bixi-explorer/internal/figure"
	"github.com/you/bixi-explorer/internal/handlers"
	"github.com/you/bixi-explorer/internal/logging"
	"github.com/you/bixi-explorer/internal/metrics"
	"github.com/you/bixi-explorer/internal/repository"
	"github.com/you/bixi-explorer/internal/static"
	"github.com/you/bixi-explorer/internal/trips"
)

func main() {
	// Base .env first, then .env.local overrides for local development
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("dashboard stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DataSource == config.SourceCSV {
		refresher := &static.Refresher{
			ArchiveURL: cfg.DataArchiveURL,
			DataDir:    cfg.DataDir,
			MaxAgeDays: cfg.DataRefreshDays,
			Logger:     logger,
		}
		if err := refresher.RefreshIfStale(ctx); err != nil {
			// Existing files on disk may still be usable
			logger.Warn("trip data refresh failed", zap.Error(err))
		}
	}

	started := time.Now()
	ds, store, closeStore, err := loadDataset(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	defer closeStore()

	summary := ds.Summary()
	logger.Info("dataset loaded",
		zap.String("source", cfg.DataSource),
		zap.Int("rows", ds.Len()),
		zap.Int("member_trips", summary.Member.Count),
		zap.Int("non_member_trips", summary.NotMember.Count),
		zap.String("load_id", ds.LoadID().String()),
		zap.Duration("took", time.Since(started)),
	)

	var opts []figure.Option
	if cfg.FigureSeed != 0 {
		opts = append(opts, figure.WithSeed(cfg.FigureSeed))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTP(reg)

	routes := handlers.Routes{
		Figures: handlers.NewFigureHandler(ds, figure.NewTransformer(opts...), handlers.SampleLimits{
			Default:   cfg.DefaultSampleSize,
			Max:       cfg.MaxSampleSize,
			Default3D: cfg.Sample3D,
		}, httpMetrics, logger),
		Click:      handlers.NewClickHandler(ds),
		TripCounts: handlers.NewTripCountsHandler(ds, logger),
		Dataset:    handlers.NewDatasetHandler(ds, cfg.DataSource, store),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logging.RequestLogger(logger))
	r.Use(httpMetrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	routes.Mount(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	if cfg.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/*", fs)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: cfg.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadDataset reads every trip from the configured source. Any failure is
// fatal to startup: the dashboard never serves a partial dataset.
func loadDataset(ctx context.Context, cfg *config.Config) (*trips.Dataset, handlers.Pinger, func(), error) {
	switch cfg.DataSource {
	case config.SourceSQLite:
		store, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		records, err := store.LoadAll(ctx)
		if err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		return trips.NewDataset(records), store, func() { store.Close() }, nil

	case config.SourcePostgres:
		store, err := repository.NewPostgresTripStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		records, err := store.LoadAll(ctx)
		if err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		return trips.NewDataset(records), store, store.Close, nil

	default:
		ds, err := trips.LoadMonths(cfg.DataDir, cfg.DataYear, cfg.DataMonths)
		if err != nil {
			return nil, nil, nil, err
		}
		return ds, nil, func() {}, nil
	}
}
