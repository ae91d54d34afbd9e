// Package main runs the kundali HTTP service together with its background
// workers:
// - HTTP API: chart generation, stored charts, transits, /metrics
// - Transit stream: periodic snapshots pushed to websocket clients
// - Transit recorder: periodic snapshots written to the transit store
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kundali-lab/internal/ayanamsa"
	s3blob "kundali-lab/internal/blob/s3"
	rediscache "kundali-lab/internal/cache/redis"
	"kundali-lab/internal/config"
	"kundali-lab/internal/dasha"
	"kundali-lab/internal/ephemeris"
	"kundali-lab/internal/geo"
	"kundali-lab/internal/kundali"
	"kundali-lab/internal/logging"
	"kundali-lab/internal/observability"
	"kundali-lab/internal/server"
	"kundali-lab/internal/storage"
	chstore "kundali-lab/internal/storage/clickhouse"
	"kundali-lab/internal/storage/memory"
	"kundali-lab/internal/storage/migrations"
	pgstore "kundali-lab/internal/storage/postgres"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("KUNDALI_CONFIG"), "Path to TOML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory stores instead of PostgreSQL/ClickHouse")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, cleanup, err := createDeps(ctx, cfg, *useMemory, logger)
	if err != nil {
		logger.Fatal("create dependencies", zap.Error(err))
	}
	defer cleanup()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc, err := newService(cfg, deps, logger, observability.NewMetrics("kundali", registry))
	if err != nil {
		logger.Fatal("create service", zap.Error(err))
	}

	stream := server.NewTransitStream(svc, cfg.Server.StreamInterval(), logger.Named("stream"))
	var recorder *server.TransitRecorder
	if deps.transitStore != nil && cfg.Server.RecordInterval() > 0 {
		recorder = server.NewTransitRecorder(svc, cfg.Server.RecordInterval(), logger.Named("recorder"))
	}

	srv := server.New(server.Config{
		CORSOrigins:    cfg.Server.CORSOrigins,
		StreamInterval: cfg.Server.StreamInterval(),
		Gatherer:       registry,
	}, svc, stream, recorder, logger.Named("http"))

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		// A second signal or a stuck shutdown forces exit.
		select {
		case sig := <-sigCh:
			logger.Warn("received second signal, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		case <-time.After(shutdownTimeout):
			logger.Warn("graceful shutdown timed out, forcing exit", zap.Duration("timeout", shutdownTimeout))
			os.Exit(1)
		case <-done:
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return ignoreCanceled(stream.Run(gctx))
	})

	if recorder != nil {
		g.Go(func() error {
			return ignoreCanceled(recorder.Run(gctx))
		})
	}

	err = g.Wait()
	close(done)
	if err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// deps holds the optional side stores. Nil fields are disabled.
type deps struct {
	chartStore   storage.ChartStore
	transitStore storage.TransitStore
	cache        *rediscache.ChartCache
	geoCache     *rediscache.GeoCache
	archiver     *s3blob.Archiver
}

// createDeps connects the configured stores. useMemory replaces PostgreSQL
// and ClickHouse with in-memory stores; Redis and S3 stay optional either way.
func createDeps(ctx context.Context, cfg *config.Config, useMemory bool, logger *zap.Logger) (*deps, func(), error) {
	d := &deps{}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	switch {
	case useMemory:
		d.chartStore = memory.NewChartStore()
		d.transitStore = memory.NewTransitStore()
		logger.Info("using in-memory stores")
	default:
		if cfg.Postgres.DSN != "" {
			pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
			if err != nil {
				return nil, nil, fmt.Errorf("connect to postgres: %w", err)
			}
			closers = append(closers, pool.Close)
			if cfg.Postgres.RunMigrations {
				applied, err := migrations.RunPostgresMigrations(ctx, pool)
				if err != nil {
					cleanup()
					return nil, nil, fmt.Errorf("postgres migrations: %w", err)
				}
				logger.Info("postgres migrations applied", zap.Strings("files", applied))
			}
			d.chartStore = pgstore.NewChartStore(pool)
		}
		if cfg.Clickhouse.DSN != "" {
			var (
				conn *chstore.Conn
				err  error
			)
			if cfg.Postgres.RunMigrations {
				conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
			} else {
				conn, err = chstore.NewConn(ctx, cfg.Clickhouse.DSN)
			}
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
			}
			closers = append(closers, func() { _ = conn.Close() })
			d.transitStore = chstore.NewTransitStore(conn)
		}
	}

	if cfg.Redis.Addr != "" {
		client, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			TTL:        cfg.Redis.TTLDuration(),
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		d.cache = rediscache.NewChartCache(client)
		d.geoCache = rediscache.NewGeoCache(client)
	}

	if cfg.S3.Bucket != "" {
		client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create s3 client: %w", err)
		}
		d.archiver = s3blob.NewArchiver(client)
	}

	return d, cleanup, nil
}

// newService assembles the engine and hands it the side stores. Interface
// fields are only set for configured stores so nil pointers never reach the
// service as non-nil interfaces.
func newService(cfg *config.Config, d *deps, logger *zap.Logger, metrics *observability.Metrics) (*kundali.Service, error) {
	corrector, err := ayanamsa.NewLahiri(cfg.Engine.AyanamsaCorrection)
	if err != nil {
		return nil, err
	}
	calc, err := dasha.NewCalculator(cfg.Engine.DashaDepth)
	if err != nil {
		return nil, err
	}

	opts := kundali.Options{
		Provider:               ephemeris.NewAnalytic(),
		Corrector:              corrector,
		Calculator:             calc,
		TZResolver:             geo.NewCountryResolver(cfg.Engine.DefaultTimezoneOffset),
		ChartStore:             d.chartStore,
		TransitStore:           d.transitStore,
		DefaultTransitTimezone: cfg.Engine.DefaultTransitTimezone,
		Logger:                 logger.Named("kundali"),
		Metrics:                metrics,
	}

	if cfg.Geocoder.Enabled {
		var geocoder geo.Geocoder = geo.NewNominatim(geo.NominatimOptions{
			BaseURL:     cfg.Geocoder.BaseURL,
			UserAgent:   cfg.Geocoder.UserAgent,
			Timeout:     cfg.Geocoder.TimeoutDuration(),
			MinInterval: cfg.Geocoder.MinIntervalDuration(),
		})
		if d.geoCache != nil {
			geocoder = geo.NewCached(geocoder, d.geoCache, func(err error) {
				logger.Warn("geocode cache", zap.Error(err))
			})
		}
		opts.Geocoder = geocoder
	}
	if d.cache != nil {
		opts.Cache = d.cache
	}
	if d.archiver != nil {
		opts.Archiver = d.archiver
	}

	return kundali.NewService(opts)
}
