package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shenanigigs/datajobs/internal/cache"
	"shenanigigs/datajobs/internal/cache/redis"
	"shenanigigs/datajobs/internal/config"
	"shenanigigs/datajobs/internal/errors"
	"shenanigigs/datajobs/internal/events"
	"shenanigigs/datajobs/internal/pipeline"
	"shenanigigs/datajobs/internal/storage"
	"shenanigigs/datajobs/internal/telemetry"
)

const pingTimeout = 5 * time.Second

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.LogDevelopment {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// newCache returns nil when caching is disabled or Redis is unreachable; the
// pipeline then always cleans from scratch.
func newCache(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) cache.Cache {
	if !cfg.CacheEnabled {
		return nil
	}
	c := redis.New(cache.Options{
		DefaultTTL:    cfg.CacheTTL,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		KeyPrefix:     cache.KeyPrefix,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, running without cache",
			zap.String("addr", cfg.RedisAddr),
			zap.Error(err))
		c.Close()
		return nil
	}

	if cfg.CacheReset {
		resetCache(ctx, c, logger)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return c.Close() },
	})
	return c
}

// resetCache drops every cached run, for when cleaning rules change without
// the input changing.
func resetCache(ctx context.Context, c cache.Cache, logger *zap.Logger) {
	if err := c.Clear(ctx); err != nil {
		logger.Warn("failed to clear cache", zap.Error(err))
		return
	}
	logger.Info("cleared cached runs")
}

func newStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (pipeline.Store, error) {
	if !cfg.StoreEnabled {
		return nil, nil
	}
	db, err := storage.New(context.Background(), storage.Options{
		DSN:             cfg.ClickHouseDSN,
		MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
		MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
		Username:        cfg.ClickHouseUsername,
		Password:        cfg.ClickHousePassword,
		Database:        cfg.ClickHouseDatabase,
	}, logger)
	if err != nil {
		return nil, errors.Unavailable("connecting to clickhouse", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return db.Close() },
	})
	return storage.NewStore(db.Conn(), logger, cfg.StoreBatchSize), nil
}

func newPublisher(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (pipeline.Publisher, error) {
	if !cfg.PublishEnabled {
		return nil, nil
	}
	publisher, err := events.NewPublisher(cfg.NATSURL, cfg.NATSConnTimeout, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			publisher.Close()
			return nil
		},
	})
	return publisher, nil
}

func initTracing(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) error {
	shutdown, err := telemetry.InitTracer(context.Background(), cfg.ServiceName, cfg.OTelCollectorURL, logger)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			shutdown()
			return nil
		},
	})
	return nil
}

// runOnce starts the pipeline when the app starts and shuts the app down
// with an exit code once it finishes.
func runOnce(lc fx.Lifecycle, shutdowner fx.Shutdowner, p *pipeline.Pipeline, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := 0
				if _, err := p.Run(ctx); err != nil {
					code = exitCode(err)
				}
				if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
					logger.Error("failed to shut down", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, errors.ErrTypeInvalidInput), errors.Is(err, errors.ErrTypeNotFound):
		return 2
	case errors.Is(err, errors.ErrTypeUnavailable):
		return 3
	default:
		return 1
	}
}

func newApp() *fx.App {
	return fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newCache,
			newStore,
			newPublisher,
			pipeline.New,
		),
		fx.Invoke(
			initTracing,
			runOnce,
		),
	)
}

// run starts the app, waits for the pipeline to finish and returns the
// process exit code. Construction failures map to the same codes as
// pipeline failures.
func run() int {
	app := newApp()

	startCtx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.Printf("failed to start: %v", err)
		return exitCode(err)
	}

	signal := <-app.Wait()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		log.Printf("failed to stop: %v", err)
		if signal.ExitCode == 0 {
			return 1
		}
	}
	return signal.ExitCode
}

func main() {
	os.Exit(run())
}
