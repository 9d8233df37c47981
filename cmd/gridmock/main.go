package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/gridmock/internal/application/catalog"
	"github.com/aescanero/gridmock/internal/config"
	eventsmemory "github.com/aescanero/gridmock/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/gridmock/pkg/adapters/events/redis"
	"github.com/aescanero/gridmock/pkg/adapters/metrics/prometheus"
	storagememory "github.com/aescanero/gridmock/pkg/adapters/storage/memory"
	storageredis "github.com/aescanero/gridmock/pkg/adapters/storage/redis"
	"github.com/aescanero/gridmock/pkg/api/grpc"
	"github.com/aescanero/gridmock/pkg/api/http"
	"github.com/aescanero/gridmock/pkg/api/websocket"
	"github.com/aescanero/gridmock/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting gridmock",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("storage_backend", cfg.StorageBackend))

	if err := run(cfg, logger); err != nil {
		logger.Error("gridmock stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	logger.Info("gridmock shut down complete")
}

// backend bundles the storage and event adapters selected by configuration
type backend struct {
	store    ports.ComponentStore
	eventBus ports.EventBus
	close    func() error
}

// newBackend connects the configured storage backend
func newBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	if cfg.StorageBackend == config.BackendMemory {
		bus := eventsmemory.NewInMemoryEventBus(logger)
		return &backend{
			store:    storagememory.NewComponentStorage(),
			eventBus: bus,
			close:    bus.Close,
		}, nil
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	bus := eventsredis.NewStreamsEventBus(redisClient, cfg.Redis.KeyPrefix, cfg.Redis.EventStreamMaxLen, logger)

	return &backend{
		store:    storageredis.NewComponentStorage(redisClient, cfg.Redis.KeyPrefix, logger),
		eventBus: bus,
		close: func() error {
			return errors.Join(bus.Close(), redisClient.Close())
		},
	}, nil
}

// loadSeed returns the seed file contents, or the built-in dataset
func loadSeed(cfg *config.Config) ([]catalog.SeedComponent, error) {
	if cfg.Seed.File == "" {
		return catalog.DefaultSeed(), nil
	}
	return catalog.LoadSeedFile(cfg.Seed.File)
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	be, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			logger.Error("backend close error", zap.Error(err))
		}
	}()

	metricsCollector := prometheus.NewCollector()

	catalogMgr := catalog.NewManager(
		be.store,
		be.eventBus,
		metricsCollector,
		catalog.NewValidator(),
		logger,
	)

	// Seed the catalog
	seeds, err := loadSeed(cfg)
	if err != nil {
		return err
	}

	generator := catalog.NewHistoryGenerator(
		cfg.Seed.HistoryPoints,
		cfg.Seed.HistoryStart,
		cfg.Seed.HistoryEnd,
		rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	)
	if err := catalogMgr.Seed(ctx, seeds, generator); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:              cfg.HTTPPort,
		Catalog:           catalogMgr,
		Metrics:           metricsCollector,
		MetricsHandler:    metricsCollector.Handler(),
		Logger:            logger,
		DefaultPageLimit:  cfg.DefaultPageLimit,
		ReadHeaderTimeout: cfg.Timeouts.ReadHeaderTimeout,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(be.eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	var grpcServer *grpc.Server
	if cfg.GRPCEnabled {
		grpcServer, err = grpc.NewServer(&grpc.Config{
			Port:           cfg.GRPCPort,
			Catalog:        catalogMgr,
			HealthInterval: cfg.Timeouts.HealthInterval,
			Logger:         logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create gRPC server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(httpServer.Start)

	if grpcServer != nil {
		g.Go(grpcServer.Start)
		g.Go(func() error {
			grpcServer.MonitorHealth(gctx)
			return nil
		})
	}

	// Shut everything down once a signal arrives or a server fails
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if grpcServer != nil {
			if err := grpcServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	logger.Info("gridmock started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Bool("grpc_enabled", cfg.GRPCEnabled))

	return g.Wait()
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
