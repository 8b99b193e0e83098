package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/transit-ticketing-service/internal/config"
	"github.com/transit-ticketing-service/internal/discount"
	"github.com/transit-ticketing-service/internal/domain/repository"
	"github.com/transit-ticketing-service/internal/engine"
	"github.com/transit-ticketing-service/internal/gate"
	"github.com/transit-ticketing-service/internal/pkg/logger"
	"github.com/transit-ticketing-service/internal/registry"
	"github.com/transit-ticketing-service/internal/repository/cache"
	"github.com/transit-ticketing-service/internal/repository/postgres"
	"github.com/transit-ticketing-service/internal/sim"
	"github.com/transit-ticketing-service/internal/terminal"
	"github.com/transit-ticketing-service/internal/worker"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Transit Ticketing Simulator")
	log.Info("Configuration loaded",
		zap.Duration("tick_interval", cfg.Simulation.TickInterval),
		zap.Bool("strict_fares", cfg.Engine.StrictFares),
		zap.Bool("quote_cache", cfg.Cache.Enabled))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSchema()
	if err := postgres.EnsureSchema(schemaCtx, db); err != nil {
		log.Fatal("Failed to prepare database schema", zap.Error(err))
	}

	// 4. Connect to Redis when the quote cache is enabled
	var quoteCache *cache.Redis
	if cfg.Cache.Enabled {
		quoteCache, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := quoteCache.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()
	}

	// 5. Initialize repositories
	snapshotRepo := postgres.NewSnapshotRepository(db)
	var fareCacheRepo repository.FareCacheRepository
	if quoteCache != nil {
		fareCacheRepo = cache.NewFareCacheRepository(quoteCache)
	}

	// 6. Build the network registry and load the stored snapshot
	reg := registry.New(snapshotRepo, fareCacheRepo, log)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelLoad()
	if err := reg.Load(loadCtx); err != nil {
		log.Fatal("Failed to load network snapshot", zap.Error(err))
	}
	if issues := reg.ValidateData(); len(issues) > 0 {
		for _, issue := range issues {
			log.Warn("Network integrity issue", zap.String("issue", issue))
		}
	}

	// 7. Build the fare services
	routeEngine := engine.New(reg, cfg.Engine.StrictFares, log)
	discounts := discount.New(log)

	terminalOpts := []terminal.Option{}
	if quoteCache != nil {
		terminalOpts = append(terminalOpts,
			terminal.WithQuoteCache(cache.NewFareCacheRepository(quoteCache), cfg.Cache.QuoteTTL))
	}
	if cfg.Terminal.DistanceFallback {
		terminalOpts = append(terminalOpts, terminal.WithDistanceFallback())
	}
	fareTerminal := terminal.New(reg, routeEngine, discounts, log, terminalOpts...)

	// 8. Build the gate simulation and its scheduler
	world := sim.NewWorld()
	gates := gate.NewManager(log)
	scheduler := worker.NewScheduler(gates, cfg.Simulation.TickInterval, log)

	workerManager := worker.NewManager(log)
	workerManager.Register(scheduler)

	// 9. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// 10. Optional scripted journey to exercise the full stack
	if cfg.Simulation.Demo {
		demo := sim.NewDemo(reg, fareTerminal, gates, scheduler, world, gate.Settings{
			PendingTimeoutTicks:      cfg.Gate.PendingTimeoutTicks,
			CloseDelayTicks:          cfg.Gate.CloseDelayTicks,
			FallbackMaxTravelMinutes: cfg.Gate.MaxTravelMinutes,
		}, cfg.Simulation.TickInterval, log)
		go func() {
			if err := demo.Run(ctx); err != nil {
				log.Error("Demo journey failed", zap.Error(err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Simulator stopped")
}
