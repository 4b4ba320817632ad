package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/srochno/order-exchange/internal/api"
	"github.com/srochno/order-exchange/internal/core/service"
	"github.com/srochno/order-exchange/internal/infrastructure/config"
	mongodb "github.com/srochno/order-exchange/internal/infrastructure/db/mongo"
	redisdb "github.com/srochno/order-exchange/internal/infrastructure/db/redis"
	"github.com/srochno/order-exchange/internal/pkg/clock"
	"github.com/srochno/order-exchange/internal/pkg/keylock"
	"github.com/srochno/order-exchange/internal/worker"
	"github.com/srochno/order-exchange/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutCancel()
		_ = mongoClient.Disconnect(shutCtx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	// --- Repositories ---
	orderRepo := mongodb.NewOrderRepository(db)
	holderRepo := mongodb.NewHolderRepository(db)
	actorRepo := mongodb.NewActorRepository(db)
	ledgerRepo := mongodb.NewLedgerRepository(db)

	for _, ensure := range []func(context.Context) error{
		orderRepo.EnsureIndexes,
		holderRepo.EnsureIndexes,
		actorRepo.EnsureIndexes,
		ledgerRepo.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure indexes")
		}
	}

	// --- Services ---
	clk := clock.NewSystem()
	locks := keylock.New()
	svcCfg := service.Config{
		OrderLifetimeMinutes: cfg.Business.OrderLifetimeMinutes,
		NoResponseWindow:     cfg.Business.NoResponseWindow,
		TakeFee:              cfg.Business.TakeFee,
		MaxHolders:           cfg.Business.MaxHolders,
		LockWait:             cfg.Business.LockWait,
	}

	dedup := redisdb.NewRechargeDeduper(rdb)
	ledgerSvc := service.NewLedgerService(actorRepo, ledgerRepo, dedup, locks, clk, svcCfg, log)
	orderSvc := service.NewOrderService(orderRepo, holderRepo, actorRepo, locks, clk, svcCfg, log)
	takeSvc := service.NewTakeService(orderRepo, holderRepo, ledgerSvc, locks, clk, svcCfg, log)
	authSvc := service.NewAuthService(actorRepo, cfg.JWTSecret, 24*time.Hour, clk)
	lifecycleSvc := service.NewLifecycleService(orderRepo, locks, svcCfg, cfg.Business.SweepBatchSize, log)

	// --- Lifecycle worker ---
	sweeper := worker.NewLifecycleWorker(lifecycleSvc, clk, cfg.Business.SweepInterval, log)
	go sweeper.Start(ctx)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Auth:      authSvc,
		Orders:    orderSvc,
		Takes:     takeSvc,
		Ledger:    ledgerSvc,
		Mongo:     db,
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil {
			log.Info().Err(err).Msg("http server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	cancel() // stop worker

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := e.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}
