package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"auctionhouse/internal/bidcache"
	"auctionhouse/internal/config"
	"auctionhouse/internal/database/db_client"
	"auctionhouse/internal/events"
	"auctionhouse/internal/fulfillment"
	"auctionhouse/internal/http/auctionhandler"
	"auctionhouse/internal/http/http_server"
	"auctionhouse/internal/identity"
	"auctionhouse/internal/redis/redis_client"
	"auctionhouse/internal/services/auction"
	"auctionhouse/internal/store"
	"auctionhouse/internal/sweeper"
	"auctionhouse/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	var err error
	var cfg *config.Config
	var redisClient *redis.Client

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (highest-bid cache + event fan-out)
	redisClient, err = redis_client.NewRedisClient(cfg.RedisHost, int(cfg.RedisPort))
	if err != nil {
		Log.Fatal("Failed to create Redis client", zap.Error(err))
	}
	defer redisClient.Close()

	// 4. Postgres, the durable source of truth
	pgDb, err := db_client.Open(cfg.PostgresHost, cfg.PostgresPort,
		cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
	if err != nil {
		Log.Fatal("pg-open", zap.Error(err))
	}
	defer pgDb.Close()

	if err := store.EnsureSchema(ctx, pgDb); err != nil {
		Log.Fatal("pg-schema", zap.Error(err))
	}

	// 5. Engine wiring: store, cache, publisher, fulfillment, service
	pgStore := store.NewPostgresStore(pgDb)
	cache := bidcache.New(redisClient, time.Duration(cfg.CacheTimeoutMillis)*time.Millisecond)
	publisher := events.NewRedisPublisher(redisClient)
	idp := identity.NewPostgresProvider(pgDb)
	auctionService := auction.NewAuctionService(pgStore, cache, publisher, fulfillment.LogConfirmer{})

	// 6. Background sweep so time-based transitions fire between requests
	sweeper.Run(ctx, time.Duration(cfg.SweepIntervalSeconds)*time.Second, auctionService)

	// 7. WebSocket hub + group subscriptions
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, redisClient, auctionService, idp)

	// 8. HTTP + WS server
	handler := auctionhandler.New(auctionService, idp, publisher)
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, handler)
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}
}
