package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/bootstrap"
	"github.com/Domenick1991/flightbooking/internal/cache"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/simulator"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := newStore(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("init store", zap.Error(err))
	}
	defer cleanup()

	searchCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Search.CacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	pricer := pricing.NewEngine()
	flightService := flights.NewFlightService(store, pricer, searchCache, zlog)
	bookingService := booking.NewBookingService(store, pricer, zlog,
		booking.WithProducer(producer, cfg.Kafka.BookingEventsTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	if cfg.Simulator.Enabled {
		sim := simulator.New(store, zlog,
			time.Duration(cfg.Simulator.WarmupSeconds)*time.Second,
			time.Duration(cfg.Simulator.MinIntervalSeconds)*time.Second,
			time.Duration(cfg.Simulator.MaxIntervalSeconds)*time.Second,
		)
		go sim.Run(ctx)
	}

	if err := bootstrap.Run(ctx, cfg, flightService, bookingService, zlog); err != nil {
		zlog.Fatal("server error", zap.Error(err))
	}
}

func newStore(ctx context.Context, cfg *config.Config, zlog *zap.Logger) (repository.Store, func(), error) {
	if cfg.Database.Driver == "memory" {
		store := repository.NewMemoryStore()
		n, err := repository.Seed(ctx, store)
		if err != nil {
			return nil, nil, err
		}
		zlog.Info("using in-memory store", zap.Int("seeded_flights", n))
		return store, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	return repository.NewPGStore(pool), pool.Close, nil
}
