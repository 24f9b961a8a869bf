package main

import (
	"context"
	"log"
	"os"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seeds the Postgres store with the initial flight dataset. Idempotent:
// does nothing when flights already exist.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	n, err := repository.Seed(ctx, repository.NewPGStore(pool))
	if err != nil {
		log.Fatalf("seed flights: %v", err)
	}
	if n == 0 {
		log.Println("flights already present, nothing to do")
		return
	}
	log.Printf("seeded %d flights", n)
}
