// Command migrate applies or rolls back the embedded schema migrations.
//
//	migrate up      apply all pending migrations
//	migrate down    roll back the most recent migration
//	migrate status  list migrations and whether they are applied
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/service-marketplace/internal/config"
	"github.com/iliyamo/service-marketplace/internal/database"
	"github.com/iliyamo/service-marketplace/internal/logger"
)

func main() {
	log := logger.New(logger.Config{Environment: os.Getenv("APP_ENV"), Level: os.Getenv("LOG_LEVEL"), Service: "migrate"})
	defer func() { _ = log.Sync() }()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatal("load .env", zap.Error(err))
	}
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch cmd {
	case "up":
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			log.Fatal("migrate up", zap.Error(err))
		}
		log.Info("migrations applied", zap.Int64s("versions", applied))
	case "down":
		v, err := database.Rollback(ctx, db)
		if err != nil {
			log.Fatal("migrate down", zap.Error(err))
		}
		log.Info("migration rolled back", zap.Int64("version", v))
	case "status":
		st, err := database.Status(ctx, db)
		if err != nil {
			log.Fatal("migrate status", zap.Error(err))
		}
		versions := make([]int64, 0, len(st))
		for v := range st {
			versions = append(versions, v)
		}
		sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
		for _, v := range versions {
			state := "pending"
			if st[v] {
				state = "applied"
			}
			fmt.Printf("%05d  %s\n", v, state)
		}
	default:
		fmt.Fprintf(os.Stderr, "usage: migrate [up|down|status]\n")
		os.Exit(2)
	}
}
