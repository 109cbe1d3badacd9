package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jjikmuck/jjikmuck/backend/config"
	"github.com/jjikmuck/jjikmuck/backend/internal/database"
	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
)

func main() {
	// Parse command line flags
	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logr, err := logger.New(string(cfg.Environment))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	if *rollback {
		name, err := database.Rollback(ctx, db.DB, logr)
		if err != nil {
			logr.Fatal("rollback failed", "error", err)
		}
		if name == "" {
			logr.Info("no migrations to rollback")
			return
		}
		logr.Info("rolled back migration", "migration", name)
		return
	}

	if err := database.Migrate(ctx, db.DB, logr); err != nil {
		logr.Fatal("migration failed", "error", err)
	}
	logr.Info("migrations applied")
}
