package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jjikmuck/jjikmuck/backend/config"
	"github.com/jjikmuck/jjikmuck/backend/internal/database"
	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
)

func main() {
	file := flag.String("file", "", "YAML seed file (defaults to the built-in data)")
	reset := flag.Bool("reset", false, "Delete existing rules and knowledge before seeding")
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

	seed, err := LoadSeedFile(*file)
	if err != nil {
		logr.Fatal("failed to load seed data", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.NewGormDB(cfg, logr)
	if err != nil {
		logr.Fatal("failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(ctx, db, logr); err != nil {
		logr.Fatal("failed to run migrations", "error", err)
	}

	if *reset {
		if err := ResetTables(ctx, db); err != nil {
			logr.Fatal("failed to reset tables", "error", err)
		}
		logr.Info("cleared existing rules and knowledge")
	}

	var embedder service.Embedder = service.NewHashEmbedder(cfg.EmbeddingDimension)
	if cfg.OpenAIAPIKey != "" {
		openai, err := service.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDimension)
		if err != nil {
			logr.Fatal("failed to create embedder", "error", err)
		}
		embedder = openai
	}

	res := Apply(ctx, seed, service.NewRuleRepository(db), service.NewKnowledgeStore(db, embedder), logr)
	tables, err := config.DefaultTables()
	if cfg.TablesPath != "" {
		tables, err = config.LoadTables(cfg.TablesPath)
	}
	if err != nil {
		logr.Fatal("failed to load personalization tables", "error", err)
	}
	allergies, err := service.NewAllergyCatalog(db).Seed(ctx, tables)
	if err != nil {
		logr.Error("failed to seed allergy catalog", "error", err)
	}
	logr.Info("seeding finished", "rules", res.Rules, "knowledge", res.Knowledge, "allergies", allergies, "failed", res.Failed)
}
