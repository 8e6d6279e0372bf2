package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dmelnik/chatkeeper/internal/chatstore"
	"github.com/dmelnik/chatkeeper/internal/generator"
	"github.com/dmelnik/chatkeeper/internal/httpapi"
	"github.com/dmelnik/chatkeeper/internal/readcache"
	"github.com/dmelnik/chatkeeper/internal/reply"
	"github.com/dmelnik/chatkeeper/internal/storage"
	"github.com/dmelnik/chatkeeper/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize storage backend
	var backend storage.Store
	switch cfg.Storage.Backend {
	case "memory":
		logger.Info("Using in-memory storage")
		backend = storage.NewMemoryStore()
	case "file":
		logger.Info("Using file storage", zap.String("dir", cfg.Storage.DataDir))
		backend, err = storage.NewFileStore(cfg.Storage.DataDir, logger)
	case "sqlite":
		logger.Info("Using SQLite storage", zap.String("path", cfg.Storage.SQLitePath))
		backend, err = storage.NewSQLiteStore(cfg.Storage.SQLitePath, logger)
	case "postgres":
		logger.Info("Using PostgreSQL storage")
		backend, err = storage.NewPostgresStore(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
	default:
		logger.Fatal("Unknown storage backend", zap.String("backend", cfg.Storage.Backend))
	}
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer backend.Close()

	// Initialize chat store
	store := chatstore.New(backend, logger)
	if err := store.Initialize(context.Background()); err != nil {
		logger.Fatal("Failed to initialize chat store", zap.Error(err))
	}

	// Initialize generation capability
	gen := generator.NewOpenAIGenerator(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		logger,
	)

	// Wire read cache and reply orchestration
	cache := readcache.New(store)
	orch := reply.New(store, gen, cache, logger)

	handler := httpapi.NewServer(store, cache, orch, logger)
	logger.Info("Listening", zap.String("address", cfg.Server.Address))
	if err := http.ListenAndServe(cfg.Server.Address, handler); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
