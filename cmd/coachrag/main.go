package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"coachrag/internal/app"
	"coachrag/internal/config"
	"coachrag/internal/rag"
	"coachrag/internal/server"
	"coachrag/internal/util"
	"coachrag/pkg/ai"
	"coachrag/pkg/store"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.InitLogger(cfg.LogLevel)

	gormStore, err := store.NewGormStore(cfg.DatabaseURL, store.WithEmbeddingDim(cfg.EmbeddingDim))
	if err != nil {
		fatal("failed to init store", err)
	}

	sessions, err := store.NewJWTSessionStore(cfg.JWTSecret, time.Duration(cfg.SessionTTLMinutes)*time.Minute, store.JWTOptions{})
	if err != nil {
		fatal("failed to init session store", err)
	}

	embedder, generator, err := buildProvider(cfg)
	if err != nil {
		fatal("failed to init ai provider", err)
	}

	splitter, err := rag.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		fatal("failed to init splitter", err)
	}
	index := rag.NewIndex(gormStore, embedder, cfg.EmbeddingBatchSize, cfg.EmbeddingConcurrency)
	retriever := rag.NewRetriever(index, cfg.TopK)

	if err := os.MkdirAll(cfg.DocsDir, 0o755); err != nil {
		fatal("failed to create documents dir", err)
	}
	sources := []rag.DocumentSource{rag.NewDirectoryLoader(cfg.DocsDir, logger)}
	if len(cfg.WikipediaPages) > 0 {
		wiki := rag.NewWikipediaClient(cfg.WikipediaURL)
		sources = append(sources, rag.NewWikipediaSource(wiki, cfg.WikipediaPages, logger))
	}
	refresher := rag.NewRefreshController(sources, splitter, index, retriever, logger)

	appCore := app.New(app.Config{
		Store:           gormStore,
		Sessions:        sessions,
		Retriever:       retriever,
		Refresher:       refresher,
		Generator:       generator,
		Logger:          logger,
		DocsDir:         cfg.DocsDir,
		GenerationModel: cfg.GenerationModel,
	})

	httpServer, err := server.New(server.Config{
		App:                        appCore,
		RedisAddr:                  cfg.RedisAddr,
		RedisPassword:              cfg.RedisPassword,
		RegisterRateLimitPerMinute: cfg.RegisterRateLimitPerMinute,
		LoginRateLimitPerMinute:    cfg.LoginRateLimitPerMinute,
	})
	if err != nil {
		fatal("failed to init server", err)
	}

	// Build the first index in the background so startup is not blocked
	// by embedding every document.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := refresher.Refresh(ctx); err != nil {
			logger.Error("initial index build failed", "error", err)
			return
		}
		logger.Info("initial index ready")
	}()

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("coachrag server listening", "addr", addr, "provider", cfg.Provider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func buildProvider(cfg config.FileConfig) (ai.Embedder, ai.TextGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gemini":
		client, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
		if err != nil {
			return nil, nil, err
		}
		return ai.NewGeminiEmbedder(client, cfg.EmbeddingModel), ai.NewGeminiGenerator(client, cfg.GenerationModel), nil
	case "ollama":
		client := ai.NewOllamaClient(cfg.OllamaBaseURL)
		return ai.NewOllamaEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDim), ai.NewOllamaGenerator(client, cfg.GenerationModel), nil
	case "openai":
		embedder := ai.NewOpenAICompatEmbedder(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		generator := ai.NewOpenAICompatGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.GenerationModel)
		return embedder, generator, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
