// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitness-coach/config"
	"fitness-coach/internal/bot"
	"fitness-coach/internal/coach"
	"fitness-coach/internal/db"
	"fitness-coach/internal/gpt"
	"fitness-coach/internal/kv"
	"fitness-coach/internal/plan"
	"fitness-coach/internal/server"
	"fitness-coach/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatalw("Failed to load config", "error", err)
	}

	l := logger.NewWithOptions(logger.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	defer func() { _ = l.Sync() }()
	l.Info("Starting Fitness Coach Bot...")

	if err := cfg.Validate(); err != nil {
		l.Fatalw("Invalid configuration", "error", err)
	}

	// Initialize database connection with retry
	var database *db.PostgresDB
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		database, err = db.NewPostgresDB(db.Config(cfg.DB))
		if err == nil {
			break
		}
		l.Errorw("Failed to connect to database, retrying...", "attempt", i+1, "error", err)
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	if database == nil {
		l.Fatalw("Failed to connect to database after multiple attempts", "error", err)
	}
	defer database.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(schemaCtx); err != nil {
		cancelSchema()
		l.Fatalw("Failed to prepare database schema", "error", err)
	}
	cancelSchema()

	// Local conversation storage
	var store kv.Store
	switch cfg.Storage.Driver {
	case "memory":
		l.Warn("Using in-memory conversation storage, chat history will not survive restarts")
		store = kv.NewMemoryStore()
	default:
		sqliteStore := kv.NewSQLiteStore(cfg.Storage.Path)
		if err := sqliteStore.Init(); err != nil {
			l.Fatalw("Failed to open conversation storage", "path", cfg.Storage.Path, "error", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
	}

	instructions, err := coach.LoadInstructions(cfg.Coach.InstructionsPath)
	if err != nil {
		l.Warnw("Using fallback coach instructions", "error", err)
	}

	gptClient := gpt.NewClientWithConfig(gpt.Config{
		APIKey:  cfg.GPT.APIKey,
		Model:   cfg.GPT.Model,
		BaseURL: cfg.GPT.BaseURL,
		Timeout: cfg.GPT.Timeout,
		Chat: gpt.Params{
			Temperature: float32(cfg.GPT.Temperature),
			TopP:        float32(cfg.GPT.TopP),
			MaxTokens:   cfg.GPT.ChatMaxTokens,
		},
		Plan: gpt.Params{
			Temperature: float32(cfg.GPT.Temperature),
			TopP:        float32(cfg.GPT.TopP),
			MaxTokens:   cfg.GPT.PlanMaxTokens,
		},
	})

	plans := plan.NewService(database, gptClient, l)

	telegramBot, err := bot.NewTelegramBot(bot.Options{
		Token:         cfg.Telegram.Token,
		Debug:         cfg.Telegram.Debug,
		Namespace:     cfg.Coach.Namespace,
		HistoryWindow: cfg.Coach.HistoryWindow,
		Instructions:  instructions,
		Timeout:       cfg.GPT.Timeout,
	}, database, plans, gptClient, store, l)
	if err != nil {
		l.Fatalw("Failed to create Telegram bot", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l.Info("Starting Telegram bot...")
	if err := telegramBot.Start(ctx); err != nil {
		l.Fatalw("Failed to start Telegram bot", "error", err)
	}
	l.Info("Telegram bot started successfully")

	httpServer := server.NewServer(cfg.Server.Port, database, l)
	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatalw("Failed to start HTTP server", "error", err)
		}
	}()

	// Wait for termination signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down bot...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		l.Errorw("Error during HTTP server shutdown", "error", err)
	}

	if err := telegramBot.Stop(shutdownCtx); err != nil {
		l.Errorw("Error during bot shutdown", "error", err)
	}
	cancel()

	l.Info("Bot stopped successfully")
}
