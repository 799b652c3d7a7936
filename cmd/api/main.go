package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fazecat/demandpulse/Internal/database"
	"github.com/fazecat/demandpulse/Internal/handlers"
	settingshandler "github.com/fazecat/demandpulse/Internal/handlers/settings"
	newsscraping "github.com/fazecat/demandpulse/Internal/news_scraping"
	"github.com/fazecat/demandpulse/Internal/publish"
	"github.com/fazecat/demandpulse/Internal/utils/config"
	"github.com/fazecat/demandpulse/Internal/utils/scanner"
	"github.com/fazecat/demandpulse/cmd/api/internal"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../../.env")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var store *database.Store
	var settingsHandler *settingshandler.Handler
	if database.ConfigFromEnv().Enabled() {
		if err := database.InitDatabase(); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDatabase()

		store = database.NewStore(database.DB)
		settingsStore := settingshandler.SQLStore{DB: database.DB}

		// Load settings from database
		settingshandler.LoadSettingsFromDatabase(context.Background(), settingsStore)
		settingsHandler = settingshandler.NewHandler(settingsStore, cfg)
	} else {
		log.Println("Warning: database not configured, serving from the local backup file only")
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	apiServer := &internal.API{
		Config:     cfg,
		Store:      store,
		Backup:     publish.NewBackupWriter(cfg.Output.BackupPath),
		Settings:   settingsHandler,
		JWTManager: internal.NewJWTManager(),
		News:       newsscraping.NewNewsClient(cfg.News.FeedURL),
		Analyzer:   newsscraping.NewSentimentAnalyzer(),
		Collect: func(ctx context.Context) (*scanner.Result, error) {
			runCfg := *cfg
			if settingsHandler != nil {
				settingshandler.ApplyCollectionOverrides(ctx, settingsHandler.Store, &runCfg)
			}
			return handlers.HandleCollect(ctx, &runCfg, handlers.CollectOptions{Store: store})
		},
		BaseContext: runCtx,
	}

	addr := ":" + getEnvOrDefault("PORT", "8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-runCtx.Done()

	log.Println("Shutting down API server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Warning: shutdown: %v", err)
	}
	apiServer.Wait()
	log.Println("API server stopped")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
