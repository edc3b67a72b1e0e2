package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"repairdesk/backend/internal/api/handler"
	"repairdesk/backend/internal/auth"
	"repairdesk/backend/internal/chathub"
	"repairdesk/backend/internal/config"
	"repairdesk/backend/internal/limiter"
	"repairdesk/backend/internal/localization"
	"repairdesk/backend/internal/storage"
	"repairdesk/backend/internal/telegram"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := storage.Open(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("%v", err)
	}

	// 2. Redis (optional)
	rdb, err := storage.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}
	if rdb == nil {
		log.Println("WARNING: REDIS_ADDR not set, presence mirror and rate limiting disabled")
	}

	log.Println("Database connection established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting RepairDesk chat backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Dependencies
	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)
	if err := s.ResetOnline(ctx); err != nil {
		log.Printf("WARNING: Failed to reset presence mirror: %v", err)
	}

	// 2. Chat hub
	hub := chathub.NewManagerService(s)
	hub.Mirror = s
	if lim := limiter.NewFixedWindow(rdb, "ratelimit:chat:send", cfg.Chat.RateLimit, cfg.Chat.RateWindow); lim != nil {
		hub.Limiter = lim
	}

	if cfg.TelegramBotToken != "" {
		localizer, err := localization.NewDefaultLocalizer()
		if err != nil {
			log.Fatalf("Failed to load translations: %v", err)
		}
		notifier, err := telegram.NewNotifier(cfg.TelegramBotToken, localizer)
		if err != nil {
			log.Printf("WARNING: Offline notifications disabled: %v", err)
		} else {
			hub.Notifier = notifier
		}
	}

	go hub.Run(ctx)

	// 3. HTTP
	h := handler.NewHandler(hub, s, auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer))
	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        handler.NewRouter(h),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("WARNING: HTTP shutdown: %v", err)
		}
	}()

	log.Printf("Listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped.")
}
