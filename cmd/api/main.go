package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"chat-sync/internal/config"
	"chat-sync/internal/db"
	apihttp "chat-sync/internal/http"
	"chat-sync/internal/realtime"
	"chat-sync/internal/repository"
	"chat-sync/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, events stay process-local", zap.Error(err))
			redisClient = nil
		}
		cancel()
	}

	hub := realtime.NewHub(logger, redisClient, cfg.EventChannel)
	defer hub.Close()

	messageRepo := repository.NewPgMessageRepository(pool)
	conversationSvc := service.NewConversationService(messageRepo)
	sendSvc := service.NewSendService(logger, messageRepo, hub)
	messageHandler := apihttp.NewMessageHandler(logger, messageRepo, conversationSvc, sendSvc, pool)
	router := apihttp.NewRouter(logger, messageHandler, hub)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
