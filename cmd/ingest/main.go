package main

import (
	"context"
	"log"
	"time"

	"chat-sync/internal/config"
	"chat-sync/internal/db"
	"chat-sync/internal/payload"
	"chat-sync/internal/realtime"
	"chat-sync/internal/repository"
	"chat-sync/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Job batch: lee los payloads del webhook desde un directorio y los aplica al
// store. Es seguro relanzarlo sobre los mismos archivos.
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

	// Los eventos salen por redis hacia el hub del API; sin redis se pierden
	// (los clientes se ponen al día en el próximo fetch).
	var events realtime.Broadcaster = realtime.NopBroadcaster{Logger: logger}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, events will be dropped", zap.Error(err))
		} else {
			events = realtime.NewRedisPublisher(logger, redisClient, cfg.EventChannel)
		}
		cancel()
	}

	records, err := payload.ParseDir(logger, cfg.PayloadDir)
	if err != nil {
		logger.Fatal("reading payload dir", zap.Error(err), zap.String("dir", cfg.PayloadDir))
	}

	messageRepo := repository.NewPgMessageRepository(pool)
	ingestSvc := service.NewIngestService(logger, messageRepo, events)

	result, err := ingestSvc.Apply(ctx, records)
	if err != nil {
		logger.Fatal("ingest aborted", zap.Error(err))
	}

	logger.Info("payload processing complete",
		zap.Int("records", len(records)),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("status_updates", result.StatusUpdates),
		zap.Int("skipped", result.Skipped),
	)
}
