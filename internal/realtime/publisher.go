package realtime

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher es el Broadcaster del proceso de ingesta: publica en el
// canal compartido para que el hub del API reparta a los sockets.
type RedisPublisher struct {
	logger  *zap.Logger
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(logger *zap.Logger, rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{logger: logger, rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Broadcast(event Event) {
	payload, err := event.Encode()
	if err != nil {
		p.logger.Warn("event encode failed", zap.Error(err), zap.String("type", event.Type))
		return
	}
	if err := p.rdb.Publish(context.Background(), p.channel, payload).Err(); err != nil {
		p.logger.Warn("event publish failed", zap.Error(err), zap.String("type", event.Type))
	}
}

// NopBroadcaster descarta eventos. Lo usa la ingesta cuando no hay redis
// configurado: sin bus no hay forma de alcanzar los sockets del API.
type NopBroadcaster struct {
	Logger *zap.Logger
}

func (n NopBroadcaster) Broadcast(event Event) {
	if n.Logger != nil {
		n.Logger.Debug("event dropped, no broadcaster configured", zap.String("type", event.Type))
	}
}
