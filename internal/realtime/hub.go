package realtime

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub mantiene el registro de clientes conectados y reparte cada evento a
// todos ellos, sin filtrar por conversación. Con redis configurado los
// eventos viajan por pub/sub, así llegan también los que emite el proceso de
// ingesta y cualquier otra instancia del API.
type Hub struct {
	logger  *zap.Logger
	rdb     *redis.Client
	channel string

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	quit       chan struct{}
	closeOnce  sync.Once
	pubsub     *redis.PubSub
}

// NewHub crea el hub y arranca su loop. rdb puede ser nil (modo local).
func NewHub(logger *zap.Logger, rdb *redis.Client, channel string) *Hub {
	h := &Hub{
		logger:     logger,
		rdb:        rdb,
		channel:    channel,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		quit:       make(chan struct{}),
	}
	if rdb != nil {
		h.pubsub = rdb.Subscribe(context.Background(), channel)
		go h.forward()
	}
	go h.run()
	return h
}

// forward reinyecta lo que llega por redis al reparto local. Termina cuando
// Close cierra la suscripción.
func (h *Hub) forward() {
	for msg := range h.pubsub.Channel() {
		select {
		case h.broadcast <- []byte(msg.Payload):
		case <-h.quit:
			return
		}
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		case c := <-h.register:
			h.clients[c] = true
			h.logger.Info("subscriber connected", zap.Int("subscribers", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.Info("subscriber disconnected", zap.Int("subscribers", len(h.clients)))
		case payload := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Cliente lento: se descarta antes de frenar al resto.
					close(c.send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// Broadcast publica un evento. Con redis lo publica en el canal compartido y
// la suscripción lo reinyecta localmente; sin redis va directo a los clientes
// de este proceso.
func (h *Hub) Broadcast(event Event) {
	payload, err := event.Encode()
	if err != nil {
		h.logger.Warn("event encode failed", zap.Error(err), zap.String("type", event.Type))
		return
	}
	if h.rdb != nil {
		if err := h.rdb.Publish(context.Background(), h.channel, payload).Err(); err != nil {
			h.logger.Warn("event publish failed", zap.Error(err), zap.String("type", event.Type))
		}
		return
	}
	h.broadcast <- payload
}

// RegisterClient incorpora un cliente al registro.
func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

// UnregisterClient retira un cliente; su canal de envío queda cerrado.
func (h *Hub) UnregisterClient(c *Client) {
	h.unregister <- c
}

// Close termina el loop, cierra la suscripción redis y desconecta a todos
// los clientes. Es seguro llamarlo más de una vez.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		if h.pubsub != nil {
			_ = h.pubsub.Close()
		}
		close(h.quit)
	})
}
