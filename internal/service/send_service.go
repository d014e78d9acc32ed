package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chat-sync/internal/domain"
	"chat-sync/internal/realtime"
	"chat-sync/internal/repository"
)

var ErrSendInvalidInput = errors.New("send invalid input")

// localIDPrefix separa los ids sintetizados acá de los que asigna el origen
// (wamid.…), así nunca pueden colisionar.
const localIDPrefix = "local_"

// SendService persiste mensajes salientes originados en la UI y emite los dos
// eventos realtime en el mismo request.
type SendService struct {
	logger *zap.Logger
	repo   repository.MessageRepository
	events realtime.Broadcaster
}

func NewSendService(logger *zap.Logger, repo repository.MessageRepository, events realtime.Broadcaster) *SendService {
	return &SendService{logger: logger, repo: repo, events: events}
}

func (s *SendService) Send(ctx context.Context, waID, name, body string) (domain.Message, error) {
	waID = strings.TrimSpace(waID)
	name = strings.TrimSpace(name)
	body = strings.TrimSpace(body)
	if waID == "" || name == "" || body == "" {
		return domain.Message{}, ErrSendInvalidInput
	}

	stored, err := s.repo.Insert(ctx, domain.Message{
		WaID:      waID,
		Name:      name,
		MessageID: localIDPrefix + uuid.NewString(),
		Body:      body,
		FromMe:    true,
		Timestamp: time.Now().UTC(),
		Status:    domain.StatusSent,
	})
	if err != nil {
		return domain.Message{}, err
	}

	s.logger.Info("message sent",
		zap.String("message_id", stored.MessageID),
		zap.String("wa_id", stored.WaID),
	)
	// Si el insert falló no se emite nada; acá ya está persistido.
	s.events.Broadcast(realtime.NewMessageEvent(stored))
	s.events.Broadcast(realtime.ConversationUpdateEvent(stored))
	return stored, nil
}
