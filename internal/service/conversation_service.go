package service

import (
	"context"
	"sort"

	"chat-sync/internal/domain"
	"chat-sync/internal/repository"
)

// ConversationService deriva la lista de conversaciones a partir del log de
// mensajes. Es una lectura pura: no toma locks ni muta nada, y sobre el mismo
// conjunto de mensajes siempre produce el mismo resultado.
type ConversationService struct {
	repo repository.MessageRepository
}

func NewConversationService(repo repository.MessageRepository) *ConversationService {
	return &ConversationService{repo: repo}
}

func (s *ConversationService) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	messages, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return ProjectConversations(messages), nil
}

// ProjectConversations agrupa por wa_id y reduce cada grupo a una entrada:
// el mensaje de timestamp máximo aporta nombre, cuerpo y fecha (empate lo
// gana el insertado más tarde), y unreadCount cuenta los entrantes aún en
// delivered. La salida queda ordenada del más reciente al más viejo.
func ProjectConversations(messages []domain.Message) []domain.Conversation {
	type group struct {
		latest domain.Message
		unread int
	}

	groups := make(map[string]*group)
	for _, msg := range messages {
		g, ok := groups[msg.WaID]
		if !ok {
			g = &group{latest: msg}
			groups[msg.WaID] = g
		} else if after(msg, g.latest) {
			g.latest = msg
		}
		if !msg.FromMe && msg.Status == domain.StatusDelivered {
			g.unread++
		}
	}

	conversations := make([]domain.Conversation, 0, len(groups))
	for waID, g := range groups {
		conversations = append(conversations, domain.Conversation{
			WaID:                 waID,
			Name:                 g.latest.Name,
			LastMessage:          g.latest.Body,
			LastMessageTimestamp: g.latest.Timestamp,
			UnreadCount:          g.unread,
		})
	}

	sort.Slice(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		if !a.LastMessageTimestamp.Equal(b.LastMessageTimestamp) {
			return a.LastMessageTimestamp.After(b.LastMessageTimestamp)
		}
		// Empate de fecha: orden estable por wa_id para que la salida sea
		// determinista entre invocaciones.
		return a.WaID < b.WaID
	})

	return conversations
}

// after decide si candidate reemplaza a current como representante del grupo:
// timestamp mayor, o mismo timestamp pero insertado después.
func after(candidate, current domain.Message) bool {
	if candidate.Timestamp.After(current.Timestamp) {
		return true
	}
	return candidate.Timestamp.Equal(current.Timestamp) && candidate.ID > current.ID
}
