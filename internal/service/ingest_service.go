package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"chat-sync/internal/domain"
	"chat-sync/internal/realtime"
	"chat-sync/internal/repository"
)

// IngestService aplica lotes de registros de cambio producidos por el origen
// externo. Todo el motor es idempotente: reprocesar un lote ya aplicado no
// deja efectos nuevos, así que es seguro relanzarlo tras una falla parcial.
type IngestService struct {
	logger *zap.Logger
	repo   repository.MessageRepository
	events realtime.Broadcaster
}

func NewIngestService(logger *zap.Logger, repo repository.MessageRepository, events realtime.Broadcaster) *IngestService {
	return &IngestService{logger: logger, repo: repo, events: events}
}

// BatchResult resume lo que hizo un lote, para el log de cierre del job.
type BatchResult struct {
	Inserted      int
	Duplicates    int
	StatusUpdates int
	Skipped       int
}

// Apply procesa los registros en orden, uno por uno. Los problemas por
// registro (malformado, duplicado, destino inexistente) se registran y no
// frenan el lote; solo una falla de infraestructura del store lo aborta.
func (s *IngestService) Apply(ctx context.Context, records []domain.ChangeRecord) (BatchResult, error) {
	var result BatchResult

	for i, record := range records {
		var err error
		switch record.Kind {
		case domain.RecordMessageArrival:
			err = s.applyArrival(ctx, record.Arrival, &result)
		case domain.RecordStatusTransition:
			err = s.applyStatus(ctx, record.StatusUpdate, &result)
		default:
			s.logger.Warn("unknown change record kind", zap.String("kind", string(record.Kind)), zap.Int("index", i))
			result.Skipped++
		}
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func (s *IngestService) applyArrival(ctx context.Context, arrival *domain.MessageArrival, result *BatchResult) error {
	if arrival == nil || arrival.WaID == "" || arrival.Name == "" || arrival.MessageID == "" || strings.TrimSpace(arrival.Body) == "" {
		s.logger.Warn("malformed message arrival, skipping", zap.Any("record", arrival))
		result.Skipped++
		return nil
	}

	ts, err := parseEpochSeconds(arrival.Timestamp)
	if err != nil {
		s.logger.Warn("message arrival with bad timestamp, skipping",
			zap.String("message_id", arrival.MessageID),
			zap.String("timestamp", arrival.Timestamp),
		)
		result.Skipped++
		return nil
	}

	// Guarda de idempotencia: si ya lo ingerimos, no es un error.
	_, err = s.repo.FindByMessageID(ctx, arrival.MessageID)
	if err == nil {
		s.logger.Debug("message already ingested", zap.String("message_id", arrival.MessageID))
		result.Duplicates++
		return nil
	}
	if !errors.Is(err, repository.ErrMessageNotFound) {
		return err
	}

	stored, err := s.repo.Insert(ctx, domain.Message{
		WaID:      arrival.WaID,
		Name:      arrival.Name,
		MessageID: arrival.MessageID,
		Body:      arrival.Body,
		FromMe:    false,
		Timestamp: ts,
		Status:    domain.StatusDelivered,
	})
	if errors.Is(err, repository.ErrDuplicateMessage) {
		// Carrera con otro escritor: el índice único eligió al ganador.
		s.logger.Debug("message inserted concurrently elsewhere", zap.String("message_id", arrival.MessageID))
		result.Duplicates++
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("message ingested",
		zap.String("message_id", stored.MessageID),
		zap.String("wa_id", stored.WaID),
	)
	s.events.Broadcast(realtime.NewMessageEvent(stored))
	s.events.Broadcast(realtime.ConversationUpdateEvent(stored))
	result.Inserted++
	return nil
}

func (s *IngestService) applyStatus(ctx context.Context, transition *domain.StatusTransition, result *BatchResult) error {
	if transition == nil || transition.MessageID == "" {
		s.logger.Warn("malformed status transition, skipping")
		result.Skipped++
		return nil
	}

	status, ok := domain.ParseStatus(transition.Status)
	if !ok {
		s.logger.Warn("unknown status value, skipping",
			zap.String("message_id", transition.MessageID),
			zap.String("status", transition.Status),
		)
		result.Skipped++
		return nil
	}

	current, err := s.repo.FindByMessageID(ctx, transition.MessageID)
	if errors.Is(err, repository.ErrMessageNotFound) {
		// Puede llegar el estado antes que el mensaje; no es fatal.
		s.logger.Warn("status transition for unknown message, skipping",
			zap.String("message_id", transition.MessageID),
		)
		result.Skipped++
		return nil
	}
	if err != nil {
		return err
	}

	if current.Status.IsBackward(status) {
		// Se aplica igual: el contrato es actualización incondicional.
		s.logger.Warn("status transition moves backward",
			zap.String("message_id", transition.MessageID),
			zap.String("from", string(current.Status)),
			zap.String("to", string(status)),
		)
	}

	updated, err := s.repo.UpdateStatusByMessageID(ctx, transition.MessageID, status)
	if errors.Is(err, repository.ErrMessageNotFound) {
		result.Skipped++
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("message status updated",
		zap.String("message_id", updated.MessageID),
		zap.String("status", string(updated.Status)),
	)
	// Sin esto los contadores de no leídos de los clientes quedan viejos.
	// El evento sale con el último mensaje de la conversación, no con la fila
	// actualizada: esa puede ser vieja y pisaría la vista del cliente.
	latest, err := s.latestInConversation(ctx, updated)
	if err != nil {
		return err
	}
	s.events.Broadcast(realtime.ConversationUpdateEvent(latest))
	result.StatusUpdates++
	return nil
}

// latestInConversation devuelve el mensaje representativo de la conversación:
// timestamp máximo, empate lo gana el insertado más tarde. Es el mismo
// criterio que usa el proyector.
func (s *IngestService) latestInConversation(ctx context.Context, fallback domain.Message) (domain.Message, error) {
	messages, err := s.repo.ListByWaID(ctx, fallback.WaID)
	if err != nil {
		return domain.Message{}, err
	}
	if len(messages) == 0 {
		return fallback, nil
	}
	// ListByWaID ordena ascendente por timestamp e id: el último es el representante.
	return messages[len(messages)-1], nil
}

func parseEpochSeconds(raw string) (time.Time, error) {
	seconds, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(seconds, 0).UTC(), nil
}
