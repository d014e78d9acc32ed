package service

import (
	"context"
	"sort"

	"chat-sync/internal/domain"
	"chat-sync/internal/realtime"
	"chat-sync/internal/repository"
)

// fakeMessageRepo imita la semántica del store real: ids crecientes, unicidad
// de message_id y lecturas ordenadas.
type fakeMessageRepo struct {
	nextID    int64
	messages  []domain.Message
	insertErr error
	findErr   error
	updateErr error
	listErr   error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{nextID: 1}
}

func (f *fakeMessageRepo) Insert(_ context.Context, message domain.Message) (domain.Message, error) {
	if f.insertErr != nil {
		return domain.Message{}, f.insertErr
	}
	for _, m := range f.messages {
		if m.MessageID == message.MessageID {
			return domain.Message{}, repository.ErrDuplicateMessage
		}
	}
	message.ID = f.nextID
	f.nextID++
	f.messages = append(f.messages, message)
	return message, nil
}

func (f *fakeMessageRepo) FindByMessageID(_ context.Context, messageID string) (domain.Message, error) {
	if f.findErr != nil {
		return domain.Message{}, f.findErr
	}
	for _, m := range f.messages {
		if m.MessageID == messageID {
			return m, nil
		}
	}
	return domain.Message{}, repository.ErrMessageNotFound
}

func (f *fakeMessageRepo) UpdateStatusByMessageID(_ context.Context, messageID string, status domain.Status) (domain.Message, error) {
	if f.updateErr != nil {
		return domain.Message{}, f.updateErr
	}
	for i, m := range f.messages {
		if m.MessageID == messageID {
			f.messages[i].Status = status
			return f.messages[i], nil
		}
	}
	return domain.Message{}, repository.ErrMessageNotFound
}

func (f *fakeMessageRepo) ListByWaID(_ context.Context, waID string) ([]domain.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Message
	for _, m := range f.messages {
		if m.WaID == waID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeMessageRepo) ListAll(_ context.Context) ([]domain.Message, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Message, len(f.messages))
	copy(out, f.messages)
	return out, nil
}

// recordingBroadcaster acumula los eventos emitidos para inspeccionarlos.
type recordingBroadcaster struct {
	events []realtime.Event
}

func (r *recordingBroadcaster) Broadcast(event realtime.Event) {
	r.events = append(r.events, event)
}
