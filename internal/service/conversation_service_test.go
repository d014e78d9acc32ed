package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"chat-sync/internal/domain"
)

func ts(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func TestProjectConversations_GroupsAndOrders(t *testing.T) {
	messages := []domain.Message{
		{ID: 1, WaID: "1", Name: "Alice", Body: "hi", FromMe: false, Timestamp: ts(1000), Status: domain.StatusDelivered},
		{ID: 2, WaID: "2", Name: "Bob", Body: "hey", FromMe: false, Timestamp: ts(2000), Status: domain.StatusRead},
		{ID: 3, WaID: "1", Name: "Alice", Body: "you there?", FromMe: false, Timestamp: ts(3000), Status: domain.StatusDelivered},
	}

	conversations := ProjectConversations(messages)

	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}
	if conversations[0].WaID != "1" || conversations[1].WaID != "2" {
		t.Fatalf("expected most recent conversation first, got %q then %q", conversations[0].WaID, conversations[1].WaID)
	}
	if conversations[0].LastMessage != "you there?" {
		t.Fatalf("expected latest body, got %q", conversations[0].LastMessage)
	}
	if conversations[0].UnreadCount != 2 {
		t.Fatalf("expected 2 unread for wa_id 1, got %d", conversations[0].UnreadCount)
	}
	if conversations[1].UnreadCount != 0 {
		t.Fatalf("expected 0 unread for read message, got %d", conversations[1].UnreadCount)
	}
}

func TestProjectConversations_UnreadCountsOnlyDeliveredInbound(t *testing.T) {
	messages := []domain.Message{
		{ID: 1, WaID: "1", Name: "Alice", Body: "a", FromMe: false, Timestamp: ts(1), Status: domain.StatusDelivered},
		{ID: 2, WaID: "1", Name: "Alice", Body: "b", FromMe: false, Timestamp: ts(2), Status: domain.StatusDelivered},
		{ID: 3, WaID: "1", Name: "Alice", Body: "c", FromMe: false, Timestamp: ts(3), Status: domain.StatusRead},
		{ID: 4, WaID: "1", Name: "Alice", Body: "d", FromMe: true, Timestamp: ts(4), Status: domain.StatusDelivered},
		{ID: 5, WaID: "1", Name: "Alice", Body: "e", FromMe: true, Timestamp: ts(5), Status: domain.StatusSent},
	}

	conversations := ProjectConversations(messages)

	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
	if conversations[0].UnreadCount != 2 {
		t.Fatalf("expected unread 2, got %d", conversations[0].UnreadCount)
	}
}

func TestProjectConversations_TimestampTieLastInsertWins(t *testing.T) {
	messages := []domain.Message{
		{ID: 1, WaID: "1", Name: "Alice", Body: "first", FromMe: false, Timestamp: ts(100), Status: domain.StatusRead},
		{ID: 2, WaID: "1", Name: "Alice", Body: "second", FromMe: false, Timestamp: ts(100), Status: domain.StatusRead},
	}

	conversations := ProjectConversations(messages)

	if conversations[0].LastMessage != "second" {
		t.Fatalf("expected later insert to win the tie, got %q", conversations[0].LastMessage)
	}
}

func TestProjectConversations_Deterministic(t *testing.T) {
	messages := []domain.Message{
		{ID: 1, WaID: "3", Name: "Cleo", Body: "x", FromMe: false, Timestamp: ts(500), Status: domain.StatusDelivered},
		{ID: 2, WaID: "1", Name: "Alice", Body: "y", FromMe: false, Timestamp: ts(500), Status: domain.StatusRead},
		{ID: 3, WaID: "2", Name: "Bob", Body: "z", FromMe: true, Timestamp: ts(900), Status: domain.StatusSent},
	}

	first := ProjectConversations(messages)
	second := ProjectConversations(messages)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical projections, got %v vs %v", first, second)
	}
	for i := 1; i < len(first); i++ {
		if first[i].LastMessageTimestamp.After(first[i-1].LastMessageTimestamp) {
			t.Fatalf("expected descending order by lastMessageTimestamp")
		}
	}
}

func TestProjectConversations_Empty(t *testing.T) {
	conversations := ProjectConversations(nil)
	if len(conversations) != 0 {
		t.Fatalf("expected empty projection, got %d entries", len(conversations))
	}
	if conversations == nil {
		t.Fatalf("expected non-nil slice for JSON encoding")
	}
}

func TestConversationServiceListConversations(t *testing.T) {
	repo := newFakeMessageRepo()
	_, _ = repo.Insert(context.Background(), domain.Message{
		WaID: "1", Name: "Alice", MessageID: "m1", Body: "hi",
		Timestamp: ts(1000), Status: domain.StatusDelivered,
	})

	svc := NewConversationService(repo)
	conversations, err := svc.ListConversations(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(conversations) != 1 || conversations[0].UnreadCount != 1 {
		t.Fatalf("unexpected projection: %v", conversations)
	}
}
