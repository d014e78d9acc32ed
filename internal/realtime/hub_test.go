package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"

	"chat-sync/internal/domain"
)

func testMessage() domain.Message {
	return domain.Message{
		ID: 1, WaID: "1", Name: "Alice", MessageID: "m1", Body: "hi",
		Timestamp: time.Unix(1000, 0).UTC(), Status: domain.StatusDelivered,
	}
}

func recv(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case payload := <-ch:
		return payload
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
		return nil
	}
}

func decodeEnvelope(t *testing.T, payload []byte) (string, json.RawMessage) {
	t.Helper()
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	return env.Type, env.Data
}

func TestHubBroadcastsToAllSubscribersInOrder(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, "chat:events")
	defer hub.Close()

	a := &Client{hub: hub, send: make(chan []byte, 8)}
	b := &Client{hub: hub, send: make(chan []byte, 8)}
	hub.RegisterClient(a)
	hub.RegisterClient(b)

	msg := testMessage()
	hub.Broadcast(NewMessageEvent(msg))
	hub.Broadcast(ConversationUpdateEvent(msg))

	for _, c := range []*Client{a, b} {
		firstType, _ := decodeEnvelope(t, recv(t, c.send))
		secondType, _ := decodeEnvelope(t, recv(t, c.send))
		if firstType != EventNewMessage || secondType != EventUpdateConversation {
			t.Fatalf("expected emission order preserved, got %q then %q", firstType, secondType)
		}
	}
}

func TestHubUnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, "chat:events")
	defer hub.Close()

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.RegisterClient(c)
	hub.UnregisterClient(c)

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for channel close")
	}

	// Un broadcast posterior no debe entregarse al cliente retirado.
	hub.Broadcast(NewMessageEvent(testMessage()))
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, "chat:events")

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.RegisterClient(c)
	hub.Close()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatalf("expected closed channel after hub close")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for channel close")
	}

	// Cerrar de nuevo no debe entrar en pánico.
	hub.Close()
}

func TestHubBroadcastWithoutSubscribersIsSilent(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, "chat:events")
	defer hub.Close()
	hub.Broadcast(NewMessageEvent(testMessage()))
}

func TestHubDropsUnencodableEvent(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, "chat:events")
	defer hub.Close()

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.RegisterClient(c)

	// time.Time fuera del rango [0,9999] no se puede serializar a JSON.
	bad := testMessage()
	bad.Timestamp = time.Date(10001, 1, 1, 0, 0, 0, 0, time.UTC)
	hub.Broadcast(NewMessageEvent(bad))

	select {
	case payload := <-c.send:
		t.Fatalf("expected no delivery for unencodable event, got %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventEncodeFailsOnOutOfRangeTimestamp(t *testing.T) {
	bad := testMessage()
	bad.Timestamp = time.Date(10001, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := NewMessageEvent(bad).Encode(); err == nil {
		t.Fatalf("expected encode error for out-of-range timestamp")
	}
}

func TestNewMessageEventCarriesFullMessage(t *testing.T) {
	payload, err := NewMessageEvent(testMessage()).Encode()
	if err != nil {
		t.Fatalf("encoding event: %v", err)
	}

	typ, data := decodeEnvelope(t, payload)
	if typ != EventNewMessage {
		t.Fatalf("expected %q, got %q", EventNewMessage, typ)
	}
	var decoded domain.Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding event data: %v", err)
	}
	if decoded.MessageID != "m1" || decoded.Body != "hi" || decoded.Status != domain.StatusDelivered {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
}

func TestConversationUpdateEventIsPartial(t *testing.T) {
	payload, err := ConversationUpdateEvent(testMessage()).Encode()
	if err != nil {
		t.Fatalf("encoding event: %v", err)
	}

	_, data := decodeEnvelope(t, payload)
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decoding event data: %v", err)
	}
	for _, key := range []string{"wa_id", "name", "lastMessage", "lastMessageTimestamp"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("expected field %q in payload: %v", key, decoded)
		}
	}
	if _, ok := decoded["unreadCount"]; ok {
		t.Fatalf("unreadCount must not ride on the partial update")
	}
}
