package realtime

import (
	"encoding/json"
	"time"

	"chat-sync/internal/domain"
)

// Tipos de evento que consumen los clientes conectados.
const (
	EventNewMessage         = "newMessage"
	EventUpdateConversation = "updateConversation"
)

// Event es el sobre que viaja por el canal realtime y por redis. Data se
// serializa recién al emitir, así el que emite puede loguear si falla.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broadcaster publica eventos a todos los suscriptores conectados. La entrega
// es best-effort: sin suscriptores no es un error.
type Broadcaster interface {
	Broadcast(event Event)
}

// ConversationUpdate es la vista parcial que los clientes mezclan en su lista
// de conversaciones (insertar si es nueva, si no actualizar y reordenar).
type ConversationUpdate struct {
	WaID                 string    `json:"wa_id"`
	Name                 string    `json:"name"`
	LastMessage          string    `json:"lastMessage"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp"`
}

// NewMessageEvent arma el evento con el mensaje completo recién persistido.
func NewMessageEvent(msg domain.Message) Event {
	return Event{Type: EventNewMessage, Data: msg}
}

// ConversationUpdateEvent arma el evento parcial a partir del mensaje
// representativo de la conversación.
func ConversationUpdateEvent(msg domain.Message) Event {
	return Event{Type: EventUpdateConversation, Data: ConversationUpdate{
		WaID:                 msg.WaID,
		Name:                 msg.Name,
		LastMessage:          msg.Body,
		LastMessageTimestamp: msg.Timestamp,
	}}
}

// Encode serializa el sobre completo para el wire.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
