package domain

import (
	"strings"
	"time"
)

// Status refleja el ciclo de entrega de un mensaje.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

// statusRank ordena los estados para detectar retrocesos. failed es terminal.
var statusRank = map[Status]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
	StatusFailed:    4,
}

// ParseStatus normaliza un valor de estado externo.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := statusRank[s]
	return s, ok
}

// IsBackward reports whether moving from s to next would regress the delivery
// lifecycle (pending → sent → delivered → read, failed terminal).
func (s Status) IsBackward(next Status) bool {
	from, okFrom := statusRank[s]
	to, okTo := statusRank[next]
	if !okFrom || !okTo {
		return false
	}
	return to < from
}

// Message es la única entidad persistida: una fila por mensaje procesado.
// MessageID es el identificador externo y la llave de idempotencia; ID lo
// asigna el store y fija el orden de inserción.
type Message struct {
	ID        int64     `json:"id"`
	WaID      string    `json:"wa_id"`
	Name      string    `json:"name"`
	MessageID string    `json:"message_id"`
	Body      string    `json:"body"`
	FromMe    bool      `json:"from_me"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}
