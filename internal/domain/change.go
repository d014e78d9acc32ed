package domain

// RecordKind discrimina las dos formas de registro de ingesta.
type RecordKind string

const (
	RecordMessageArrival   RecordKind = "message"
	RecordStatusTransition RecordKind = "status"
)

// MessageArrival es un mensaje entrante nuevo reportado por el origen.
// Timestamp viene como epoch en segundos, tal cual lo entrega el webhook.
type MessageArrival struct {
	WaID      string
	Name      string
	MessageID string
	Body      string
	Timestamp string
}

// StatusTransition actualiza el estado de entrega de un mensaje ya enviado.
type StatusTransition struct {
	MessageID string
	Status    string
}

// ChangeRecord is a tagged union: exactly one of Arrival or StatusUpdate is
// set, according to Kind.
type ChangeRecord struct {
	Kind         RecordKind
	Arrival      *MessageArrival
	StatusUpdate *StatusTransition
}

// NewArrival construye un registro de llegada de mensaje.
func NewArrival(a MessageArrival) ChangeRecord {
	return ChangeRecord{Kind: RecordMessageArrival, Arrival: &a}
}

// NewStatusUpdate construye un registro de transición de estado.
func NewStatusUpdate(s StatusTransition) ChangeRecord {
	return ChangeRecord{Kind: RecordStatusTransition, StatusUpdate: &s}
}
