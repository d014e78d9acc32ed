package domain

import "time"

// Conversation es una proyección derivada, no persistida: una entrada por
// contacto con el último mensaje y el conteo de no leídos.
type Conversation struct {
	WaID                 string    `json:"wa_id"`
	Name                 string    `json:"name"`
	LastMessage          string    `json:"lastMessage"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp"`
	UnreadCount          int       `json:"unreadCount"`
}
