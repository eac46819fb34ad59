package models

import "time"

// EventNewMessage is the only event kind pushed to live connections.
const EventNewMessage = "newMessage"

// Message is a direct message between two users.
// Messages are immutable once stored; at least one of Text and ImageURL is set.
type Message struct {
	CreatedAt  time.Time `json:"createdAt"`       // присваивается при сохранении
	SenderID   string    `json:"senderId"`        // автор
	ReceiverID string    `json:"receiverId"`      // получатель
	Text       string    `json:"text,omitempty"`  // текст, может отсутствовать
	ImageURL   string    `json:"image,omitempty"` // URL из MediaStore, может отсутствовать
	ID         int64     `json:"_id"`             // монотонный идентификатор из хранилища
}

// NewMessage is the input of a message store append.
type NewMessage struct {
	SenderID   string
	ReceiverID string
	Text       string
	ImageURL   string
}

// IsEmpty reports whether the message carries neither text nor image.
func (m NewMessage) IsEmpty() bool {
	return m.Text == "" && m.ImageURL == ""
}

// Event is the envelope pushed over the real-time channel.
type Event struct {
	Type    string  `json:"type"`
	Payload Message `json:"payload"`
}

// NewMessageEvent wraps a persisted message into a push event.
func NewMessageEvent(msg Message) Event {
	return Event{Type: EventNewMessage, Payload: msg}
}
