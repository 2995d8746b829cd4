package core

import "time"

// Message is the domain model for a chat message as broadcast to a room.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	SenderName     string
	Content        string
	MessageType    string
	IsRead         bool
	CreatedAt      time.Time
	// TemporaryID is the client-supplied correlation id; it rides along on
	// the broadcast so the sender's other devices can reconcile optimistic UI.
	TemporaryID string
}

// MessageStatus is the direct acknowledgment sent to the message author.
type MessageStatus struct {
	TemporaryID string
	MessageID   int64
	Status      string
}
