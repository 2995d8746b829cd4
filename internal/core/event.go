package core

import "time"

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventAuthenticated confirms a successful authenticate to the connection itself.
	EventAuthenticated EventKind = iota
	// EventJoinedConversation confirms a successful join, direct to the joiner only.
	EventJoinedConversation
	// EventNewMessage notifies room members about a persisted chat message.
	EventNewMessage
	// EventMessageStatus is the direct delivery acknowledgment to the sender.
	EventMessageStatus
	// EventUserTyping notifies room members that a user started typing.
	EventUserTyping
	// EventUserStoppedTyping notifies room members that a user stopped typing.
	EventUserStoppedTyping
	// EventError notifies the connection about a denied or failed operation.
	EventError
	// EventPong answers an application-level ping.
	EventPong
)

// Identity is the authenticated user bound to a connection.
type Identity struct {
	ID    int64
	Name  string
	Email string
}

// Event is an immutable value delivered to connections. Fan-out only reads it.
type Event struct {
	Kind           EventKind
	ConversationID int64
	ConnID         string
	User           *Identity
	MemberCount    int
	Message        *Message
	Status         *MessageStatus
	Error          *CoreError
	Timestamp      time.Time
}

func newEvent(kind EventKind) *Event {
	return &Event{Kind: kind, Timestamp: time.Now()}
}
