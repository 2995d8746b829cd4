package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Todo is a per-user task item.
type Todo struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	IsCompleted bool
	CreatedAt   time.Time
}

// Conversation is a direct (two participant) conversation.
// Participant ids are normalized so Participant1ID < Participant2ID.
type Conversation struct {
	ID             int64
	Participant1ID int64
	Participant2ID int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Message is a persisted chat message enriched with the sender's name.
type Message struct {
	ID             int64
	ConversationID int64
	SenderID       int64
	SenderName     string
	Content        string
	MessageType    string
	IsRead         bool
	CreatedAt      time.Time
}

// ConversationSummary is one row of a user's conversation list.
type ConversationSummary struct {
	ConversationID      int64
	LastActivity        time.Time
	OtherUserID         int64
	OtherUserName       string
	OtherUserEmail      string
	LastMessage         *string
	LastMessageTime     *time.Time
	LastMessageSenderID *int64
	UnreadCount         int
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, name, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SearchUsers searches users by name or email substring, excluding one user.
	SearchUsers(ctx context.Context, query string, excludeUserID int64, limit int) ([]*User, error)
}

// TodoStore handles todo persistence.
type TodoStore interface {
	// ListTodos lists a user's todos, newest first.
	ListTodos(ctx context.Context, userID int64) ([]*Todo, error)

	// CreateTodo creates a todo owned by userID.
	CreateTodo(ctx context.Context, userID int64, title, description string) (*Todo, error)

	// GetTodo retrieves a todo owned by userID. ErrNotFound when absent or
	// owned by someone else.
	GetTodo(ctx context.Context, id, userID int64) (*Todo, error)

	// UpdateTodo overwrites title, description and completion state of a todo
	// owned by userID.
	UpdateTodo(ctx context.Context, id, userID int64, title, description string, isCompleted bool) (*Todo, error)

	// DeleteTodo removes a todo owned by userID.
	DeleteTodo(ctx context.Context, id, userID int64) error
}

// ConversationStore handles conversation persistence.
type ConversationStore interface {
	// GetOrCreateConversation returns the direct conversation between the two
	// users, creating it if needed. Participant order is normalized.
	GetOrCreateConversation(ctx context.Context, userA, userB int64) (*Conversation, error)

	// GetConversation retrieves a conversation by id.
	GetConversation(ctx context.Context, id int64) (*Conversation, error)

	// ListConversations lists a user's conversations with last message and
	// unread count, most recently active first.
	ListConversations(ctx context.Context, userID int64) ([]*ConversationSummary, error)

	// IsParticipant reports whether userID participates in the conversation.
	// Returns ErrNotFound when the conversation does not exist.
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)

	// TouchConversation bumps the conversation's updated_at timestamp.
	TouchConversation(ctx context.Context, conversationID int64) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and returns the stored record with the
	// sender name populated. Also bumps the conversation timestamp.
	SaveMessage(ctx context.Context, conversationID, senderID int64, content, messageType string) (*Message, error)

	// ListMessages returns a page of messages in chronological order.
	ListMessages(ctx context.Context, conversationID int64, limit, offset int) ([]*Message, error)

	// MarkMessagesRead marks all messages from other senders as read.
	MarkMessagesRead(ctx context.Context, conversationID, readerID int64) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	TodoStore
	ConversationStore
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
