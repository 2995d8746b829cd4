package core

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// TokenVerifier checks a bearer credential and returns the user id it was
// issued for.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// UserDirectory resolves user ids to identities. Returns ErrUserNotFound for
// ids with no matching identity.
type UserDirectory interface {
	FindByID(ctx context.Context, userID int64) (Identity, error)
}

// MessageStore is the persistence collaborator the hub calls into. All three
// calls complete before any registry lock is taken.
type MessageStore interface {
	// IsParticipant reports whether the user belongs to the conversation.
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)

	// Persist stores a message and returns the enriched record.
	Persist(ctx context.Context, conversationID, senderID int64, content, messageType string) (*Message, error)

	// MarkRead marks the conversation's foreign messages read for the reader.
	MarkRead(ctx context.Context, conversationID, readerID int64) error
}

// Hub ties the registry, room index and router to the external collaborators
// and implements the operations a connection may invoke.
type Hub struct {
	reg      *Registry
	router   *Router
	verifier TokenVerifier
	users    UserDirectory
	messages MessageStore
	log      *zerolog.Logger
}

// NewHub wires the hub. verifier, users and messages are the boundary
// collaborators; the registry and router are created here.
func NewHub(verifier TokenVerifier, users UserDirectory, messages MessageStore, logger *zerolog.Logger) *Hub {
	reg := NewRegistry()
	return &Hub{
		reg:      reg,
		router:   NewRouter(reg, logger),
		verifier: verifier,
		users:    users,
		messages: messages,
		log:      logger,
	}
}

// Registry exposes the registry for transports and tests.
func (h *Hub) Registry() *Registry { return h.reg }

// Router exposes the broadcast router.
func (h *Hub) Router() *Router { return h.router }

// Admit registers a new unauthenticated connection.
func (h *Hub) Admit(connID string, kind TransportKind) *Conn {
	c := h.reg.Admit(connID, kind)
	h.log.Debug().Str("conn_id", connID).Str("transport", string(kind)).Msg("connection admitted")
	return c
}

// Disconnect evicts the connection; registry and room state go together.
func (h *Hub) Disconnect(connID string) {
	h.reg.Evict(connID)
	h.log.Debug().Str("conn_id", connID).Msg("connection evicted")
}

// Authenticate verifies the credential, resolves the identity and binds it to
// the connection. Verification and directory lookup run before the registry
// lock is touched. On success the connection receives an authenticated event.
func (h *Hub) Authenticate(ctx context.Context, connID, token string) (Identity, *CoreError) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, coreError(ErrCodeMissingCredential, "no token provided")
	}

	userID, err := h.verifier.Verify(token)
	if err != nil {
		h.log.Debug().Err(err).Str("conn_id", connID).Msg("token verification failed")
		return Identity{}, coreError(ErrCodeInvalidCredential, "token is not valid")
	}

	ident, err := h.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Identity{}, coreError(ErrCodeUnknownUser, "user not found")
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("directory lookup failed")
		return Identity{}, coreError(ErrCodeInternal, "authentication failed")
	}

	if err := h.reg.BindUser(connID, ident); err != nil {
		if errors.Is(err, ErrIdentityBound) {
			return Identity{}, coreError(ErrCodeBadRequest, "connection is already authenticated as another user")
		}
		// The transport vanished while we were verifying; nothing to notify.
		return Identity{}, coreError(ErrCodeInternal, "connection no longer registered")
	}

	ev := newEvent(EventAuthenticated)
	ev.User = &ident
	ev.ConnID = connID
	h.router.SendDirect(connID, ev)

	h.log.Info().
		Str("conn_id", connID).
		Int64("user_id", ident.ID).
		Str("user_name", ident.Name).
		Msg("connection authenticated")

	return ident, nil
}

// JoinConversation validates access via the message store, then atomically
// moves the connection into the conversation's room (leaving any previous
// room). The joiner alone receives a joinedConversation event.
func (h *Hub) JoinConversation(ctx context.Context, connID string, conversationID int64) *CoreError {
	ident, ok := h.reg.ResolveUser(connID)
	if !ok {
		return coreError(ErrCodeUnauthorized, "authenticate before joining a conversation")
	}

	// Participant check happens outside the registry lock.
	isMember, err := h.messages.IsParticipant(ctx, conversationID, ident.ID)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return coreError(ErrCodeNotFound, "conversation not found")
		}
		h.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("participant check failed")
		return coreError(ErrCodeInternal, "failed to join conversation")
	}
	if !isMember {
		return coreError(ErrCodeAccessDenied, "access denied to conversation")
	}

	count, err := h.reg.Join(connID, conversationID)
	if err != nil {
		// Disconnected mid-validation; the membership must not be committed.
		return coreError(ErrCodeInternal, "connection no longer registered")
	}

	ev := newEvent(EventJoinedConversation)
	ev.ConversationID = conversationID
	ev.MemberCount = count
	h.router.SendDirect(connID, ev)

	// Opening a conversation implies reading it.
	if err := h.messages.MarkRead(ctx, conversationID, ident.ID); err != nil {
		h.log.Warn().Err(err).Int64("conversation_id", conversationID).Msg("failed to mark messages read")
	}

	h.log.Info().
		Str("conn_id", connID).
		Int64("user_id", ident.ID).
		Int64("conversation_id", conversationID).
		Int("member_count", count).
		Msg("joined conversation")

	return nil
}

// LeaveConversation removes the connection from its current room. Calling it
// while in no room is a no-op, not an error.
func (h *Hub) LeaveConversation(connID string) {
	h.reg.Leave(connID)
}

// SendMessage persists the message through the external store and then fans
// the stored record out to the room, excluding the sender, who instead gets a
// messageStatus acknowledgment correlated by temporaryID.
func (h *Hub) SendMessage(ctx context.Context, connID string, conversationID int64, content, messageType, temporaryID string) *CoreError {
	ident, ok := h.reg.ResolveUser(connID)
	if !ok {
		return coreError(ErrCodeUnauthorized, "authenticate before sending messages")
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return coreError(ErrCodeBadRequest, "message content cannot be empty")
	}

	isMember, err := h.messages.IsParticipant(ctx, conversationID, ident.ID)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			return coreError(ErrCodeNotFound, "conversation not found")
		}
		h.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("participant check failed")
		return coreError(ErrCodeInternal, "failed to send message")
	}
	if !isMember {
		return coreError(ErrCodeAccessDenied, "access denied to conversation")
	}

	msg, err := h.messages.Persist(ctx, conversationID, ident.ID, content, messageType)
	if err != nil {
		h.log.Error().Err(err).Int64("conversation_id", conversationID).Msg("failed to persist message")
		return coreError(ErrCodeInternal, "failed to send message")
	}
	msg.TemporaryID = temporaryID

	ev := newEvent(EventNewMessage)
	ev.ConversationID = conversationID
	ev.Message = msg
	delivered := h.router.BroadcastToRoom(conversationID, ev, connID)

	ack := newEvent(EventMessageStatus)
	ack.ConversationID = conversationID
	ack.Status = &MessageStatus{
		TemporaryID: temporaryID,
		MessageID:   msg.ID,
		Status:      "sent",
	}
	h.router.SendDirect(connID, ack)

	h.log.Info().
		Str("conn_id", connID).
		Int64("user_id", ident.ID).
		Int64("conversation_id", conversationID).
		Int64("message_id", msg.ID).
		Int("delivered", delivered).
		Msg("message broadcast")

	return nil
}

// BroadcastMessage fans a message persisted elsewhere (the REST send path)
// out to the whole room, with no exclusion: the HTTP response is the
// sender's acknowledgment. Returns the delivery count.
func (h *Hub) BroadcastMessage(conversationID int64, msg *Message) int {
	ev := newEvent(EventNewMessage)
	ev.ConversationID = conversationID
	ev.Message = msg
	return h.router.BroadcastToRoom(conversationID, ev, "")
}

// StartTyping notifies the room that the user began typing. Silently ignored
// unless the connection is currently joined to that conversation.
func (h *Hub) StartTyping(connID string, conversationID int64) {
	h.typingEvent(connID, conversationID, EventUserTyping)
}

// StopTyping notifies the room that the user stopped typing.
func (h *Hub) StopTyping(connID string, conversationID int64) {
	h.typingEvent(connID, conversationID, EventUserStoppedTyping)
}

func (h *Hub) typingEvent(connID string, conversationID int64, kind EventKind) {
	ident, ok := h.reg.ResolveUser(connID)
	if !ok {
		return
	}
	current, ok := h.reg.CurrentConversation(connID)
	if !ok || current != conversationID {
		return
	}

	ev := newEvent(kind)
	ev.ConversationID = conversationID
	ev.User = &ident
	h.router.BroadcastToRoom(conversationID, ev, connID)
}

// Pong answers an application-level ping, direct to the sender.
func (h *Hub) Pong(connID string) {
	h.router.SendDirect(connID, newEvent(EventPong))
}

// Stats reports live connection and room counts for periodic monitoring.
func (h *Hub) Stats() (conns, rooms int) {
	return h.reg.Stats()
}
