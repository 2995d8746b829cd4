package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/core"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store"
)

const (
	userSearchLimit    = 20
	defaultMessagePage = 50
	maxMessagePage     = 200
)

// MessageHandlers provides HTTP handlers for conversations and messages.
// Messages sent over REST are fanned out to live sockets through the hub.
type MessageHandlers struct {
	store store.Store
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(st store.Store, hub *core.Hub, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// CreateConversationRequest represents the create conversation request body.
type CreateConversationRequest struct {
	OtherUserID int64 `json:"otherUserId" binding:"required"`
}

// SendMessageRequest represents the REST send message request body.
type SendMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	MessageType string `json:"messageType"`
}

// ConversationResponse represents a conversation in API responses.
type ConversationResponse struct {
	ID             int64  `json:"id"`
	Participant1ID int64  `json:"participant1_id"`
	Participant2ID int64  `json:"participant2_id"`
	CreatedAt      string `json:"created_at"`
}

// ConversationSummaryResponse is one row of the conversation list.
type ConversationSummaryResponse struct {
	ConversationID      int64   `json:"conversation_id"`
	LastActivity        string  `json:"last_activity"`
	OtherUserID         int64   `json:"other_user_id"`
	OtherUserName       string  `json:"other_user_name"`
	OtherUserEmail      string  `json:"other_user_email"`
	LastMessage         *string `json:"last_message"`
	LastMessageTime     *string `json:"last_message_time"`
	LastMessageSenderID *int64  `json:"last_message_sender_id"`
	UnreadCount         int     `json:"unread_count"`
}

// MessageResponse represents a message record in API responses. The shape is
// shared with the newMessage socket event.
type MessageResponse struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	SenderID       int64  `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      string `json:"created_at"`
}

func messageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		Content:        m.Content,
		MessageType:    m.MessageType,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
}

func conversationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
		return 0, false
	}
	return id, true
}

// requireParticipant checks conversation access for the current user and
// writes the error response itself when access is denied.
func (h *MessageHandlers) requireParticipant(c *gin.Context, convID, uid int64) bool {
	isMember, err := h.store.IsParticipant(c.Request.Context(), convID, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
			return false
		}
		h.log.Error().Err(err).Int64("conversation_id", convID).Msg("participant check failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return false
	}
	if !isMember {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied to conversation"})
		return false
	}
	return true
}

// SearchUsers handles searching for chat partners by name or email.
// GET /api/messages/users/search?query=
func (h *MessageHandlers) SearchUsers(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("query"))
	if len(query) < 2 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "search query must be at least 2 characters"})
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), query, uid, userSearchLimit)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userResponse(u))
	}
	c.JSON(http.StatusOK, response)
}

// ListConversations handles listing the user's conversations with last
// message and unread count, most recently active first.
// GET /api/messages/conversations
func (h *MessageHandlers) ListConversations(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	summaries, err := h.store.ListConversations(c.Request.Context(), uid)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Msg("failed to list conversations")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ConversationSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		row := ConversationSummaryResponse{
			ConversationID:      s.ConversationID,
			LastActivity:        s.LastActivity.Format(time.RFC3339),
			OtherUserID:         s.OtherUserID,
			OtherUserName:       s.OtherUserName,
			OtherUserEmail:      s.OtherUserEmail,
			LastMessage:         s.LastMessage,
			LastMessageSenderID: s.LastMessageSenderID,
			UnreadCount:         s.UnreadCount,
		}
		if s.LastMessageTime != nil {
			t := s.LastMessageTime.Format(time.RFC3339)
			row.LastMessageTime = &t
		}
		response = append(response, row)
	}
	c.JSON(http.StatusOK, response)
}

// CreateConversation handles get-or-create of a direct conversation with
// another user.
// POST /api/messages/conversations
func (h *MessageHandlers) CreateConversation(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create conversation request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.OtherUserID == uid {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot start a conversation with yourself"})
		return
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), req.OtherUserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("other_user_id", req.OtherUserID).Msg("failed to look up user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	conv, err := h.store.GetOrCreateConversation(c.Request.Context(), uid, req.OtherUserID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", uid).Int64("other_user_id", req.OtherUserID).Msg("failed to create conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, ConversationResponse{
		ID:             conv.ID,
		Participant1ID: conv.Participant1ID,
		Participant2ID: conv.Participant2ID,
		CreatedAt:      conv.CreatedAt.Format(time.RFC3339),
	})
}

// ListMessages handles paged message history in chronological order.
// GET /api/messages/conversations/:id/messages?page=&limit=
func (h *MessageHandlers) ListMessages(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}
	convID, ok := conversationID(c)
	if !ok {
		return
	}
	if !h.requireParticipant(c, convID, uid) {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultMessagePage)))
	if limit < 1 || limit > maxMessagePage {
		limit = defaultMessagePage
	}

	messages, err := h.store.ListMessages(c.Request.Context(), convID, limit, (page-1)*limit)
	if err != nil {
		h.log.Error().Err(err).Int64("conversation_id", convID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		response = append(response, messageResponse(m))
	}
	c.JSON(http.StatusOK, response)
}

// SendMessage handles the REST send path: persist, then fan out to every
// live socket in the room. The HTTP response doubles as the sender's ack.
// POST /api/messages/conversations/:id/messages
func (h *MessageHandlers) SendMessage(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}
	convID, ok := conversationID(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send message request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "message content cannot be empty"})
		return
	}
	messageType := req.MessageType
	if messageType == "" {
		messageType = "text"
	}

	if !h.requireParticipant(c, convID, uid) {
		return
	}

	msg, err := h.store.SaveMessage(c.Request.Context(), convID, uid, content, messageType)
	if err != nil {
		h.log.Error().Err(err).Int64("conversation_id", convID).Msg("failed to save message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	delivered := h.hub.BroadcastMessage(convID, &core.Message{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderName:     msg.SenderName,
		Content:        msg.Content,
		MessageType:    msg.MessageType,
		IsRead:         msg.IsRead,
		CreatedAt:      msg.CreatedAt,
	})

	h.log.Info().
		Int64("conversation_id", convID).
		Int64("message_id", msg.ID).
		Int("delivered", delivered).
		Msg("rest message broadcast")

	c.JSON(http.StatusCreated, messageResponse(msg))
}

// MarkRead handles marking all foreign messages in a conversation as read.
// PUT /api/messages/conversations/:id/mark-read
func (h *MessageHandlers) MarkRead(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}
	convID, ok := conversationID(c)
	if !ok {
		return
	}
	if !h.requireParticipant(c, convID, uid) {
		return
	}

	if err := h.store.MarkMessagesRead(c.Request.Context(), convID, uid); err != nil {
		h.log.Error().Err(err).Int64("conversation_id", convID).Msg("failed to mark messages read")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "messages marked as read"})
}
