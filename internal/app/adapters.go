package app

import (
	"context"
	"errors"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/core"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store"
)

// storeDirectory adapts the user store to the socket core's directory
// contract, translating store errors into core errors.
type storeDirectory struct {
	st store.UserStore
}

func (d *storeDirectory) FindByID(ctx context.Context, userID int64) (core.Identity, error) {
	u, err := d.st.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Identity{}, core.ErrUserNotFound
		}
		return core.Identity{}, err
	}
	return core.Identity{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// storeMessages adapts conversation and message persistence to the socket
// core's message store contract.
type storeMessages struct {
	st store.Store
}

func (m *storeMessages) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	ok, err := m.st.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, core.ErrConversationNotFound
		}
		return false, err
	}
	return ok, nil
}

func (m *storeMessages) Persist(ctx context.Context, conversationID, senderID int64, content, messageType string) (*core.Message, error) {
	msg, err := m.st.SaveMessage(ctx, conversationID, senderID, content, messageType)
	if err != nil {
		return nil, err
	}
	return &core.Message{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderName:     msg.SenderName,
		Content:        msg.Content,
		MessageType:    msg.MessageType,
		IsRead:         msg.IsRead,
		CreatedAt:      msg.CreatedAt,
	}, nil
}

func (m *storeMessages) MarkRead(ctx context.Context, conversationID, readerID int64) error {
	return m.st.MarkMessagesRead(ctx, conversationID, readerID)
}
