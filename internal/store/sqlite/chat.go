package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store"
)

// ==== ConversationStore implementation ====

// GetOrCreateConversation returns the direct conversation between two users,
// creating it if needed. Participant order is normalized so the smaller id
// is always participant1.
func (s *SQLiteStore) GetOrCreateConversation(ctx context.Context, userA, userB int64) (*store.Conversation, error) {
	p1, p2 := userA, userB
	if p1 > p2 {
		p1, p2 = p2, p1
	}

	conv, err := s.getConversationByPair(ctx, p1, p2)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (participant1_id, participant2_id)
		VALUES (?, ?)
	`, p1, p2)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetConversation(ctx, id)
}

// GetConversation retrieves a conversation by id.
func (s *SQLiteStore) GetConversation(ctx context.Context, id int64) (*store.Conversation, error) {
	var conv store.Conversation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, participant1_id, participant2_id, created_at, updated_at
		FROM conversations
		WHERE id = ?
	`, id).Scan(&conv.ID, &conv.Participant1ID, &conv.Participant2ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}

	return &conv, nil
}

func (s *SQLiteStore) getConversationByPair(ctx context.Context, p1, p2 int64) (*store.Conversation, error) {
	var conv store.Conversation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, participant1_id, participant2_id, created_at, updated_at
		FROM conversations
		WHERE participant1_id = ? AND participant2_id = ?
	`, p1, p2).Scan(&conv.ID, &conv.Participant1ID, &conv.Participant2ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query conversation by pair: %w", err)
	}

	return &conv, nil
}

// ListConversations lists a user's conversations with last message and unread
// count, most recently active first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID int64) ([]*store.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.id,
			c.updated_at,
			u.id,
			u.name,
			u.email,
			lm.content,
			lm.created_at,
			lm.sender_id,
			(SELECT COUNT(*) FROM messages m2
			 WHERE m2.conversation_id = c.id
			   AND m2.sender_id != ?
			   AND m2.is_read = 0) AS unread_count
		FROM conversations c
		JOIN users u ON u.id = CASE WHEN c.participant1_id = ? THEN c.participant2_id ELSE c.participant1_id END
		LEFT JOIN (
			SELECT m1.conversation_id, m1.content, m1.created_at, m1.sender_id
			FROM messages m1
			JOIN (
				SELECT conversation_id, MAX(id) AS max_id
				FROM messages
				GROUP BY conversation_id
			) latest ON latest.conversation_id = m1.conversation_id AND latest.max_id = m1.id
		) lm ON lm.conversation_id = c.id
		WHERE c.participant1_id = ? OR c.participant2_id = ?
		ORDER BY COALESCE(lm.created_at, c.updated_at) DESC
	`, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	summaries := make([]*store.ConversationSummary, 0)
	for rows.Next() {
		var (
			summary    store.ConversationSummary
			lastMsg    sql.NullString
			lastTime   sql.NullTime
			lastSender sql.NullInt64
		)
		if err := rows.Scan(
			&summary.ConversationID,
			&summary.LastActivity,
			&summary.OtherUserID,
			&summary.OtherUserName,
			&summary.OtherUserEmail,
			&lastMsg,
			&lastTime,
			&lastSender,
			&summary.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan conversation summary: %w", err)
		}
		if lastMsg.Valid {
			summary.LastMessage = &lastMsg.String
		}
		if lastTime.Valid {
			summary.LastMessageTime = &lastTime.Time
		}
		if lastSender.Valid {
			summary.LastMessageSenderID = &lastSender.Int64
		}
		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return summaries, nil
}

// IsParticipant reports whether userID participates in the conversation.
func (s *SQLiteStore) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	conv, err := s.GetConversation(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return conv.Participant1ID == userID || conv.Participant2ID == userID, nil
}

// TouchConversation bumps the conversation's updated_at timestamp.
func (s *SQLiteStore) TouchConversation(ctx context.Context, conversationID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, conversationID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and returns the stored record with the
// sender name populated. Also bumps the conversation timestamp.
func (s *SQLiteStore) SaveMessage(ctx context.Context, conversationID, senderID int64, content, messageType string) (*store.Message, error) {
	if messageType == "" {
		messageType = "text"
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content, message_type)
		VALUES (?, ?, ?, ?)
	`, conversationID, senderID, content, messageType)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if err := s.TouchConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	return s.getMessage(ctx, id)
}

func (s *SQLiteStore) getMessage(ctx context.Context, id int64) (*store.Message, error) {
	var msg store.Message
	err := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.conversation_id, m.sender_id, u.name, m.content, m.message_type, m.is_read, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.id = ?
	`, id).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.SenderID,
		&msg.SenderName,
		&msg.Content,
		&msg.MessageType,
		&msg.IsRead,
		&msg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("query message: %w", err)
	}

	return &msg, nil
}

// ListMessages returns a page of messages in chronological order.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID int64, limit, offset int) ([]*store.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	// Newest page first, then reversed to chronological order.
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.conversation_id, m.sender_id, u.name, m.content, m.message_type, m.is_read, m.created_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ? OFFSET ?
	`, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.SenderName,
			&msg.Content,
			&msg.MessageType,
			&msg.IsRead,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// MarkMessagesRead marks all messages from other senders as read.
func (s *SQLiteStore) MarkMessagesRead(ctx context.Context, conversationID, readerID int64) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE messages SET is_read = 1
		WHERE conversation_id = ? AND sender_id != ? AND is_read = 0
	`, conversationID, readerID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}
