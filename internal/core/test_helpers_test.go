package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()

	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v received: %+v", kind, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// fakeVerifier maps token strings to user ids.
type fakeVerifier struct {
	tokens map[string]int64
}

func (f *fakeVerifier) Verify(token string) (int64, error) {
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("signature mismatch")
}

// fakeDirectory serves identities from a map.
type fakeDirectory struct {
	users map[int64]Identity
}

func (f *fakeDirectory) FindByID(_ context.Context, userID int64) (Identity, error) {
	if ident, ok := f.users[userID]; ok {
		return ident, nil
	}
	return Identity{}, ErrUserNotFound
}

// fakeMessages is an in-memory MessageStore: participants per conversation,
// appended messages, and mark-read calls recorded for assertions.
type fakeMessages struct {
	mu           sync.Mutex
	participants map[int64][]int64
	nextID       int64
	saved        []*Message
	markedRead   []int64
	persistErr   error
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{participants: make(map[int64][]int64)}
}

func (f *fakeMessages) addParticipant(conversationID, userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[conversationID] = append(f.participants[conversationID], userID)
}

func (f *fakeMessages) IsParticipant(_ context.Context, conversationID, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	members, ok := f.participants[conversationID]
	if !ok {
		return false, ErrConversationNotFound
	}
	for _, id := range members {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMessages) Persist(_ context.Context, conversationID, senderID int64, content, messageType string) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.persistErr != nil {
		return nil, f.persistErr
	}
	f.nextID++
	msg := &Message{
		ID:             f.nextID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		MessageType:    messageType,
		CreatedAt:      time.Now(),
	}
	f.saved = append(f.saved, msg)
	return msg, nil
}

func (f *fakeMessages) MarkRead(_ context.Context, conversationID, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedRead = append(f.markedRead, conversationID)
	return nil
}

func newTestHub() (*Hub, *fakeMessages) {
	messages := newFakeMessages()
	verifier := &fakeVerifier{tokens: map[string]int64{
		"token-1": 1,
		"token-2": 2,
		"token-9": 9, // valid token, no identity behind it
	}}
	directory := &fakeDirectory{users: map[int64]Identity{
		1: {ID: 1, Name: "alice", Email: "alice@example.com"},
		2: {ID: 2, Name: "bob", Email: "bob@example.com"},
	}}

	logger := newTestLogger()
	return NewHub(verifier, directory, messages, logger), messages
}
