package http

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"testing"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/core"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/proto"
)

// Full two-user flow over real sockets: register via REST, authenticate,
// join, exchange a message, observe the ack on the sender side only.
func TestWebSocketChatScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com", "password1")
	bob := env.register(t, "Bob", "bob@example.com", "password2")
	convID := env.createConversation(t, alice.Token, bob.User.ID)

	aliceConn := env.dialWS(t, ctx)
	bobConn := env.dialWS(t, ctx)

	sendFrame(t, ctx, aliceConn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: alice.Token})
	var aliceAuth proto.EventAuthenticatedData
	expectEvent(t, ctx, aliceConn, proto.EventAuthenticated, &aliceAuth)
	if aliceAuth.User.ID != alice.User.ID || aliceAuth.ConnectionID == "" {
		t.Fatalf("unexpected authenticated payload: %+v", aliceAuth)
	}

	sendFrame(t, ctx, bobConn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: bob.Token})
	expectEvent(t, ctx, bobConn, proto.EventAuthenticated, nil)

	sendFrame(t, ctx, aliceConn, proto.InboundTypeJoin, proto.JoinData{ConversationID: convID})
	var aliceJoin proto.EventJoinedConversationData
	expectEvent(t, ctx, aliceConn, proto.EventJoinedConversation, &aliceJoin)
	if aliceJoin.ConversationID != convID || aliceJoin.ParticipantCount != 1 {
		t.Fatalf("unexpected join payload: %+v", aliceJoin)
	}

	sendFrame(t, ctx, bobConn, proto.InboundTypeJoin, proto.JoinData{ConversationID: convID})
	var bobJoin proto.EventJoinedConversationData
	expectEvent(t, ctx, bobConn, proto.EventJoinedConversation, &bobJoin)
	if bobJoin.ParticipantCount != 2 {
		t.Fatalf("expected 2 participants, got %d", bobJoin.ParticipantCount)
	}

	// Alice sends; Bob gets the message, Alice gets only the ack.
	sendFrame(t, ctx, aliceConn, proto.InboundTypeSendMessage, proto.SendMessageData{
		ConversationID: convID,
		Content:        "hi bob",
		TemporaryID:    "tmp-42",
	})

	var msg proto.EventNewMessageData
	expectEvent(t, ctx, bobConn, proto.EventNewMessage, &msg)
	if msg.Content != "hi bob" || msg.SenderID != alice.User.ID || msg.SenderName != "Alice" {
		t.Fatalf("unexpected message payload: %+v", msg)
	}
	if msg.ConversationID != convID || msg.TemporaryID != "tmp-42" {
		t.Fatalf("unexpected message correlation: %+v", msg)
	}

	var ack proto.EventMessageStatusData
	expectEvent(t, ctx, aliceConn, proto.EventMessageStatus, &ack)
	if ack.TemporaryID != "tmp-42" || ack.MessageID != msg.ID || ack.Status != "sent" {
		t.Fatalf("unexpected ack payload: %+v", ack)
	}

	// Typing indicator reaches the other member only.
	sendFrame(t, ctx, bobConn, proto.InboundTypeStartTyping, proto.TypingData{ConversationID: convID})
	var typing proto.EventTypingData
	expectEvent(t, ctx, aliceConn, proto.EventUserTyping, &typing)
	if typing.UserID != bob.User.ID || typing.ConversationID != convID {
		t.Fatalf("unexpected typing payload: %+v", typing)
	}
}

func TestWebSocketJoinRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn := env.dialWS(t, ctx)
	sendFrame(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{ConversationID: 1})
	expectError(t, ctx, conn, core.ErrCodeUnauthorized)
}

func TestWebSocketAuthenticateRejectsBadToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn := env.dialWS(t, ctx)

	sendFrame(t, ctx, conn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: ""})
	expectError(t, ctx, conn, core.ErrCodeMissingCredential)

	sendFrame(t, ctx, conn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: "not-a-jwt"})
	expectError(t, ctx, conn, core.ErrCodeInvalidCredential)
}

func TestWebSocketJoinDeniedForNonParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com", "password1")
	bob := env.register(t, "Bob", "bob@example.com", "password2")
	mallory := env.register(t, "Mallory", "mallory@example.com", "password3")
	convID := env.createConversation(t, alice.Token, bob.User.ID)

	conn := env.dialWS(t, ctx)
	sendFrame(t, ctx, conn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: mallory.Token})
	expectEvent(t, ctx, conn, proto.EventAuthenticated, nil)

	sendFrame(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{ConversationID: convID})
	expectError(t, ctx, conn, core.ErrCodeAccessDenied)

	sendFrame(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{ConversationID: 9999})
	expectError(t, ctx, conn, core.ErrCodeNotFound)
}

func TestWebSocketPingPong(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn := env.dialWS(t, ctx)
	sendFrame(t, ctx, conn, proto.InboundTypePing, struct{}{})

	var pong proto.EventPongData
	expectEvent(t, ctx, conn, proto.EventPong, &pong)
	if pong.Message != "pong" {
		t.Fatalf("unexpected pong payload: %+v", pong)
	}
}

func TestWebSocketUnknownTypeRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	conn := env.dialWS(t, ctx)
	sendFrame(t, ctx, conn, "teleport", struct{}{})
	expectError(t, ctx, conn, core.ErrCodeBadRequest)
}

// REST sends reach live sockets of every participant currently in the room.
func TestRESTSendReachesWebSocketMembers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com", "password1")
	bob := env.register(t, "Bob", "bob@example.com", "password2")
	convID := env.createConversation(t, alice.Token, bob.User.ID)

	bobConn := env.dialWS(t, ctx)
	sendFrame(t, ctx, bobConn, proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: bob.Token})
	expectEvent(t, ctx, bobConn, proto.EventAuthenticated, nil)
	sendFrame(t, ctx, bobConn, proto.InboundTypeJoin, proto.JoinData{ConversationID: convID})
	expectEvent(t, ctx, bobConn, proto.EventJoinedConversation, nil)

	var sent MessageResponse
	status := env.doJSON(t, stdhttp.MethodPost, fmt.Sprintf("/api/messages/conversations/%d/messages", convID), alice.Token, SendMessageRequest{
		Content: "from rest",
	}, &sent)
	if status != stdhttp.StatusCreated {
		t.Fatalf("rest send: status %d", status)
	}

	var msg proto.EventNewMessageData
	expectEvent(t, ctx, bobConn, proto.EventNewMessage, &msg)
	if msg.ID != sent.ID || msg.Content != "from rest" {
		t.Fatalf("unexpected pushed message: %+v", msg)
	}
}
