package core

import (
	"context"
	"testing"
)

func TestAuthenticateTaxonomy(t *testing.T) {
	hub, _ := newTestHub()
	ctx := context.Background()

	conn := hub.Admit("c1", TransportWebSocket)

	if _, cerr := hub.Authenticate(ctx, conn.ID, ""); cerr == nil || cerr.Code != ErrCodeMissingCredential {
		t.Fatalf("expected missing_credential, got %+v", cerr)
	}
	if _, cerr := hub.Authenticate(ctx, conn.ID, "bogus"); cerr == nil || cerr.Code != ErrCodeInvalidCredential {
		t.Fatalf("expected invalid_credential, got %+v", cerr)
	}
	if _, cerr := hub.Authenticate(ctx, conn.ID, "token-9"); cerr == nil || cerr.Code != ErrCodeUnknownUser {
		t.Fatalf("expected unknown_user, got %+v", cerr)
	}

	// All failures leave the connection unauthenticated.
	if _, ok := hub.Registry().ResolveUser(conn.ID); ok {
		t.Fatalf("connection should remain unauthenticated after failed attempts")
	}

	ident, cerr := hub.Authenticate(ctx, conn.ID, "token-1")
	if cerr != nil {
		t.Fatalf("authenticate: %v", cerr)
	}
	if ident.ID != 1 || ident.Name != "alice" {
		t.Fatalf("unexpected identity: %+v", ident)
	}

	ev := mustEvent(t, conn.Events, EventAuthenticated)
	if ev.User == nil || ev.User.ID != 1 || ev.ConnID != conn.ID {
		t.Fatalf("unexpected authenticated event: %+v", ev)
	}
}

func TestReauthenticateAsDifferentUserRejected(t *testing.T) {
	hub, _ := newTestHub()
	ctx := context.Background()

	conn := hub.Admit("c1", TransportWebSocket)

	if _, cerr := hub.Authenticate(ctx, conn.ID, "token-1"); cerr != nil {
		t.Fatalf("authenticate: %v", cerr)
	}
	mustEvent(t, conn.Events, EventAuthenticated)

	// A second authenticate with the same credential is a harmless retry.
	if _, cerr := hub.Authenticate(ctx, conn.ID, "token-1"); cerr != nil {
		t.Fatalf("re-authenticate same user: %v", cerr)
	}
	mustEvent(t, conn.Events, EventAuthenticated)

	// A credential for another user on the same connection is refused and the
	// original identity stays bound.
	if _, cerr := hub.Authenticate(ctx, conn.ID, "token-2"); cerr == nil || cerr.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request, got %+v", cerr)
	}
	ident, ok := hub.Registry().ResolveUser(conn.ID)
	if !ok || ident.ID != 1 {
		t.Fatalf("identity must remain user 1, got %+v ok=%v", ident, ok)
	}

	// Eviction leaves neither user indexing the connection.
	hub.Disconnect(conn.ID)
	if conns := hub.Registry().ConnectionsOf(1); len(conns) != 0 {
		t.Fatalf("user 1 still indexes evicted connection: %v", conns)
	}
	if conns := hub.Registry().ConnectionsOf(2); len(conns) != 0 {
		t.Fatalf("user 2 still indexes evicted connection: %v", conns)
	}
}

func TestUnauthenticatedJoinDeniedAndNothingMutated(t *testing.T) {
	hub, messages := newTestHub()
	ctx := context.Background()

	messages.addParticipant(7, 1)
	conn := hub.Admit("c1", TransportWebSocket)

	cerr := hub.JoinConversation(ctx, conn.ID, 7)
	if cerr == nil || cerr.Code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %+v", cerr)
	}
	if members := hub.Registry().MembersOf(7); len(members) != 0 {
		t.Fatalf("room index must be unchanged, got %d members", len(members))
	}
}

func TestJoinDeniedForNonParticipantDoesNotMutate(t *testing.T) {
	hub, messages := newTestHub()
	ctx := context.Background()

	messages.addParticipant(7, 2) // alice (user 1) is not a participant
	conn := hub.Admit("c1", TransportWebSocket)
	if _, cerr := hub.Authenticate(ctx, conn.ID, "token-1"); cerr != nil {
		t.Fatalf("authenticate: %v", cerr)
	}

	cerr := hub.JoinConversation(ctx, conn.ID, 7)
	if cerr == nil || cerr.Code != ErrCodeAccessDenied {
		t.Fatalf("expected access_denied, got %+v", cerr)
	}
	if members := hub.Registry().MembersOf(7); len(members) != 0 {
		t.Fatalf("denied join must not mutate room state, got %d members", len(members))
	}
	if _, ok := hub.Registry().CurrentConversation(conn.ID); ok {
		t.Fatalf("denied join must not set current conversation")
	}
}

func TestJoinUnknownConversationIsNotFound(t *testing.T) {
	hub, _ := newTestHub()
	ctx := context.Background()

	conn := hub.Admit("c1", TransportWebSocket)
	if _, cerr := hub.Authenticate(ctx, conn.ID, "token-1"); cerr != nil {
		t.Fatalf("authenticate: %v", cerr)
	}

	cerr := hub.JoinConversation(ctx, conn.ID, 404)
	if cerr == nil || cerr.Code != ErrCodeNotFound {
		t.Fatalf("expected not_found, got %+v", cerr)
	}
}

// The scripted two-user scenario: join counts, broadcast exclusion, the direct
// ack, and eviction pruning the room.
func TestTwoUserConversationScenario(t *testing.T) {
	hub, messages := newTestHub()
	ctx := context.Background()

	messages.addParticipant(7, 1)
	messages.addParticipant(7, 2)

	connA := hub.Admit("conn-a", TransportWebSocket)
	connB := hub.Admit("conn-b", TransportWebSocket)

	if _, cerr := hub.Authenticate(ctx, connA.ID, "token-1"); cerr != nil {
		t.Fatalf("authenticate A: %v", cerr)
	}
	if _, cerr := hub.Authenticate(ctx, connB.ID, "token-2"); cerr != nil {
		t.Fatalf("authenticate B: %v", cerr)
	}

	if cerr := hub.JoinConversation(ctx, connA.ID, 7); cerr != nil {
		t.Fatalf("join A: %v", cerr)
	}
	joinedA := mustEvent(t, connA.Events, EventJoinedConversation)
	if joinedA.ConversationID != 7 || joinedA.MemberCount != 1 {
		t.Fatalf("unexpected join event for A: %+v", joinedA)
	}

	if cerr := hub.JoinConversation(ctx, connB.ID, 7); cerr != nil {
		t.Fatalf("join B: %v", cerr)
	}
	joinedB := mustEvent(t, connB.Events, EventJoinedConversation)
	if joinedB.MemberCount != 2 {
		t.Fatalf("expected member count 2 for B, got %+v", joinedB)
	}

	// joinedConversation is direct-only: A must not see B's join.
	mustNoEvent(t, connA.Events, EventJoinedConversation)

	if cerr := hub.SendMessage(ctx, connB.ID, 7, "hi", "text", "tmp-42"); cerr != nil {
		t.Fatalf("send message: %v", cerr)
	}

	msgEv := mustEvent(t, connA.Events, EventNewMessage)
	if msgEv.Message == nil || msgEv.Message.Content != "hi" || msgEv.Message.SenderID != 2 {
		t.Fatalf("unexpected message event: %+v", msgEv)
	}

	ack := mustEvent(t, connB.Events, EventMessageStatus)
	if ack.Status == nil || ack.Status.Status != "sent" || ack.Status.TemporaryID != "tmp-42" {
		t.Fatalf("unexpected ack: %+v", ack)
	}
	// The sender is excluded from its own broadcast copy.
	mustNoEvent(t, connB.Events, EventNewMessage)

	hub.Disconnect(connA.ID)

	members := hub.Registry().MembersOf(7)
	if len(members) != 1 || members[0].ID != connB.ID {
		t.Fatalf("expected only B to remain in room, got %d members", len(members))
	}
}

func TestSendMessageValidation(t *testing.T) {
	hub, messages := newTestHub()
	ctx := context.Background()

	messages.addParticipant(7, 1)

	conn := hub.Admit("c1", TransportWebSocket)

	if cerr := hub.SendMessage(ctx, conn.ID, 7, "hi", "text", ""); cerr == nil || cerr.Code != ErrCodeUnauthorized {
		t.Fatalf("expected unauthorized, got %+v", cerr)
	}

	if _, cerr := hub.Authenticate(ctx, conn.ID, "token-1"); cerr != nil {
		t.Fatalf("authenticate: %v", cerr)
	}

	if cerr := hub.SendMessage(ctx, conn.ID, 7, "   ", "text", ""); cerr == nil || cerr.Code != ErrCodeBadRequest {
		t.Fatalf("expected bad_request for blank content, got %+v", cerr)
	}

	// user 2 owns conversation 8; alice may not write there
	messages.addParticipant(8, 2)
	if cerr := hub.SendMessage(ctx, conn.ID, 8, "hi", "text", ""); cerr == nil || cerr.Code != ErrCodeAccessDenied {
		t.Fatalf("expected access_denied, got %+v", cerr)
	}
}

func TestTypingRequiresCurrentMembership(t *testing.T) {
	hub, messages := newTestHub()
	ctx := context.Background()

	messages.addParticipant(7, 1)
	messages.addParticipant(7, 2)

	connA := hub.Admit("conn-a", TransportWebSocket)
	connB := hub.Admit("conn-b", TransportWebSocket)
	if _, cerr := hub.Authenticate(ctx, connA.ID, "token-1"); cerr != nil {
		t.Fatalf("authenticate A: %v", cerr)
	}
	if _, cerr := hub.Authenticate(ctx, connB.ID, "token-2"); cerr != nil {
		t.Fatalf("authenticate B: %v", cerr)
	}
	if cerr := hub.JoinConversation(ctx, connB.ID, 7); cerr != nil {
		t.Fatalf("join B: %v", cerr)
	}

	// A is not joined; its typing signal is silently ignored.
	hub.StartTyping(connA.ID, 7)
	mustNoEvent(t, connB.Events, EventUserTyping)

	if cerr := hub.JoinConversation(ctx, connA.ID, 7); cerr != nil {
		t.Fatalf("join A: %v", cerr)
	}

	hub.StartTyping(connA.ID, 7)
	typing := mustEvent(t, connB.Events, EventUserTyping)
	if typing.User == nil || typing.User.ID != 1 || typing.User.Name != "alice" {
		t.Fatalf("unexpected typing event: %+v", typing)
	}
	// The typist does not receive its own indicator.
	mustNoEvent(t, connA.Events, EventUserTyping)

	hub.StopTyping(connA.ID, 7)
	mustEvent(t, connB.Events, EventUserStoppedTyping)
}

func TestJoinMarksMessagesRead(t *testing.T) {
	hub, messages := newTestHub()
	ctx := context.Background()

	messages.addParticipant(7, 1)
	conn := hub.Admit("c1", TransportWebSocket)
	if _, cerr := hub.Authenticate(ctx, conn.ID, "token-1"); cerr != nil {
		t.Fatalf("authenticate: %v", cerr)
	}
	if cerr := hub.JoinConversation(ctx, conn.ID, 7); cerr != nil {
		t.Fatalf("join: %v", cerr)
	}

	messages.mu.Lock()
	defer messages.mu.Unlock()
	if len(messages.markedRead) != 1 || messages.markedRead[0] != 7 {
		t.Fatalf("expected mark-read for conversation 7, got %v", messages.markedRead)
	}
}

func TestRESTBroadcastIncludesEveryMember(t *testing.T) {
	hub, messages := newTestHub()
	ctx := context.Background()

	messages.addParticipant(7, 1)
	messages.addParticipant(7, 2)

	connA := hub.Admit("conn-a", TransportWebSocket)
	connB := hub.Admit("conn-b", TransportWebSocket)
	if _, cerr := hub.Authenticate(ctx, connA.ID, "token-1"); cerr != nil {
		t.Fatalf("authenticate A: %v", cerr)
	}
	if _, cerr := hub.Authenticate(ctx, connB.ID, "token-2"); cerr != nil {
		t.Fatalf("authenticate B: %v", cerr)
	}
	if cerr := hub.JoinConversation(ctx, connA.ID, 7); cerr != nil {
		t.Fatalf("join A: %v", cerr)
	}
	if cerr := hub.JoinConversation(ctx, connB.ID, 7); cerr != nil {
		t.Fatalf("join B: %v", cerr)
	}

	delivered := hub.BroadcastMessage(7, &Message{ID: 1, ConversationID: 7, SenderID: 1, Content: "via rest"})
	if delivered != 2 {
		t.Fatalf("expected delivery to both members, got %d", delivered)
	}
	mustEvent(t, connA.Events, EventNewMessage)
	mustEvent(t, connB.Events, EventNewMessage)
}
