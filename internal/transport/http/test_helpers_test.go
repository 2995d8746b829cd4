package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/auth"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/config"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/core"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/proto"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store/sqlite"
)

// testDirectory adapts the store to the hub's user directory contract.
type testDirectory struct {
	st store.UserStore
}

func (d *testDirectory) FindByID(ctx context.Context, userID int64) (core.Identity, error) {
	u, err := d.st.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Identity{}, core.ErrUserNotFound
		}
		return core.Identity{}, err
	}
	return core.Identity{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}

// testMessages adapts the store to the hub's message store contract.
type testMessages struct {
	st store.Store
}

func (m *testMessages) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	ok, err := m.st.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, core.ErrConversationNotFound
		}
		return false, err
	}
	return ok, nil
}

func (m *testMessages) Persist(ctx context.Context, conversationID, senderID int64, content, messageType string) (*core.Message, error) {
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

func (m *testMessages) MarkRead(ctx context.Context, conversationID, readerID int64) error {
	return m.st.MarkMessagesRead(ctx, conversationID, readerID)
}

type testEnv struct {
	ts    *httptest.Server
	store store.Store
	hub   *core.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := zerolog.Nop()
	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "alo-test",
		Audience: "alo-test-clients",
		TTL:      time.Hour,
	})

	hub := core.NewHub(authService, &testDirectory{st: st}, &testMessages{st: st}, &logger)

	cfg := config.Default()
	server := NewServer(hub, st, authService, cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, hub: hub}
}

// doJSON performs a JSON request against the test server and decodes the
// response body into out when it is non-nil.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body, out interface{}) int {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := stdhttp.NewRequest(method, e.ts.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := stdhttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response of %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// register creates a user through the REST API and returns the auth response.
func (e *testEnv) register(t *testing.T, name, email, password string) AuthResponse {
	t.Helper()

	var resp AuthResponse
	status := e.doJSON(t, stdhttp.MethodPost, "/api/auth/register", "", RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
	}, &resp)
	if status != stdhttp.StatusCreated {
		t.Fatalf("register %s: status %d", email, status)
	}
	return resp
}

// createConversation opens a direct conversation between two users.
func (e *testEnv) createConversation(t *testing.T, token string, otherUserID int64) int64 {
	t.Helper()

	var resp ConversationResponse
	status := e.doJSON(t, stdhttp.MethodPost, "/api/messages/conversations", token, CreateConversationRequest{
		OtherUserID: otherUserID,
	}, &resp)
	if status != stdhttp.StatusOK {
		t.Fatalf("create conversation: status %d", status)
	}
	return resp.ID
}

// dialWS opens a WebSocket connection to the test server.
func (e *testEnv) dialWS(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

// outboundFrame mirrors proto.Outbound with the payload kept raw so tests can
// decode it into the concrete event shape.
type outboundFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func sendFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) outboundFrame {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var frame outboundFrame
	if err := wsjson.Read(readCtx, conn, &frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

// expectEvent reads one frame and requires it to be the named event.
func expectEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string, out interface{}) {
	t.Helper()

	frame := readFrame(t, ctx, conn)
	if frame.Type != proto.OutboundTypeEvent || frame.Event != event {
		t.Fatalf("expected event %q, got type=%q event=%q error=%+v", event, frame.Type, frame.Event, frame.Error)
	}
	if out != nil {
		if err := json.Unmarshal(frame.Data, out); err != nil {
			t.Fatalf("decode %s payload: %v", event, err)
		}
	}
}

// expectError reads one frame and requires it to be an error with the code.
func expectError(t *testing.T, ctx context.Context, conn *websocket.Conn, code string) {
	t.Helper()

	frame := readFrame(t, ctx, conn)
	if frame.Type != proto.OutboundTypeError || frame.Error == nil {
		t.Fatalf("expected error frame, got type=%q event=%q", frame.Type, frame.Event)
	}
	if frame.Error.Code != code {
		t.Fatalf("expected error code %q, got %q (%s)", code, frame.Error.Code, frame.Error.Msg)
	}
}
