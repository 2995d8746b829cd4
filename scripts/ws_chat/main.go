package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/proto"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:3003/ws", "WebSocket address")
	token := flag.String("token", "", "JWT token from /api/auth/login")
	conversation := flag.Int64("conversation", 0, "conversation id to join")
	flag.Parse()

	if *token == "" {
		return errors.New("-token is required (get one from POST /api/auth/login)")
	}
	if *conversation <= 0 {
		return errors.New("-conversation is required")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, data interface{}) {
		payload, err := json.Marshal(data)
		if err != nil {
			cancel()
			log.Printf("marshal %s: %v", msgType, err)
			return
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: payload}); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	send(proto.InboundTypeAuthenticate, proto.AuthenticateData{Token: *token})
	send(proto.InboundTypeJoin, proto.JoinData{ConversationID: *conversation})

	fmt.Printf("Connected to %s, conversation %d\n", *addr, *conversation)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, *conversation, send)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			// Treat expected shutdowns quietly.
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Type == proto.OutboundTypeError {
			if outbound.Error != nil {
				fmt.Printf("error [%s]: %s\n", outbound.Error.Code, outbound.Error.Msg)
			}
			continue
		}

		switch outbound.Event {
		case proto.EventAuthenticated:
			var evt proto.EventAuthenticatedData
			if decodeEventData(outbound.Data, &evt) {
				fmt.Printf("authenticated as %s <%s>\n", evt.User.Name, evt.User.Email)
			}
		case proto.EventJoinedConversation:
			var evt proto.EventJoinedConversationData
			if decodeEventData(outbound.Data, &evt) {
				fmt.Printf("joined conversation %d (%d online)\n", evt.ConversationID, evt.ParticipantCount)
			}
		case proto.EventNewMessage:
			var evt proto.EventNewMessageData
			if decodeEventData(outbound.Data, &evt) {
				fmt.Printf("[%s] %s: %s\n", evt.CreatedAt, evt.SenderName, evt.Content)
			}
		case proto.EventMessageStatus:
			var evt proto.EventMessageStatusData
			if decodeEventData(outbound.Data, &evt) {
				fmt.Printf("message %d %s\n", evt.MessageID, evt.Status)
			}
		case proto.EventUserTyping:
			var evt proto.EventTypingData
			if decodeEventData(outbound.Data, &evt) {
				fmt.Printf("%s is typing...\n", evt.UserName)
			}
		case proto.EventUserStoppedTyping:
			// Quiet; the next message or typing event supersedes it.
		default:
			fmt.Printf("event=%s data=%v\n", outbound.Event, outbound.Data)
		}
	}
}

func decodeEventData(data interface{}, out interface{}) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("marshal outbound data: %v", err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("unmarshal event: %v", err)
		return false
	}
	return true
}

func writeLoop(ctx context.Context, conversation int64, send func(string, interface{})) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}

			send(proto.InboundTypeSendMessage, proto.SendMessageData{
				ConversationID: conversation,
				Content:        text,
				TemporaryID:    "cli-" + utils.NewTempID(),
			})
		}
	}
}
