package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeAuthenticate = "authenticate"
	InboundTypeJoin         = "joinConversation"
	InboundTypeLeave        = "leaveConversation"
	InboundTypeSendMessage  = "sendMessage"
	InboundTypeStartTyping  = "startTyping"
	InboundTypeStopTyping   = "stopTyping"
	InboundTypePing         = "ping"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventAuthenticated      = "authenticated"
	EventJoinedConversation = "joinedConversation"
	EventNewMessage         = "newMessage"
	EventMessageStatus      = "messageStatus"
	EventUserTyping         = "userTyping"
	EventUserStoppedTyping  = "userStoppedTyping"
	EventPong               = "pong"
)

// AuthenticateData carries the bearer credential.
type AuthenticateData struct {
	Token string `json:"token"`
}

// JoinData requests to join a conversation room.
type JoinData struct {
	ConversationID int64 `json:"conversationId"`
}

// SendMessageData is a chat message from the client. TemporaryID is the
// client-side correlation id echoed back in the messageStatus ack.
type SendMessageData struct {
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
	MessageType    string `json:"messageType,omitempty"`
	TemporaryID    string `json:"temporaryId,omitempty"`
}

// TypingData names the conversation a typing indicator applies to.
type TypingData struct {
	ConversationID int64 `json:"conversationId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// UserInfo is the public identity shape included in events.
type UserInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventAuthenticatedData confirms a successful authenticate.
type EventAuthenticatedData struct {
	User         UserInfo `json:"user"`
	ConnectionID string   `json:"connectionId"`
	Timestamp    string   `json:"timestamp"`
}

// EventJoinedConversationData confirms a successful join, direct to the joiner.
type EventJoinedConversationData struct {
	ConversationID   int64  `json:"conversationId"`
	ParticipantCount int    `json:"participantCount"`
	Timestamp        string `json:"timestamp"`
}

// EventNewMessageData is the broadcast shape of a persisted message.
// Field names follow the REST message records (snake_case) so clients render
// both paths with one model.
type EventNewMessageData struct {
	ID             int64  `json:"id"`
	ConversationID int64  `json:"conversation_id"`
	SenderID       int64  `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	Content        string `json:"content"`
	MessageType    string `json:"message_type"`
	IsRead         bool   `json:"is_read"`
	CreatedAt      string `json:"created_at"`
	TemporaryID    string `json:"temporaryId,omitempty"`
}

// EventMessageStatusData is the direct delivery ack to the sender.
type EventMessageStatusData struct {
	TemporaryID string `json:"temporaryId,omitempty"`
	MessageID   int64  `json:"messageId"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
}

// EventTypingData notifies room members about typing activity.
type EventTypingData struct {
	UserID         int64  `json:"userId"`
	UserName       string `json:"userName,omitempty"`
	ConversationID int64  `json:"conversationId"`
}

// EventPongData answers an application-level ping.
type EventPongData struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
