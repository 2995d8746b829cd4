package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/core"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/proto"
)

// handleInbound dispatches one decoded frame into the hub. A non-nil
// proto.Error is a protocol-level rejection to write back; a non-nil error
// tears the connection down.
func (h *WSHandler) handleInbound(ctx context.Context, connID string, inbound proto.Inbound) (*proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeAuthenticate:
		var data proto.AuthenticateData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		if _, cerr := h.hub.Authenticate(ctx, connID, data.Token); cerr != nil {
			return &proto.Error{Code: cerr.Code, Msg: cerr.Message}, nil
		}
		return nil, nil

	case proto.InboundTypeJoin:
		var data proto.JoinData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		if data.ConversationID <= 0 {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "conversationId is required"}, nil
		}
		if cerr := h.hub.JoinConversation(ctx, connID, data.ConversationID); cerr != nil {
			return &proto.Error{Code: cerr.Code, Msg: cerr.Message}, nil
		}
		return nil, nil

	case proto.InboundTypeLeave:
		h.hub.LeaveConversation(connID)
		return nil, nil

	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		if data.ConversationID <= 0 {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "conversationId is required"}, nil
		}
		messageType := data.MessageType
		if messageType == "" {
			messageType = "text"
		}
		if cerr := h.hub.SendMessage(ctx, connID, data.ConversationID, data.Content, messageType, data.TemporaryID); cerr != nil {
			return &proto.Error{Code: cerr.Code, Msg: cerr.Message}, nil
		}
		return nil, nil

	case proto.InboundTypeStartTyping:
		var data proto.TypingData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		h.hub.StartTyping(connID, data.ConversationID)
		return nil, nil

	case proto.InboundTypeStopTyping:
		var data proto.TypingData
		if err := json.Unmarshal(inbound.Data, &data); err != nil {
			return nil, err
		}
		h.hub.StopTyping(connID, data.ConversationID)
		return nil, nil

	case proto.InboundTypePing:
		h.hub.Pong(connID)
		return nil, nil

	default:
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	ts := event.Timestamp.Format(time.RFC3339)

	switch event.Kind {
	case core.EventAuthenticated:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventAuthenticated,
			Data: proto.EventAuthenticatedData{
				User: proto.UserInfo{
					ID:    event.User.ID,
					Name:  event.User.Name,
					Email: event.User.Email,
				},
				ConnectionID: event.ConnID,
				Timestamp:    ts,
			},
		}
	case core.EventJoinedConversation:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventJoinedConversation,
			Data: proto.EventJoinedConversationData{
				ConversationID:   event.ConversationID,
				ParticipantCount: event.MemberCount,
				Timestamp:        ts,
			},
		}
	case core.EventNewMessage:
		msg := event.Message
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNewMessage,
			Data: proto.EventNewMessageData{
				ID:             msg.ID,
				ConversationID: msg.ConversationID,
				SenderID:       msg.SenderID,
				SenderName:     msg.SenderName,
				Content:        msg.Content,
				MessageType:    msg.MessageType,
				IsRead:         msg.IsRead,
				CreatedAt:      msg.CreatedAt.Format(time.RFC3339),
				TemporaryID:    msg.TemporaryID,
			},
		}
	case core.EventMessageStatus:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventMessageStatus,
			Data: proto.EventMessageStatusData{
				TemporaryID: event.Status.TemporaryID,
				MessageID:   event.Status.MessageID,
				Status:      event.Status.Status,
				Timestamp:   ts,
			},
		}
	case core.EventUserTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserTyping,
			Data: proto.EventTypingData{
				UserID:         event.User.ID,
				UserName:       event.User.Name,
				ConversationID: event.ConversationID,
			},
		}
	case core.EventUserStoppedTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventUserStoppedTyping,
			Data: proto.EventTypingData{
				UserID:         event.User.ID,
				UserName:       event.User.Name,
				ConversationID: event.ConversationID,
			},
		}
	case core.EventPong:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventPong,
			Data:  proto.EventPongData{Message: "pong", Timestamp: ts},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: core.ErrCodeInternal, Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
