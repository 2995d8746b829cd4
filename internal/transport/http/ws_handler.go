package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/config"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/core"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/proto"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/utils"
)

// WSHandler upgrades HTTP connections and bridges them to the socket core.
type WSHandler struct {
	hub      *core.Hub
	msgLimit int
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, msgLimit: cfg.WSMessageLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer wsConn.Close(websocket.StatusInternalError, "internal error")

	conn := h.hub.Admit(utils.NewConnectionID(), core.TransportWebSocket)
	defer h.hub.Disconnect(conn.ID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, wsConn, conn)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, wsConn, conn)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	wsConn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, wsConn *websocket.Conn, conn *core.Conn) error {
	limiter := newRateLimiter(h.msgLimit)
	limiter.startReset(conn.Done())

	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, wsConn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			if err := wsjson.Write(ctx, wsConn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: "message rate limit exceeded"},
			}); err != nil {
				return err
			}
			continue
		}

		protoErr, err := h.handleInbound(ctx, conn.ID, inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", conn.ID).Msg("failed to handle inbound")
			return err
		}
		if protoErr != nil {
			if err := wsjson.Write(ctx, wsConn, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Error: protoErr,
			}); err != nil {
				return err
			}
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, wsConn *websocket.Conn, conn *core.Conn) error {
	for {
		select {
		case event, ok := <-conn.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, wsConn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("conn_id", conn.ID).Msg("write ws event")
				return err
			}
		case <-conn.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
