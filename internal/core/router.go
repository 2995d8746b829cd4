package core

import (
	"errors"

	"github.com/rs/zerolog"
)

// Router fans events out to room members and delivers direct events,
// independent of each connection's transport kind.
type Router struct {
	reg *Registry
	log *zerolog.Logger
}

// NewRouter creates a broadcast router over the registry.
func NewRouter(reg *Registry, logger *zerolog.Logger) *Router {
	return &Router{reg: reg, log: logger}
}

// BroadcastToRoom delivers the event to every member of the conversation's
// room snapshot except excludeConnID. Delivery to a stale connection is a
// soft failure: the member is skipped, evicted, and fan-out continues.
// Returns the number of successful deliveries.
func (rt *Router) BroadcastToRoom(conversationID int64, ev *Event, excludeConnID string) int {
	members := rt.reg.MembersOf(conversationID)

	delivered := 0
	for _, c := range members {
		if c.ID == excludeConnID {
			continue
		}
		if err := c.send(ev); err != nil {
			if errors.Is(err, errConnClosed) {
				rt.log.Debug().
					Str("conn_id", c.ID).
					Int64("conversation_id", conversationID).
					Msg("stale connection during broadcast, evicting")
				rt.reg.Evict(c.ID)
			} else {
				rt.log.Warn().
					Str("conn_id", c.ID).
					Int64("conversation_id", conversationID).
					Msg("dropping event for slow consumer")
			}
			continue
		}
		delivered++
	}

	return delivered
}

// SendDirect delivers an event to a single connection. Returns false when the
// connection no longer exists or is stale; the caller decides whether that is
// notable.
func (rt *Router) SendDirect(connID string, ev *Event) bool {
	c, ok := rt.reg.Get(connID)
	if !ok {
		return false
	}
	if err := c.send(ev); err != nil {
		if errors.Is(err, errConnClosed) {
			rt.reg.Evict(connID)
		}
		return false
	}
	return true
}
