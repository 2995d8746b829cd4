package core

import "sync"

// TransportKind tags the delivery mechanism of a connection. Routing never
// branches on it; only the transport layer's send/receive loops differ.
type TransportKind string

const (
	TransportWebSocket TransportKind = "websocket"
	TransportPolling   TransportKind = "polling"
)

const eventBufferSize = 16

// Conn is one live transport session as seen by the core layer.
// Identity and room membership are guarded by the registry lock; the Events
// channel is drained by the transport's write loop.
type Conn struct {
	ID        string
	Transport TransportKind
	Events    chan *Event

	identity       *Identity // nil until authenticated
	conversationID int64     // 0 when in no room

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(id string, kind TransportKind) *Conn {
	return &Conn{
		ID:        id,
		Transport: kind,
		Events:    make(chan *Event, eventBufferSize),
		done:      make(chan struct{}),
	}
}

// Done is closed when the connection is evicted. Transport write loops watch
// it so zombie sessions shut down even if the peer never closes the socket.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// send enqueues an event for the transport write loop without blocking.
// errConnClosed marks the connection stale; errSlowConsumer means the
// outbound buffer is full and the event is dropped.
func (c *Conn) send(ev *Event) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.Events <- ev:
		return nil
	case <-c.done:
		return errConnClosed
	default:
		return errSlowConsumer
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
