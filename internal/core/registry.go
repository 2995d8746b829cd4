package core

import "sync"

// Registry tracks live connections, the identities bound to them, and — under
// the same mutex — the room index. A single lock for both structures keeps
// Evict atomic: no observer ever sees a connection present in a room but
// absent from the registry, or the other way around.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Conn
	byUser map[int64]map[string]struct{}
	rooms  *roomIndex
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*Conn),
		byUser: make(map[int64]map[string]struct{}),
		rooms:  newRoomIndex(),
	}
}

// Admit registers a fresh, unauthenticated connection. It never fails.
func (r *Registry) Admit(connID string, kind TransportKind) *Conn {
	c := newConn(connID, kind)

	r.mu.Lock()
	r.conns[connID] = c
	r.mu.Unlock()

	return c
}

// Get returns a live connection by id.
func (r *Registry) Get(connID string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[connID]
	return c, ok
}

// BindUser promotes a connection to authenticated. The credential must have
// been verified before calling; this is only the commit step. Returns
// ErrNotRegistered when the connection disconnected during verification, and
// ErrIdentityBound when it already carries a different identity.
func (r *Registry) BindUser(connID string, ident Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return ErrNotRegistered
	}

	// Rebinding to a different user is not a legal transition: it would leave
	// the old user's index pointing at this connection. Rebinding the same
	// user (client retries authenticate) is harmless.
	if c.identity != nil && c.identity.ID != ident.ID {
		return ErrIdentityBound
	}
	c.identity = &ident

	set, ok := r.byUser[ident.ID]
	if !ok {
		set = make(map[string]struct{})
		r.byUser[ident.ID] = set
	}
	set[connID] = struct{}{}

	return nil
}

// ResolveUser returns the identity bound to a connection, if any.
func (r *Registry) ResolveUser(connID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[connID]
	if !ok || c.identity == nil {
		return Identity{}, false
	}
	return *c.identity, true
}

// ConnectionsOf returns the ids of a user's live connections (multi-device).
func (r *Registry) ConnectionsOf(userID int64) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// Join commits a room membership for the connection after the caller has
// validated conversation access. If the connection disconnected while the
// external check was in flight, nothing is mutated and ErrNotRegistered is
// returned so a dead connection can never resurrect a membership.
func (r *Registry) Join(connID string, conversationID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[connID]
	if !ok {
		return 0, ErrNotRegistered
	}

	count := r.rooms.join(c, conversationID)
	return count, nil
}

// Leave removes the connection from its current room. A connection is in at
// most one room, so this is also the complete leave-all step that Evict runs;
// no-op when the connection is unknown or in no room.
func (r *Registry) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[connID]; ok {
		r.rooms.leave(c)
	}
}

// CurrentConversation returns the room the connection is in, if any.
func (r *Registry) CurrentConversation(connID string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[connID]
	if !ok || c.conversationID == 0 {
		return 0, false
	}
	return c.conversationID, true
}

// MembersOf returns a snapshot of the live connections in a room. The slice
// is safe to iterate without the lock; membership changes during an in-flight
// broadcast are deliberately not reflected.
func (r *Registry) MembersOf(conversationID int64) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.rooms.memberIDs(conversationID)
	members := make([]*Conn, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.conns[id]; ok {
			members = append(members, c)
		}
	}
	return members
}

// Evict removes all state for a connection: registry entry, user index and
// room membership, as one atomic unit. Safe to call more than once.
func (r *Registry) Evict(connID string) {
	r.mu.Lock()

	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return
	}

	r.rooms.leave(c)
	if c.identity != nil {
		if set, ok := r.byUser[c.identity.ID]; ok {
			delete(set, connID)
			if len(set) == 0 {
				delete(r.byUser, c.identity.ID)
			}
		}
	}
	delete(r.conns, connID)
	r.mu.Unlock()

	c.close()
}

// Stats returns the number of live connections and non-empty rooms.
func (r *Registry) Stats() (conns, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns), r.rooms.roomCount()
}
