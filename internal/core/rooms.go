package core

// roomIndex maps conversation ids to member connections. It holds no lock of
// its own: every method must be called with the owning Registry's mutex held,
// which is what makes evict-plus-leave atomic to outside observers.
type roomIndex struct {
	members map[int64]map[string]struct{}
}

func newRoomIndex() *roomIndex {
	return &roomIndex{members: make(map[int64]map[string]struct{})}
}

// join moves the connection into the conversation's room, removing it from
// its previous room first so a connection is never in two rooms at once.
// Returns the member count of the new room.
func (ri *roomIndex) join(c *Conn, conversationID int64) int {
	if c.conversationID != 0 {
		ri.remove(c)
	}

	set, ok := ri.members[conversationID]
	if !ok {
		set = make(map[string]struct{})
		ri.members[conversationID] = set
	}
	set[c.ID] = struct{}{}
	c.conversationID = conversationID

	return len(set)
}

// leave removes the connection from its current room. Safe to call when the
// connection is in no room.
func (ri *roomIndex) leave(c *Conn) {
	if c.conversationID == 0 {
		return
	}
	ri.remove(c)
}

func (ri *roomIndex) remove(c *Conn) {
	if set, ok := ri.members[c.conversationID]; ok {
		delete(set, c.ID)
		if len(set) == 0 {
			delete(ri.members, c.conversationID)
		}
	}
	c.conversationID = 0
}

// memberIDs returns the connection ids in a room; empty for unknown rooms.
func (ri *roomIndex) memberIDs(conversationID int64) []string {
	set := ri.members[conversationID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

func (ri *roomIndex) roomCount() int {
	return len(ri.members)
}
