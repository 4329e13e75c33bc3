package registry

import "sync"

// room is one keyed entry of the directory: a member map plus the join
// order. Mutated only through Registry operations.
type room struct {
	mu      sync.Mutex
	members map[string]Member
	order   []string
}

func newRoom() *room {
	return &room{members: make(map[string]Member)}
}

// add inserts the member and runs notify with the post-mutation
// snapshot while still holding the room lock, so notifications for one
// room are delivered in mutation order. Re-adding an existing member
// keeps its original join position.
func (rm *room) add(m Member, notify func(Member, []Member)) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, ok := rm.members[m.ConnID]; !ok {
		rm.order = append(rm.order, m.ConnID)
	}
	rm.members[m.ConnID] = m
	if notify != nil {
		notify(m, rm.snapshotLocked())
	}
}

// remove deletes the member and runs notify under the room lock, same
// ordering contract as add. Returns false when the member was not
// present; notify does not run in that case.
func (rm *room) remove(connID string, notify func(Member, []Member)) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	m, ok := rm.members[connID]
	if !ok {
		return false
	}
	delete(rm.members, connID)
	for i, id := range rm.order {
		if id == connID {
			rm.order = append(rm.order[:i], rm.order[i+1:]...)
			break
		}
	}
	if notify != nil {
		notify(m, rm.snapshotLocked())
	}
	return true
}

func (rm *room) rename(connID, chatName string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if m, ok := rm.members[connID]; ok {
		m.ChatName = chatName
		rm.members[connID] = m
	}
}

func (rm *room) snapshot() []Member {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.snapshotLocked()
}

func (rm *room) snapshotLocked() []Member {
	out := make([]Member, 0, len(rm.order))
	for _, id := range rm.order {
		out = append(out, rm.members[id])
	}
	return out
}
