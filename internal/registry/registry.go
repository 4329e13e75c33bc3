// Package registry owns the live connection table and the room
// directory. Connections are created at transport handshake and
// destroyed on disconnect; rooms are created lazily on first join and
// persist as valid, memberless entries once empty.
package registry

import (
	"strings"
	"sync"

	"github.com/sethkontny/aaventure/internal/domain"
)

// Connection is the identity snapshot returned by Lookup. A connection
// belongs to at most one room at any instant.
type Connection struct {
	ID       string
	UserID   string
	ChatName string
	IsAdmin  bool
	RoomID   string
}

// Member is one entry of a room's member set, in join order.
type Member struct {
	ConnID   string
	UserID   string
	ChatName string
}

// MembershipListener is notified after every committed membership
// change, exactly once per change. Calls for one room run under that
// room's lock, so they arrive in mutation order and the snapshot is
// safe to use without further synchronization. Implementations must
// not call back into the registry for the same room.
type MembershipListener interface {
	MemberJoined(roomID string, member Member, snapshot []Member)
	MemberLeft(roomID string, member Member, snapshot []Member)
}

type conn struct {
	userID   string
	chatName string
	isAdmin  bool
	roomID   string
}

// Registry maps live connections to their identity and current room.
// The registry mutex guards the connection table and the room index;
// each room carries its own lock so unrelated rooms stay independent.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*conn
	rooms    map[string]*room
	listener MembershipListener
}

func New() *Registry {
	return &Registry{
		conns: make(map[string]*conn),
		rooms: make(map[string]*room),
	}
}

// SetListener installs the membership listener. Call before serving
// traffic; changes are not synchronized against in-flight mutations.
func (r *Registry) SetListener(l MembershipListener) {
	r.listener = l
}

// Register creates a connection with no room. The chat name must be
// non-blank or the registration fails with ErrInvalidIdentity.
func (r *Registry) Register(connID, userID, chatName string, isAdmin bool) error {
	chatName = strings.TrimSpace(chatName)
	if chatName == "" {
		return domain.ErrInvalidIdentity
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = &conn{userID: userID, chatName: chatName, isAdmin: isAdmin}
	return nil
}

// Join moves the connection into roomID, implicitly leaving its
// previous room first. Joining the current room again is a no-op.
func (r *Registry) Join(connID, roomID string) error {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return domain.ErrNotRegistered
	}
	if c.roomID == roomID {
		r.mu.Unlock()
		return nil
	}

	oldID := c.roomID
	c.roomID = roomID

	var oldRoom *room
	if oldID != "" {
		oldRoom = r.rooms[oldID]
	}
	newRoom := r.roomLocked(roomID)
	member := Member{ConnID: connID, UserID: c.userID, ChatName: c.chatName}
	r.mu.Unlock()

	if oldRoom != nil {
		oldRoom.remove(connID, func(left Member, snapshot []Member) {
			r.notifyLeft(oldID, left, snapshot)
		})
	}

	newRoom.add(member, func(joined Member, snapshot []Member) {
		r.notifyJoined(roomID, joined, snapshot)
	})
	return nil
}

// Leave removes the connection from its current room. Calling it
// without a current room, or twice in a row, is a no-op.
func (r *Registry) Leave(connID string) {
	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok || c.roomID == "" {
		r.mu.Unlock()
		return
	}
	roomID := c.roomID
	c.roomID = ""
	rm := r.rooms[roomID]
	r.mu.Unlock()

	if rm == nil {
		return
	}
	rm.remove(connID, func(left Member, snapshot []Member) {
		r.notifyLeft(roomID, left, snapshot)
	})
}

// Unregister leaves the current room and deletes the connection.
// Idempotent under duplicate disconnect notifications: the second call
// finds nothing and does nothing.
func (r *Registry) Unregister(connID string) {
	r.Leave(connID)

	r.mu.Lock()
	delete(r.conns, connID)
	r.mu.Unlock()
}

// Lookup returns the connection's identity snapshot.
func (r *Registry) Lookup(connID string) (Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[connID]
	if !ok {
		return Connection{}, domain.ErrNotFound
	}
	return Connection{
		ID:       connID,
		UserID:   c.userID,
		ChatName: c.chatName,
		IsAdmin:  c.isAdmin,
		RoomID:   c.roomID,
	}, nil
}

// SetChatName overrides the registered chat name, keeping the member
// record of the current room in sync.
func (r *Registry) SetChatName(connID, chatName string) error {
	chatName = strings.TrimSpace(chatName)
	if chatName == "" {
		return domain.ErrInvalidIdentity
	}

	r.mu.Lock()
	c, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return domain.ErrNotRegistered
	}
	c.chatName = chatName
	var rm *room
	if c.roomID != "" {
		rm = r.rooms[c.roomID]
	}
	r.mu.Unlock()

	if rm != nil {
		rm.rename(connID, chatName)
	}
	return nil
}

// MembersOf returns a stable snapshot of the room's member set in join
// order, usable for fanout without holding any lock.
func (r *Registry) MembersOf(roomID string) []Member {
	r.mu.RLock()
	rm := r.rooms[roomID]
	r.mu.RUnlock()
	if rm == nil {
		return nil
	}
	return rm.snapshot()
}

// Count returns the room's live member count.
func (r *Registry) Count(roomID string) int {
	return len(r.MembersOf(roomID))
}

// SameRoom reports the room both connections currently share, if any.
func (r *Registry) SameRoom(a, b string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ca, ok := r.conns[a]
	if !ok || ca.roomID == "" {
		return "", false
	}
	cb, ok := r.conns[b]
	if !ok || cb.roomID != ca.roomID {
		return "", false
	}
	return ca.roomID, true
}

// AllConnIDs returns every registered connection, in or out of a room.
func (r *Registry) AllConnIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// AdminConnIDs returns every registered connection whose admin flag is
// set, regardless of room.
func (r *Registry) AdminConnIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, c := range r.conns {
		if c.isAdmin {
			ids = append(ids, id)
		}
	}
	return ids
}

// roomLocked returns the room, creating it lazily. Caller holds r.mu.
func (r *Registry) roomLocked(roomID string) *room {
	rm, ok := r.rooms[roomID]
	if !ok {
		rm = newRoom()
		r.rooms[roomID] = rm
	}
	return rm
}

func (r *Registry) notifyJoined(roomID string, m Member, snapshot []Member) {
	if r.listener != nil {
		r.listener.MemberJoined(roomID, m, snapshot)
	}
}

func (r *Registry) notifyLeft(roomID string, m Member, snapshot []Member) {
	if r.listener != nil {
		r.listener.MemberLeft(roomID, m, snapshot)
	}
}
