package registry

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sethkontny/aaventure/internal/domain"
)

type membershipEvent struct {
	kind     string // "joined" or "left"
	roomID   string
	member   Member
	snapshot []Member
}

type recordingListener struct {
	mu     sync.Mutex
	events []membershipEvent
}

func (l *recordingListener) MemberJoined(roomID string, m Member, snapshot []Member) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, membershipEvent{kind: "joined", roomID: roomID, member: m, snapshot: snapshot})
}

func (l *recordingListener) MemberLeft(roomID string, m Member, snapshot []Member) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, membershipEvent{kind: "left", roomID: roomID, member: m, snapshot: snapshot})
}

func (l *recordingListener) all() []membershipEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]membershipEvent(nil), l.events...)
}

func (l *recordingListener) count(kind, roomID string) int {
	n := 0
	for _, e := range l.all() {
		if e.kind == kind && e.roomID == roomID {
			n++
		}
	}
	return n
}

func newTestRegistry(t *testing.T) (*Registry, *recordingListener) {
	t.Helper()
	reg := New()
	listener := &recordingListener{}
	reg.SetListener(listener)
	return reg, listener
}

func TestRegisterRejectsBlankChatName(t *testing.T) {
	reg, _ := newTestRegistry(t)

	for _, name := range []string{"", "   ", "\t"} {
		if err := reg.Register("c1", "u1", name, false); !errors.Is(err, domain.ErrInvalidIdentity) {
			t.Fatalf("chat name %q: expected ErrInvalidIdentity, got %v", name, err)
		}
	}
	if _, err := reg.Lookup("c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("rejected registration must not create a connection")
	}
}

func TestJoinUnknownConnection(t *testing.T) {
	reg, _ := newTestRegistry(t)

	if err := reg.Join("ghost", "aa"); !errors.Is(err, domain.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestJoinAddsMemberAndNotifiesOnce(t *testing.T) {
	reg, listener := newTestRegistry(t)

	if err := reg.Register("c1", "u1", "Bob", false); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Join("c1", "aa"); err != nil {
		t.Fatalf("join: %v", err)
	}

	conn, err := reg.Lookup("c1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if conn.RoomID != "aa" {
		t.Fatalf("expected room aa, got %q", conn.RoomID)
	}

	members := reg.MembersOf("aa")
	if len(members) != 1 || members[0].ChatName != "Bob" {
		t.Fatalf("unexpected member snapshot: %+v", members)
	}
	if got := listener.count("joined", "aa"); got != 1 {
		t.Fatalf("expected exactly 1 joined notification, got %d", got)
	}
}

func TestJoinSecondRoomImplicitlyLeavesFirst(t *testing.T) {
	reg, listener := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Join("c1", "aa")
	if err := reg.Join("c1", "bb"); err != nil {
		t.Fatalf("join bb: %v", err)
	}

	if n := reg.Count("aa"); n != 0 {
		t.Fatalf("room aa should be empty, has %d", n)
	}
	if n := reg.Count("bb"); n != 1 {
		t.Fatalf("room bb should have 1 member, has %d", n)
	}
	conn, _ := reg.Lookup("c1")
	if conn.RoomID != "bb" {
		t.Fatalf("expected current room bb, got %q", conn.RoomID)
	}
	if got := listener.count("left", "aa"); got != 1 {
		t.Fatalf("expected 1 left notification for aa, got %d", got)
	}
	if got := listener.count("joined", "bb"); got != 1 {
		t.Fatalf("expected 1 joined notification for bb, got %d", got)
	}
}

func TestJoinSameRoomIsIdempotent(t *testing.T) {
	reg, listener := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Join("c1", "aa")
	if err := reg.Join("c1", "aa"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	if n := reg.Count("aa"); n != 1 {
		t.Fatalf("member double-counted: %d", n)
	}
	if got := listener.count("joined", "aa"); got != 1 {
		t.Fatalf("idempotent rejoin must not renotify, got %d joined", got)
	}
}

func TestLeaveTwiceIsNoop(t *testing.T) {
	reg, listener := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Join("c1", "aa")
	reg.Leave("c1")
	reg.Leave("c1")

	if n := reg.Count("aa"); n != 0 {
		t.Fatalf("expected empty room, got %d", n)
	}
	if got := listener.count("left", "aa"); got != 1 {
		t.Fatalf("expected exactly 1 left notification, got %d", got)
	}
}

func TestLeaveWithoutRoomIsNoop(t *testing.T) {
	reg, listener := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Leave("c1")

	if got := len(listener.all()); got != 0 {
		t.Fatalf("expected no notifications, got %d", got)
	}
}

func TestUnregisterTwiceEmitsOneLeft(t *testing.T) {
	reg, listener := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Join("c1", "aa")
	reg.Unregister("c1")
	reg.Unregister("c1")

	if got := listener.count("left", "aa"); got != 1 {
		t.Fatalf("duplicate disconnect must emit exactly 1 left, got %d", got)
	}
	if _, err := reg.Lookup("c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("connection should be gone after unregister")
	}
}

func TestEmptyRoomPersistsAfterLastLeave(t *testing.T) {
	reg, _ := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Join("c1", "aa")
	reg.Leave("c1")

	// Rejoining the now-empty room must still work.
	if err := reg.Join("c1", "aa"); err != nil {
		t.Fatalf("rejoin empty room: %v", err)
	}
	if n := reg.Count("aa"); n != 1 {
		t.Fatalf("expected 1 member after rejoin, got %d", n)
	}
}

func TestSnapshotPreservesJoinOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)

	for _, c := range []struct{ id, name string }{
		{"c1", "Bob"}, {"c2", "Alice"}, {"c3", "Eve"},
	} {
		reg.Register(c.id, "u-"+c.id, c.name, false)
		reg.Join(c.id, "aa")
	}

	members := reg.MembersOf("aa")
	want := []string{"Bob", "Alice", "Eve"}
	if len(members) != len(want) {
		t.Fatalf("expected %d members, got %d", len(want), len(members))
	}
	for i, name := range want {
		if members[i].ChatName != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, members[i].ChatName)
		}
	}
}

func TestSameRoom(t *testing.T) {
	reg, _ := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Register("c2", "u2", "Alice", false)
	reg.Register("c3", "u3", "Eve", false)
	reg.Join("c1", "aa")
	reg.Join("c2", "aa")
	reg.Join("c3", "bb")

	if roomID, ok := reg.SameRoom("c1", "c2"); !ok || roomID != "aa" {
		t.Fatalf("c1/c2 should share aa, got %q %v", roomID, ok)
	}
	if _, ok := reg.SameRoom("c1", "c3"); ok {
		t.Fatal("c1/c3 must not share a room")
	}
	if _, ok := reg.SameRoom("c1", "ghost"); ok {
		t.Fatal("unknown peer must not match")
	}
}

func TestAdminConnIDs(t *testing.T) {
	reg, _ := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Register("c2", "u2", "Mod", true)
	reg.Join("c1", "aa")
	// c2 stays roomless: admins are reachable regardless of room.

	admins := reg.AdminConnIDs()
	if len(admins) != 1 || admins[0] != "c2" {
		t.Fatalf("unexpected admin set: %v", admins)
	}
}

func TestSetChatNameUpdatesMemberRecord(t *testing.T) {
	reg, _ := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Join("c1", "aa")
	if err := reg.SetChatName("c1", "Bobby"); err != nil {
		t.Fatalf("set chat name: %v", err)
	}

	conn, _ := reg.Lookup("c1")
	if conn.ChatName != "Bobby" {
		t.Fatalf("lookup name not updated: %q", conn.ChatName)
	}
	members := reg.MembersOf("aa")
	if len(members) != 1 || members[0].ChatName != "Bobby" {
		t.Fatalf("member record not updated: %+v", members)
	}

	if err := reg.SetChatName("c1", "  "); !errors.Is(err, domain.ErrInvalidIdentity) {
		t.Fatalf("blank rename must fail, got %v", err)
	}
}

func TestNotificationsArriveInMutationOrder(t *testing.T) {
	reg, listener := newTestRegistry(t)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		connID := fmt.Sprintf("c%d", i)
		reg.Register(connID, "u-"+connID, "Name-"+connID, false)
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			reg.Join(id, "aa")
		}(connID)
	}
	wg.Wait()

	// Each joined notification carries the snapshot taken at its own
	// mutation, so delivery order must show the member set growing one
	// at a time: sizes 1..n with no reordering.
	events := listener.all()
	if len(events) != n {
		t.Fatalf("expected %d notifications, got %d", n, len(events))
	}
	for i, e := range events {
		if e.kind != "joined" {
			t.Fatalf("event %d: unexpected kind %s", i, e.kind)
		}
		if len(e.snapshot) != i+1 {
			t.Fatalf("event %d: snapshot size %d, want %d (stale snapshot delivered late)",
				i, len(e.snapshot), i+1)
		}
	}
}

func TestMemberCountNeverNegative(t *testing.T) {
	reg, _ := newTestRegistry(t)

	reg.Register("c1", "u1", "Bob", false)
	reg.Join("c1", "aa")
	reg.Leave("c1")
	reg.Leave("c1")
	reg.Unregister("c1")
	reg.Unregister("c1")

	if n := reg.Count("aa"); n != 0 {
		t.Fatalf("count must be exactly 0, got %d", n)
	}
}
