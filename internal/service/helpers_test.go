package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sethkontny/aaventure/internal/cache"
	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/internal/registry"
)

// fakeDelivery records everything sent through it, in order.
type fakeDelivery struct {
	mu      sync.Mutex
	events  []sentEvent
	missing map[string]bool
}

type sentEvent struct {
	connID string
	event  interface{}
}

func newFakeDelivery() *fakeDelivery {
	return &fakeDelivery{missing: make(map[string]bool)}
}

func (d *fakeDelivery) Send(connID string, v interface{}) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.missing[connID] {
		return false
	}
	d.events = append(d.events, sentEvent{connID: connID, event: v})
	return true
}

func (d *fakeDelivery) SendAll(connIDs []string, v interface{}) {
	for _, id := range connIDs {
		d.Send(id, v)
	}
}

func (d *fakeDelivery) markUnavailable(connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.missing[connID] = true
}

func (d *fakeDelivery) eventsFor(connID string) []interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []interface{}
	for _, e := range d.events {
		if e.connID == connID {
			out = append(out, e.event)
		}
	}
	return out
}

// messagesFor returns the new-message bodies delivered to connID, in order.
func (d *fakeDelivery) messagesFor(connID string) []string {
	var bodies []string
	for _, e := range d.eventsFor(connID) {
		if m, ok := e.(*domain.NewMessageEvent); ok {
			bodies = append(bodies, m.Body)
		}
	}
	return bodies
}

func (d *fakeDelivery) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

// fakeMessageStore is an in-memory MessageStore with a fail switch.
// onRecent, when set, runs after a Recent read has been taken but
// before it is returned, for interleaving a publish with the read.
type fakeMessageStore struct {
	mu       sync.Mutex
	messages []domain.Message
	failing  bool
	seq      int
	onRecent func()
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func (s *fakeMessageStore) Append(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return domain.ErrPersistenceFailure
	}
	s.seq++
	msg.ID = fmt.Sprintf("m%d", s.seq)
	msg.Timestamp = time.Unix(0, int64(s.seq)*int64(time.Millisecond)).UTC()
	s.messages = append(s.messages, *msg)
	return nil
}

func (s *fakeMessageStore) Recent(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	s.mu.Lock()
	if s.failing {
		s.mu.Unlock()
		return nil, domain.ErrPersistenceFailure
	}
	var room []domain.Message
	for _, m := range s.messages {
		if m.RoomID == roomID {
			room = append(room, m)
		}
	}
	if limit > 0 && len(room) > limit {
		room = room[len(room)-limit:]
	}
	hook := s.onRecent
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	return room, nil
}

func (s *fakeMessageStore) count(roomID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if m.RoomID == roomID {
			n++
		}
	}
	return n
}

// fakeHistoryCache is an in-memory HistoryCache recording the live
// pages, so tests can observe installs and invalidations.
type fakeHistoryCache struct {
	mu    sync.Mutex
	pages map[string]*cache.HistoryCacheResult
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{pages: make(map[string]*cache.HistoryCacheResult)}
}

func (c *fakeHistoryCache) Get(ctx context.Context, key string) (*cache.HistoryCacheResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.pages[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return result, nil
}

func (c *fakeHistoryCache) Set(ctx context.Context, key string, result *cache.HistoryCacheResult, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = result
	return nil
}

func (c *fakeHistoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.pages, key)
	}
	return nil
}

func (c *fakeHistoryCache) BuildKey(roomID string, limit int) string {
	return fmt.Sprintf("room:%s:limit:%d", roomID, limit)
}

func (c *fakeHistoryCache) Close() error { return nil }

func (c *fakeHistoryCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// fakeReportStore records safety reports.
type fakeReportStore struct {
	mu      sync.Mutex
	reports []domain.SafetyReport
	failing bool
}

func (s *fakeReportStore) Append(ctx context.Context, r *domain.SafetyReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return domain.ErrPersistenceFailure
	}
	r.Timestamp = time.Now().UTC()
	s.reports = append(s.reports, *r)
	return nil
}

func (s *fakeReportStore) all() []domain.SafetyReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SafetyReport(nil), s.reports...)
}

// rig wires a registry, presence publisher and all services over the
// fake delivery and stores.
type rig struct {
	reg        *registry.Registry
	delivery   *fakeDelivery
	messages   *fakeMessageStore
	reports    *fakeReportStore
	chat       ChatService
	signal     SignalService
	ephemeral  EphemeralService
	moderation ModerationService
}

func newRig(t *testing.T) *rig {
	t.Helper()

	reg := registry.New()
	delivery := newFakeDelivery()
	messages := newFakeMessageStore()
	reports := &fakeReportStore{}

	reg.SetListener(NewPresencePublisher(delivery))

	return &rig{
		reg:        reg,
		delivery:   delivery,
		messages:   messages,
		reports:    reports,
		chat:       NewChatService(reg, delivery, messages, cache.NewNoopHistoryCache(), time.Second, 50, 1000),
		signal:     NewSignalService(reg, delivery),
		ephemeral:  NewEphemeralService(reg, delivery),
		moderation: NewModerationService(reg, delivery, messages, reports),
	}
}

func (r *rig) connect(t *testing.T, connID, userID, chatName string, admin bool) {
	t.Helper()
	if err := r.reg.Register(connID, userID, chatName, admin); err != nil {
		t.Fatalf("register %s: %v", connID, err)
	}
}

func (r *rig) join(t *testing.T, connID, roomID string) {
	t.Helper()
	if err := r.chat.HandleJoinRoom(context.Background(), connID, roomID, ""); err != nil {
		t.Fatalf("join %s -> %s: %v", connID, roomID, err)
	}
}
