package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sethkontny/aaventure/internal/audit"
	"github.com/sethkontny/aaventure/internal/cache"
	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/internal/registry"
	"github.com/sethkontny/aaventure/internal/store"
	"github.com/sethkontny/aaventure/pkg/log"
)

type chatService struct {
	registry *registry.Registry
	delivery Delivery
	messages store.MessageStore
	cache    cache.HistoryCache
	cacheTTL time.Duration
	sf       singleflight.Group

	historyLimit int
	maxBodyLen   int

	// Per-room publish serialization: the store's insertion order is
	// the ground truth, and fanout happens in that same order.
	mu        sync.Mutex
	roomLocks map[string]*sync.Mutex

	// Cache bookkeeping, guarded by mu: a version per room, bumped on
	// every publish, and the set of limits with a live cached page.
	// A history read only installs its page if no publish happened
	// since the store read, so an invalidation can never be undone by
	// a slower, staler write.
	histVersions map[string]uint64
	cachedLimits map[string]map[int]struct{}
}

func NewChatService(
	reg *registry.Registry,
	delivery Delivery,
	messages store.MessageStore,
	historyCache cache.HistoryCache,
	cacheTTL time.Duration,
	historyLimit int,
	maxBodyLen int,
) ChatService {
	return &chatService{
		registry:     reg,
		delivery:     delivery,
		messages:     messages,
		cache:        historyCache,
		cacheTTL:     cacheTTL,
		historyLimit: historyLimit,
		maxBodyLen:   maxBodyLen,
		roomLocks:    make(map[string]*sync.Mutex),
		histVersions: make(map[string]uint64),
		cachedLimits: make(map[string]map[int]struct{}),
	}
}

// HandleJoinRoom delivers recent history to the joiner, then moves it
// into the room. The membership change itself fans out presence
// through the registry listener. History is a point-in-time read taken
// before the join commits: the joiner never sees a message twice (once
// from history, again live), at the cost that one published inside the
// read-to-join window reaches this joiner only on its next history
// load.
func (s *chatService) HandleJoinRoom(ctx context.Context, connID, roomID, chatName string) error {
	if chatName != "" {
		if err := s.registry.SetChatName(connID, chatName); err != nil {
			return err
		}
	}

	conn, err := s.registry.Lookup(connID)
	if err != nil {
		return domain.ErrNotRegistered
	}

	history, err := s.History(ctx, roomID, s.historyLimit)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str(log.FieldRoomID, roomID).Msg("history load failed on join")
		history = nil
	}

	payloads := make([]domain.MessagePayload, len(history))
	for i := range history {
		payloads[i] = domain.NewMessagePayload(&history[i])
	}
	s.delivery.Send(connID, &domain.MessageHistoryEvent{
		Type:     domain.EvtMessageHistory,
		RoomID:   roomID,
		Messages: payloads,
	})

	if err := s.registry.Join(connID, roomID); err != nil {
		return err
	}

	audit.LogWithDetail(ctx, audit.ActionJoinRoom, conn.UserID, roomID, "joined room")
	return nil
}

// HandleLeaveRoom removes the connection from its current room. Safe
// to call without a room and safe to call twice.
func (s *chatService) HandleLeaveRoom(ctx context.Context, connID string) {
	conn, err := s.registry.Lookup(connID)
	if err != nil {
		return
	}
	s.registry.Leave(connID)
	if conn.RoomID != "" {
		audit.LogWithDetail(ctx, audit.ActionLeaveRoom, conn.UserID, conn.RoomID, "left room")
	}
}

// HandleChatMessage publishes a chat message from a live connection to
// its current room.
func (s *chatService) HandleChatMessage(ctx context.Context, connID, body string) error {
	conn, err := s.registry.Lookup(connID)
	if err != nil {
		return domain.ErrNotRegistered
	}
	if conn.RoomID == "" {
		return domain.ErrNotInRoom
	}

	msg := &domain.Message{
		RoomID:   conn.RoomID,
		UserID:   conn.UserID,
		ChatName: conn.ChatName,
		Username: conn.ChatName,
		Body:     body,
		Kind:     domain.KindChat,
	}
	if err := s.Publish(ctx, conn.RoomID, msg); err != nil {
		return err
	}

	audit.LogWithDetail(ctx, audit.ActionSendMessage, conn.UserID, conn.RoomID, "message published")
	return nil
}

// HandleDisconnect unregisters the connection. Runs exactly once per
// disconnect even when the transport reports it twice; the second call
// finds nothing to remove.
func (s *chatService) HandleDisconnect(ctx context.Context, connID string) {
	conn, err := s.registry.Lookup(connID)
	if err != nil {
		return
	}
	s.registry.Unregister(connID)
	audit.Log(ctx, audit.ActionDisconnect, conn.UserID, "disconnected")
}

// Publish validates, persists and fans out one message. Publication is
// serialized per room: if Publish(A) returns before Publish(B) starts,
// every member still in the room sees A before B. On persistence
// failure nothing is broadcast and only the caller is told.
func (s *chatService) Publish(ctx context.Context, roomID string, msg *domain.Message) error {
	body := strings.TrimSpace(msg.Body)
	if body == "" {
		return domain.ErrEmptyMessage
	}
	if s.maxBodyLen > 0 && len(body) > s.maxBodyLen {
		return domain.ErrMessageTooLong
	}
	msg.Body = body

	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.messages.Append(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", roomID, err)
	}

	// Snapshot taken immediately after persistence; members joining
	// later get the message from history instead.
	members := s.registry.MembersOf(roomID)
	s.delivery.SendAll(memberConnIDs(members), domain.NewMessageOut(msg))

	s.invalidateHistory(roomID)
	return nil
}

// History returns the most recent limit messages, oldest first.
// Concurrent loads for the same page collapse into one store read.
func (s *chatService) History(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	if limit < 1 {
		limit = s.historyLimit
	}

	key := s.cache.BuildKey(roomID, limit)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.fetchHistory(ctx, roomID, limit, key)
	})
	if err != nil {
		return nil, err
	}
	return result.(*cache.HistoryCacheResult).Messages, nil
}

func (s *chatService) fetchHistory(ctx context.Context, roomID string, limit int, key string) (*cache.HistoryCacheResult, error) {
	version := s.historyVersion(roomID)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if err != cache.ErrCacheMiss {
		log.Ctx(ctx).Warn().Err(err).Msg("history cache get error")
	}

	messages, err := s.messages.Recent(ctx, roomID, limit)
	if err != nil {
		return nil, err
	}

	result := &cache.HistoryCacheResult{Messages: messages}

	// Install the page only if no publish landed since the store read.
	// The room lock serializes this against Publish, whose invalidation
	// bumps the version under the same lock.
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()
	if s.historyVersion(roomID) != version {
		return result, nil
	}

	cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Set(cacheCtx, key, result, s.cacheTTL); err != nil {
		log.L().Warn().Err(err).Msg("history cache set error")
		return result, nil
	}
	s.rememberLimit(roomID, limit)

	return result, nil
}

// invalidateHistory drops every cached page for the room. Called under
// the room's publish lock.
func (s *chatService) invalidateHistory(roomID string) {
	s.mu.Lock()
	s.histVersions[roomID]++
	limits := s.cachedLimits[roomID]
	delete(s.cachedLimits, roomID)
	s.mu.Unlock()

	if len(limits) == 0 {
		return
	}
	keys := make([]string, 0, len(limits))
	for limit := range limits {
		keys = append(keys, s.cache.BuildKey(roomID, limit))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.L().Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("history cache invalidate error")
	}
}

func (s *chatService) historyVersion(roomID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.histVersions[roomID]
}

func (s *chatService) rememberLimit(roomID string, limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limits, ok := s.cachedLimits[roomID]
	if !ok {
		limits = make(map[int]struct{})
		s.cachedLimits[roomID] = limits
	}
	limits[limit] = struct{}{}
}

func (s *chatService) roomLock(roomID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.roomLocks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		s.roomLocks[roomID] = lock
	}
	return lock
}

func memberConnIDs(members []registry.Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ConnID
	}
	return ids
}
