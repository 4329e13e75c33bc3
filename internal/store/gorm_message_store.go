package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/pkg/log"
)

// GormMessageStore implements MessageStore using GORM.
type GormMessageStore struct {
	db *gorm.DB

	// Per-room timestamp clamp so persisted order stays monotonically
	// non-decreasing even on clock ties or regressions.
	mu     sync.Mutex
	lastTS map[string]time.Time
}

func NewGormMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{
		db:     db,
		lastTS: make(map[string]time.Time),
	}
}

// Append persists the message, assigning its ID and timestamp.
func (s *GormMessageStore) Append(ctx context.Context, m *domain.Message) error {
	l := log.Ctx(ctx)

	m.ID = uuid.New().String()
	m.Timestamp = s.nextTimestamp(m.RoomID)

	model := messageToModel(m)
	if result := s.db.WithContext(ctx).Create(model); result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldRoomID, m.RoomID).Msg("failed to persist message")
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, result.Error)
	}

	l.Debug().Str(log.FieldRoomID, m.RoomID).Str("message_id", m.ID).Msg("message persisted")
	return nil
}

// Recent returns the most recent limit messages for the room, oldest
// first. A point-in-time read; it never sees messages persisted after
// the query starts.
func (s *GormMessageStore) Recent(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	l := log.Ctx(ctx)

	if limit < 1 {
		limit = 50
	}

	var models []MessageModel
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to query messages")
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	// Newest-first from the index; reverse to delivery order.
	out := make([]domain.Message, len(models))
	for i, model := range models {
		out[len(models)-1-i] = model.ToDomain()
	}
	return out, nil
}

func (s *GormMessageStore) nextTimestamp(roomID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := time.Now().UTC()
	if last, ok := s.lastTS[roomID]; ok && !ts.After(last) {
		ts = last.Add(time.Microsecond)
	}
	s.lastTS[roomID] = ts
	return ts
}
