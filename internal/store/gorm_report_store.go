package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/pkg/log"
)

// GormReportStore implements ReportStore using GORM.
type GormReportStore struct {
	db *gorm.DB
}

func NewGormReportStore(db *gorm.DB) *GormReportStore {
	return &GormReportStore{db: db}
}

// Append persists the safety report, assigning its ID and timestamp.
func (s *GormReportStore) Append(ctx context.Context, r *domain.SafetyReport) error {
	l := log.Ctx(ctx)

	r.ID = uuid.New().String()
	r.Timestamp = time.Now().UTC()

	model := &ReportModel{
		ID:               r.ID,
		ReporterChatName: r.ReporterChatName,
		TargetChatName:   r.TargetChatName,
		RoomID:           r.RoomID,
		Reason:           r.Reason,
		Timestamp:        r.Timestamp,
	}
	if result := s.db.WithContext(ctx).Create(model); result.Error != nil {
		l.Error().Err(result.Error).Str(log.FieldRoomID, r.RoomID).Msg("failed to persist safety report")
		return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, result.Error)
	}

	l.Info().Str(log.FieldRoomID, r.RoomID).Str("report_id", r.ID).Msg("safety report persisted")
	return nil
}
