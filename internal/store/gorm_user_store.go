package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/sethkontny/aaventure/internal/domain"
	"github.com/sethkontny/aaventure/pkg/log"
)

// GormUserStore implements UserStore using GORM. Read-only: accounts
// are owned by the identity subsystem.
type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var model UserModel
	result := s.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		log.Ctx(ctx).Error().Err(result.Error).Str(log.FieldUserID, id).Msg("failed to get user by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}
