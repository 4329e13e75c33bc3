package store

import (
	"context"
	"errors"

	"github.com/sethkontny/aaventure/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

// MessageStore is the external message store consumed by the message
// engine. Append assigns the message ID and timestamp; insertion order
// is the authoritative delivery order.
type MessageStore interface {
	Append(ctx context.Context, m *domain.Message) error
	// Recent returns the most recent limit messages for the room,
	// oldest first.
	Recent(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
}

// ReportStore persists safety escalation records.
type ReportStore interface {
	Append(ctx context.Context, r *domain.SafetyReport) error
}

// UserStore exposes the narrow slice of account data the core needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
