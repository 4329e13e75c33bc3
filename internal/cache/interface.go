package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sethkontny/aaventure/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// HistoryCacheResult wraps a cached history page.
type HistoryCacheResult struct {
	Messages []domain.Message `json:"messages"`
}

// HistoryCache caches recent-history reads per room. Invalidated on
// every publish so joiners never see a stale tail.
type HistoryCache interface {
	Get(ctx context.Context, key string) (*HistoryCacheResult, error)
	Set(ctx context.Context, key string, result *HistoryCacheResult, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKey(roomID string, limit int) string
	Close() error
}
