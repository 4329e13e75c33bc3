package cache

import (
	"context"
	"fmt"
	"time"
)

// NoopHistoryCache is the fallback when caching is disabled: every Get
// misses and writes vanish.
type NoopHistoryCache struct{}

func NewNoopHistoryCache() *NoopHistoryCache { return &NoopHistoryCache{} }

func (NoopHistoryCache) Get(context.Context, string) (*HistoryCacheResult, error) {
	return nil, ErrCacheMiss
}

func (NoopHistoryCache) Set(context.Context, string, *HistoryCacheResult, time.Duration) error {
	return nil
}

func (NoopHistoryCache) Delete(context.Context, ...string) error { return nil }

func (NoopHistoryCache) BuildKey(roomID string, limit int) string {
	return fmt.Sprintf("room:%s:limit:%d", roomID, limit)
}

func (NoopHistoryCache) Close() error { return nil }
