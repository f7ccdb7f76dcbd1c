package cache

import (
	"context"
	"time"
)

// NoOpCache is used when no Redis address is configured: every lookup is a
// miss and every write succeeds without storing anything.
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) GetAnswer(ctx context.Context, key string) (*Answer, error) {
	return nil, nil
}

func (c *NoOpCache) SetAnswer(ctx context.Context, key string, answer *Answer, ttl time.Duration) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}
