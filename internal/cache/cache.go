package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores computed answers so repeated questions skip the whole
// interpret/analyze/render pipeline.
type Cache interface {
	// GetAnswer retrieves a cached answer by key. Returns nil on a miss.
	GetAnswer(ctx context.Context, key string) (*Answer, error)

	// SetAnswer stores an answer with TTL.
	SetAnswer(ctx context.Context, key string, answer *Answer, ttl time.Duration) error

	// Close closes the cache connection.
	Close() error
}

// Answer is the cached response payload.
type Answer struct {
	TextContent       string   `json:"text_content"`
	VisualizationType string   `json:"visualization_type"`
	VisualizationPath string   `json:"visualization_path"`
	FollowUps         []string `json:"follow_ups"`
}

// GenerateCacheKey hashes the normalized question so casing and stray
// whitespace don't split cache entries.
func GenerateCacheKey(question string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(question), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
