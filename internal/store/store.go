package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultUsername tags exchanges from sessions that never set a name.
const DefaultUsername = "default_user"

var ErrUserNotFound = errors.New("user not found")

type User struct {
	ID         uuid.UUID
	Username   string
	CreatedAt  time.Time
	LastActive time.Time
}

// Answer is the produced response half of an exchange.
type Answer struct {
	TextContent       string
	VisualizationType string
	VisualizationPath string
	FollowUps         []string
}

// Exchange pairs one user question with its response.
type Exchange struct {
	QueryID   uuid.UUID
	Username  string
	Question  string
	Answer    Answer
	CreatedAt time.Time
}

// Store persists chat history. The backend works without one (in-memory
// fallback); Postgres is used when DATABASE_URL is configured.
type Store interface {
	GetOrCreateUser(ctx context.Context, username string) (User, error)
	UpdateLastActive(ctx context.Context, username string) error
	SaveExchange(ctx context.Context, ex Exchange) error
	History(ctx context.Context, username string, limit, offset int) ([]Exchange, error)
	Close() error
}
