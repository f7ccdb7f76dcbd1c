package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	// Advisory lock so the launcher and a standalone backend can't race the
	// migration. Real deployments would run a migration tool beforehand.
	const lockID = 874512096

	var acquired bool
	if err := s.db.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockID).Scan(&acquired); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !acquired {
		// Someone else is migrating; give them a moment and move on.
		time.Sleep(2 * time.Second)
		return nil
	}
	defer func() {
		_, _ = s.db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID)
	}()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id UUID PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			created_at TIMESTAMPTZ DEFAULT now(),
			last_active TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS queries (
			query_id UUID PRIMARY KEY,
			user_id UUID REFERENCES users(user_id) ON DELETE CASCADE,
			query_text TEXT,
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS responses (
			query_id UUID PRIMARY KEY REFERENCES queries(query_id) ON DELETE CASCADE,
			text_content TEXT,
			visualization_type TEXT,
			visualization_path TEXT,
			follow_ups TEXT[],
			created_at TIMESTAMPTZ DEFAULT now()
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) GetOrCreateUser(ctx context.Context, username string) (User, error) {
	if username == "" {
		username = DefaultUsername
	}
	id := uuid.New()
	// Upsert keeps a single row per username and returns the winner.
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO users(user_id, username)
		VALUES($1, $2)
		ON CONFLICT (username) DO UPDATE SET last_active = now()
		RETURNING user_id, username, created_at, last_active`,
		id, username)

	var u User
	if err := row.Scan(&u.ID, &u.Username, &u.CreatedAt, &u.LastActive); err != nil {
		return User{}, fmt.Errorf("get or create user %q: %w", username, err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateLastActive(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_active = now() WHERE username = $1`, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresStore) SaveExchange(ctx context.Context, ex Exchange) error {
	user, err := s.GetOrCreateUser(ctx, ex.Username)
	if err != nil {
		return err
	}
	if ex.QueryID == uuid.Nil {
		ex.QueryID = uuid.New()
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO queries(query_id, user_id, query_text, created_at)
		VALUES($1, $2, $3, $4)`,
		ex.QueryID, user.ID, ex.Question, ex.CreatedAt); err != nil {
		return fmt.Errorf("insert query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO responses(query_id, text_content, visualization_type, visualization_path, follow_ups, created_at)
		VALUES($1, $2, $3, $4, $5, $6)`,
		ex.QueryID, ex.Answer.TextContent, ex.Answer.VisualizationType, ex.Answer.VisualizationPath,
		pq.Array(ex.Answer.FollowUps), ex.CreatedAt); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) History(ctx context.Context, username string, limit, offset int) ([]Exchange, error) {
	if username == "" {
		username = DefaultUsername
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.query_id, q.query_text, q.created_at,
		       r.text_content, COALESCE(r.visualization_type, ''), COALESCE(r.visualization_path, ''),
		       COALESCE(r.follow_ups, ARRAY[]::TEXT[])
		FROM queries q
		JOIN users u ON u.user_id = q.user_id
		JOIN responses r ON r.query_id = q.query_id
		WHERE u.username = $1
		ORDER BY q.created_at DESC
		LIMIT $2 OFFSET $3`,
		username, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Exchange
	for rows.Next() {
		ex := Exchange{Username: username}
		var followUps []string
		if err := rows.Scan(&ex.QueryID, &ex.Question, &ex.CreatedAt,
			&ex.Answer.TextContent, &ex.Answer.VisualizationType, &ex.Answer.VisualizationPath,
			pq.Array(&followUps)); err != nil {
			return nil, err
		}
		ex.Answer.FollowUps = followUps
		out = append(out, ex)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
