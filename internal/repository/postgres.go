package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"codesage/api/internal/model"
)

const uniqueViolation = "23505"

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type PostgresStore struct {
	db    DBTX
	types *pgtype.Map
}

func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db, types: pgtype.NewMap()}
}

func (s *PostgresStore) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	user.RefreshTokens = []string{}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.User{}, ErrDuplicateEmail
		}
		return model.User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.getUser(ctx, `
		SELECT id, username, email, password_hash, refresh_tokens, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return model.User{}, ErrNotFound
	}
	return s.getUser(ctx, `
		SELECT id, username, email, password_hash, refresh_tokens, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg string) (model.User, error) {
	var user model.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		s.types.SQLScanner(&user.RefreshTokens),
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) AddRefreshToken(ctx context.Context, userID, token string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_tokens = array_append(refresh_tokens, $2), updated_at = $3
		WHERE id = $1
	`, userID, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RemoveRefreshToken(ctx context.Context, userID, token string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_tokens = array_remove(refresh_tokens, $2), updated_at = $3
		WHERE id = $1
	`, userID, token, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateSubmission(ctx context.Context, sub model.Submission) (model.Submission, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Language == "" {
		sub.Language = model.DefaultLanguage
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO code_submissions (id, user_id, code, language, review_result, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sub.ID, sub.UserID, sub.Code, sub.Language, sub.ReviewResult, sub.SubmittedAt)
	if err != nil {
		return model.Submission{}, fmt.Errorf("db error: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) ListSubmissions(ctx context.Context, userID string) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, code, language, review_result, submitted_at
		FROM code_submissions
		WHERE user_id = $1
		ORDER BY submitted_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []model.Submission{}
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Code, &sub.Language, &sub.ReviewResult, &sub.SubmittedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteSubmission(ctx context.Context, userID, submissionID string) error {
	if _, err := uuid.Parse(submissionID); err != nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM code_submissions
		WHERE id = $1 AND user_id = $2
	`, submissionID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteAllSubmissions(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM code_submissions
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
