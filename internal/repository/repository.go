// Package repository persists users (with their tracked refresh tokens) and
// code-review submissions. Two implementations share the same contract: a
// PostgreSQL store for production and an in-memory store for local runs and
// tests.
package repository

import (
	"context"
	"errors"

	"codesage/api/internal/model"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserStore holds user records. Refresh-token mutations are atomic per user.
type UserStore interface {
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)
	AddRefreshToken(ctx context.Context, userID, token string) error
	// RemoveRefreshToken drops token from the user's set. Removing an absent
	// token, or from an absent user, is not an error.
	RemoveRefreshToken(ctx context.Context, userID, token string) error
}

// SubmissionStore holds code submissions. Every read and delete is scoped to
// the owning user.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, s model.Submission) (model.Submission, error)
	// ListSubmissions returns the user's submissions, newest first.
	ListSubmissions(ctx context.Context, userID string) ([]model.Submission, error)
	// DeleteSubmission returns ErrNotFound when no submission with that id
	// belongs to userID.
	DeleteSubmission(ctx context.Context, userID, submissionID string) error
	DeleteAllSubmissions(ctx context.Context, userID string) (int64, error)
}

type Store interface {
	UserStore
	SubmissionStore
}
