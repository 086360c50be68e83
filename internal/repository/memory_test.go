package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesage/api/internal/model"
)

func TestMemoryStore_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	u, err := s.CreateUser(ctx, model.User{Username: "alice", Email: "alice@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	require.NotEmpty(t, u.ID)
	assert.Empty(t, u.RefreshTokens)

	_, err = s.CreateUser(ctx, model.User{Username: "alice2", Email: "alice@x.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	byEmail, err := s.GetUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = s.GetUserByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_RefreshTokens(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u, err := s.CreateUser(ctx, model.User{Email: "a@x.com"})
	require.NoError(t, err)

	require.NoError(t, s.AddRefreshToken(ctx, u.ID, "t1"))
	require.NoError(t, s.AddRefreshToken(ctx, u.ID, "t2"))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, got.RefreshTokens)

	require.NoError(t, s.RemoveRefreshToken(ctx, u.ID, "t1"))
	require.NoError(t, s.RemoveRefreshToken(ctx, u.ID, "t1"), "removal is idempotent")
	require.NoError(t, s.RemoveRefreshToken(ctx, "ghost", "t2"), "unknown user is a no-op")

	got, err = s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t2"}, got.RefreshTokens)

	assert.ErrorIs(t, s.AddRefreshToken(ctx, "ghost", "t3"), ErrNotFound)
}

func TestMemoryStore_ReturnedUsersAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u, err := s.CreateUser(ctx, model.User{Email: "a@x.com"})
	require.NoError(t, err)
	require.NoError(t, s.AddRefreshToken(ctx, u.ID, "t1"))

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	got.RefreshTokens[0] = "tampered"

	again, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, again.RefreshTokens)
}

func TestMemoryStore_ConcurrentTokenAppends(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	u, err := s.CreateUser(ctx, model.User{Email: "a@x.com"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.AddRefreshToken(ctx, u.ID, time.Duration(i).String())
		}(i)
	}
	wg.Wait()

	got, err := s.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, got.RefreshTokens, 50)
}

func TestMemoryStore_Submissions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	older, err := s.CreateSubmission(ctx, model.Submission{UserID: "alice", Code: "a", SubmittedAt: base})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLanguage, older.Language)

	newer, err := s.CreateSubmission(ctx, model.Submission{UserID: "alice", Code: "b", Language: "go", SubmittedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	bobs, err := s.CreateSubmission(ctx, model.Submission{UserID: "bob", Code: "c"})
	require.NoError(t, err)

	list, err := s.ListSubmissions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	empty, err := s.ListSubmissions(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	assert.ErrorIs(t, s.DeleteSubmission(ctx, "alice", bobs.ID), ErrNotFound)
	bobList, _ := s.ListSubmissions(ctx, "bob")
	assert.Len(t, bobList, 1, "another user's record must survive")

	require.NoError(t, s.DeleteSubmission(ctx, "alice", older.ID))
	assert.ErrorIs(t, s.DeleteSubmission(ctx, "alice", older.ID), ErrNotFound)

	n, err := s.DeleteAllSubmissions(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteAllSubmissions(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
