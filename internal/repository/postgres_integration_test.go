package repository

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codesage/api/internal/db"
	"codesage/api/internal/model"
)

func openTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := os.Getenv("CODESAGE_TEST_DB")
	if url == "" {
		t.Skip("CODESAGE_TEST_DB not set")
		return nil
	}
	ctx := context.Background()
	conn, err := db.Open(ctx, url, db.Options{Attempts: 1})
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn))
	return NewPostgresStore(conn)
}

func TestPostgresStore_Integration(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	email := "it-" + uuid.NewString() + "@example.com"

	user, err := store.CreateUser(ctx, model.User{Username: "it", Email: email, PasswordHash: "h"})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, model.User{Username: "it2", Email: email, PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.AddRefreshToken(ctx, user.ID, uuid.NewString()))
		}()
	}
	wg.Wait()
	require.NoError(t, store.AddRefreshToken(ctx, user.ID, "keep"))
	require.NoError(t, store.RemoveRefreshToken(ctx, user.ID, "keep"))

	got, err := store.GetUserByEmail(ctx, email)
	require.NoError(t, err)
	assert.Len(t, got.RefreshTokens, 20, "concurrent appends are not lost")
	assert.False(t, got.HasRefreshToken("keep"))

	first, err := store.CreateSubmission(ctx, model.Submission{UserID: user.ID, Code: "a", ReviewResult: "r"})
	require.NoError(t, err)
	second, err := store.CreateSubmission(ctx, model.Submission{UserID: user.ID, Code: "b", Language: "go", ReviewResult: "r"})
	require.NoError(t, err)

	list, err := store.ListSubmissions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "javascript", list[1].Language)

	require.NoError(t, store.DeleteSubmission(ctx, user.ID, first.ID))
	assert.ErrorIs(t, store.DeleteSubmission(ctx, uuid.NewString(), second.ID), ErrNotFound)

	n, err := store.DeleteAllSubmissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
