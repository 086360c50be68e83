package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind   Kind
		status int
		name   string
	}{
		{BadRequest, http.StatusBadRequest, "bad_request"},
		{Unauthenticated, http.StatusUnauthorized, "unauthenticated"},
		{InvalidToken, http.StatusUnauthorized, "invalid_token"},
		{TokenExpired, http.StatusUnauthorized, "token_expired"},
		{NotFound, http.StatusNotFound, "not_found"},
		{Conflict, http.StatusConflict, "conflict"},
		{GenerationFailed, http.StatusInternalServerError, "generation_failed"},
		{Internal, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.kind.Status())
			assert.Equal(t, tt.name, tt.kind.String())
		})
	}
}

func TestAs_FindsWrappedError(t *testing.T) {
	inner := New(NotFound, "Code not found")
	err := fmt.Errorf("deleting: %w", inner)

	got := As(err)
	require.NotNil(t, got)
	assert.Equal(t, NotFound, got.Kind)
	assert.Equal(t, "Code not found", got.Message)
	assert.True(t, Is(err, NotFound))
}

func TestAs_PlainErrorBecomesInternal(t *testing.T) {
	boom := errors.New("db down")

	got := As(boom)
	assert.Equal(t, Internal, got.Kind)
	assert.ErrorIs(t, got, boom)
	assert.NotContains(t, got.Message, "db down")
}

func TestAs_Nil(t *testing.T) {
	assert.Nil(t, As(nil))
	assert.False(t, Is(nil, Internal))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "bad", New(BadRequest, "bad").Error())
	assert.Equal(t, "bad: cause", Wrap(BadRequest, "bad", errors.New("cause")).Error())
}
