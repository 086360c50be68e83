package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"codesage/api/internal/model"
)

// MemoryStore keeps everything in process memory. A single mutex serializes
// all mutations, which gives the same per-user atomicity as the SQL store.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]model.User
	emails      map[string]string
	submissions map[string]model.Submission
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]model.User),
		emails:      make(map[string]string),
		submissions: make(map[string]model.Submission),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, user model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.emails[user.Email]; ok {
		return model.User{}, ErrDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := m.now()
	user.CreatedAt, user.UpdatedAt = now, now
	user.RefreshTokens = []string{}

	m.users[user.ID] = user
	m.emails[user.Email] = user.ID
	return cloneUser(user), nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(m.users[id]), nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, userID string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[userID]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return cloneUser(user), nil
}

func (m *MemoryStore) AddRefreshToken(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.RefreshTokens = append(user.RefreshTokens, token)
	user.UpdatedAt = m.now()
	m.users[userID] = user
	return nil
}

func (m *MemoryStore) RemoveRefreshToken(_ context.Context, userID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return nil
	}
	kept := make([]string, 0, len(user.RefreshTokens))
	for _, t := range user.RefreshTokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	user.RefreshTokens = kept
	user.UpdatedAt = m.now()
	m.users[userID] = user
	return nil
}

func (m *MemoryStore) CreateSubmission(_ context.Context, sub model.Submission) (model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Language == "" {
		sub.Language = model.DefaultLanguage
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = m.now()
	}
	m.submissions[sub.ID] = sub
	return sub, nil
}

func (m *MemoryStore) ListSubmissions(_ context.Context, userID string) ([]model.Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []model.Submission{}
	for _, sub := range m.submissions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteSubmission(_ context.Context, userID, submissionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.submissions[submissionID]
	if !ok || sub.UserID != userID {
		return ErrNotFound
	}
	delete(m.submissions, submissionID)
	return nil
}

func (m *MemoryStore) DeleteAllSubmissions(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, sub := range m.submissions {
		if sub.UserID == userID {
			delete(m.submissions, id)
			n++
		}
	}
	return n, nil
}

func cloneUser(u model.User) model.User {
	u.RefreshTokens = append([]string{}, u.RefreshTokens...)
	return u
}
