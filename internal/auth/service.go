// Package auth issues and verifies the access/refresh token pair and keeps
// each user's set of live refresh tokens in the credential store.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"codesage/api/internal/apperr"
	"codesage/api/internal/repository"
)

type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type TokenService struct {
	users repository.UserStore
	cfg   TokenConfig
}

func NewTokenService(users repository.UserStore, cfg TokenConfig) *TokenService {
	return &TokenService{users: users, cfg: cfg}
}

// IssueTokenPair signs a fresh pair for userID and records the refresh token
// in the user's tracked set.
func (s *TokenService) IssueTokenPair(ctx context.Context, userID string) (TokenPair, error) {
	access, err := NewToken(s.cfg.AccessSecret, s.cfg.AccessTTL, userID, "")
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.Internal, "Could not sign access token.", err)
	}
	refresh, err := NewToken(s.cfg.RefreshSecret, s.cfg.RefreshTTL, userID, uuid.NewString())
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.Internal, "Could not sign refresh token.", err)
	}
	if err := s.users.AddRefreshToken(ctx, userID, refresh); err != nil {
		return TokenPair{}, apperr.Wrap(apperr.Internal, "Could not store refresh token.", err)
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RenewAccessToken returns a new access token for a refresh token that is
// validly signed, unexpired and still tracked for its user. The refresh token
// itself is not rotated.
func (s *TokenService) RenewAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperr.New(apperr.Unauthenticated, "Refresh token not found")
	}

	claims, err := ParseToken(s.cfg.RefreshSecret, refreshToken)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "", apperr.Wrap(apperr.TokenExpired, "Refresh token expired", err)
	case err != nil:
		return "", apperr.Wrap(apperr.InvalidToken, "Invalid refresh token", err)
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.New(apperr.InvalidToken, "Invalid refresh token")
		}
		return "", apperr.Wrap(apperr.Internal, "Could not load user.", err)
	}
	if !user.HasRefreshToken(refreshToken) {
		return "", apperr.New(apperr.InvalidToken, "Invalid refresh token")
	}

	access, err := NewToken(s.cfg.AccessSecret, s.cfg.AccessTTL, user.ID, "")
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "Could not sign access token.", err)
	}
	return access, nil
}

// RevokeRefreshToken removes refreshToken from its owner's set. Tokens that
// cannot be decoded are ignored; expired tokens with a valid signature are
// still removed.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperr.New(apperr.BadRequest, "Refresh token is required")
	}
	claims, _ := ParseToken(s.cfg.RefreshSecret, refreshToken)
	if claims == nil {
		return nil
	}
	if err := s.users.RemoveRefreshToken(ctx, claims.UserID, refreshToken); err != nil {
		return apperr.Wrap(apperr.Internal, "Could not revoke refresh token.", err)
	}
	return nil
}

// ParseAccessToken returns the user id carried by a valid access token.
func (s *TokenService) ParseAccessToken(token string) (string, error) {
	if token == "" {
		return "", apperr.New(apperr.Unauthenticated, "Access token required")
	}
	claims, err := ParseToken(s.cfg.AccessSecret, token)
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "", apperr.Wrap(apperr.TokenExpired, "Access token expired", err)
	case err != nil:
		return "", apperr.Wrap(apperr.InvalidToken, "Invalid access token", err)
	}
	return claims.UserID, nil
}

func (s *TokenService) AccessTTL() time.Duration { return s.cfg.AccessTTL }

func (s *TokenService) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }
