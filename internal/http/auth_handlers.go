package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"codesage/api/internal/apperr"
	"codesage/api/internal/crypto"
	"codesage/api/internal/model"
	"codesage/api/internal/repository"
)

const (
	refreshCookieName      = "refreshToken"
	passwordTooLongMessage = "Password must be at most 72 bytes."
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type userSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type authResponse struct {
	Message      string      `json:"message"`
	User         userSummary `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    string      `json:"expiresIn"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   string `json:"expiresIn"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		s.writeError(w, r, apperr.New(apperr.BadRequest, "Please provide username, email and password."))
		return
	}
	if len(req.Password) > crypto.MaxPasswordBytes {
		s.writeError(w, r, apperr.New(apperr.BadRequest, passwordTooLongMessage))
		return
	}

	if _, err := s.users.GetUserByEmail(r.Context(), req.Email); err == nil {
		s.writeError(w, r, apperr.New(apperr.Conflict, "User already exists"))
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.writeError(w, r, apperr.Wrap(apperr.Internal, "Could not look up user.", err))
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			s.writeError(w, r, apperr.New(apperr.BadRequest, passwordTooLongMessage))
			return
		}
		s.writeError(w, r, apperr.Wrap(apperr.Internal, "Could not hash password.", err))
		return
	}

	user, err := s.users.CreateUser(r.Context(), model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			s.writeError(w, r, apperr.New(apperr.Conflict, "User already exists"))
			return
		}
		s.writeError(w, r, apperr.Wrap(apperr.Internal, "Could not create user.", err))
		return
	}

	s.respondWithTokens(w, r, http.StatusCreated, "User registered successfully", user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		s.writeError(w, r, apperr.New(apperr.BadRequest, "Please provide email and password."))
		return
	}

	invalid := apperr.New(apperr.Unauthenticated, "Invalid credentials")

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			crypto.BurnPasswordCheck(req.Password)
			s.writeError(w, r, invalid)
			return
		}
		s.writeError(w, r, apperr.Wrap(apperr.Internal, "Could not look up user.", err))
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		s.writeError(w, r, invalid)
		return
	}

	s.respondWithTokens(w, r, http.StatusOK, "Login successful", user)
}

func (s *Server) respondWithTokens(w http.ResponseWriter, r *http.Request, status int, message string, user model.User) {
	pair, err := s.tokens.IssueTokenPair(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, status, authResponse{
		Message:      message,
		User:         mapUser(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    formatTTL(s.tokens.AccessTTL()),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token, err := s.refreshTokenFromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	access, err := s.tokens.RenewAccessToken(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		AccessToken: access,
		ExpiresIn:   formatTTL(s.tokens.AccessTTL()),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearRefreshCookie(w)

	token, err := s.refreshTokenFromRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.tokens.RevokeRefreshToken(r.Context(), token); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// refreshTokenFromRequest prefers the cookie and falls back to a JSON body.
func (s *Server) refreshTokenFromRequest(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	var req tokenRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		return "", err
	}
	return strings.TrimSpace(req.RefreshToken), nil
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(s.tokens.RefreshTTL() / time.Second),
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

func mapUser(u model.User) userSummary {
	return userSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// formatTTL renders d the way it is usually configured: "15m", "1h", "7d".
func formatTTL(d time.Duration) string {
	const day = 24 * time.Hour
	switch {
	case d >= day && d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}
