package model

import "time"

const DefaultLanguage = "javascript"

type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	RefreshTokens []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasRefreshToken reports whether token is in the user's tracked set.
func (u User) HasRefreshToken(token string) bool {
	for _, t := range u.RefreshTokens {
		if t == token {
			return true
		}
	}
	return false
}

type Submission struct {
	ID           string
	UserID       string
	Code         string
	Language     string
	ReviewResult string
	SubmittedAt  time.Time
}
