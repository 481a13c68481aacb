package session

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"time"

	"bookreviews/internal/apperror"
)

var ErrNotFound = apperror.NotFound("SESSION_NOT_FOUND", "Session not found")

// Session is one refresh-token login. Only the sha256 of the refresh token
// is stored.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"-"`
	UserAgent        string    `json:"user_agent"`
	IPAddress        string    `json:"ip_address"`
	RememberMe       bool      `json:"remember_me"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	LastUsedAt       time.Time `json:"last_used_at"`
}

func (s Session) expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// HashToken returns the hex sha256 of a refresh token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func sortNewestFirst(sessions []Session) {
	slices.SortFunc(sessions, func(a, b Session) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
