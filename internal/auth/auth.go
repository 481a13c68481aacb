package auth

import (
	"time"

	"bookreviews/internal/apperror"
)

const (
	refreshTokenBytes = 32

	defaultRefreshTTL  = 30 * 24 * time.Hour
	rememberRefreshTTL = 90 * 24 * time.Hour
)

var (
	ErrInvalidCredentials = apperror.Unauthorized("INVALID_CREDENTIALS", "Invalid email or password")
	ErrInvalidRefresh     = apperror.Unauthorized("INVALID_REFRESH_TOKEN", "Invalid or expired refresh token")
	ErrInvalidToken       = apperror.Unauthorized("UNAUTHORIZED", "Invalid or expired token")
)

type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
	UserAgent  string
	IPAddress  string
}

// TokenPair is returned by login and refresh. ExpiresIn is the access token
// lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func refreshTTL(rememberMe bool) time.Duration {
	if rememberMe {
		return rememberRefreshTTL
	}
	return defaultRefreshTTL
}
