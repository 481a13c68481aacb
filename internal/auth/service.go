package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookreviews/internal/platform/crypto"
	"bookreviews/internal/session"
	"bookreviews/internal/user"

	"github.com/rs/zerolog"
)

type Service struct {
	secret    string
	accessTTL time.Duration
	users     UserReader
	sessions  SessionStore
	now       func() time.Time
}

func NewService(secret string, accessTTL time.Duration, users UserReader, sessions SessionStore) *Service {
	return &Service{
		secret:    secret,
		accessTTL: accessTTL,
		users:     users,
		sessions:  sessions,
		now:       time.Now,
	}
}

// Login checks the credentials and opens a new refresh session.
func (s *Service) Login(ctx context.Context, in LoginInput) (TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if !crypto.VerifyPassword(u.PasswordHash, in.Password) {
		return TokenPair{}, ErrInvalidCredentials
	}

	sess := &session.Session{
		UserID:     u.ID,
		UserAgent:  in.UserAgent,
		IPAddress:  in.IPAddress,
		RememberMe: in.RememberMe,
	}
	pair, err := s.issue(ctx, u, sess)
	if err != nil {
		return TokenPair{}, err
	}

	zerolog.Ctx(ctx).Info().Str("user_id", u.ID).Str("session_id", sess.ID).Msg("user logged in")
	return pair, nil
}

// Refresh rotates a refresh token: the presented token stops working and a
// new pair is issued for the same session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	tokenHash := session.HashToken(refreshToken)
	sess, err := s.sessions.GetByTokenHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return TokenPair{}, ErrInvalidRefresh
		}
		return TokenPair{}, fmt.Errorf("load session: %w", err)
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return TokenPair{}, ErrInvalidRefresh
		}
		return TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	if err := s.sessions.DeleteByTokenHash(ctx, tokenHash); err != nil {
		return TokenPair{}, fmt.Errorf("revoke refresh token: %w", err)
	}

	next := sess
	return s.issue(ctx, u, &next)
}

// Logout revokes the access token until it expires and, when given, the
// refresh token's session.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	claims, err := crypto.ParseToken(s.secret, accessToken)
	if err != nil {
		return ErrInvalidToken
	}

	expiresAt := s.now().Add(s.accessTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.sessions.Blacklist(ctx, claims.ID, claims.Sub, expiresAt); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	if refreshToken != "" {
		if err := s.sessions.DeleteByTokenHash(ctx, session.HashToken(refreshToken)); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}
	return nil
}

func (s *Service) issue(ctx context.Context, u user.User, sess *session.Session) (TokenPair, error) {
	accessToken, _, err := crypto.GenerateToken(s.secret, u.ID, u.Role, s.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := crypto.RandomToken(refreshTokenBytes)
	if err != nil {
		return TokenPair{}, fmt.Errorf("generate refresh token: %w", err)
	}

	sess.RefreshTokenHash = session.HashToken(refreshToken)
	sess.ExpiresAt = s.now().Add(refreshTTL(sess.RememberMe))
	if err := s.sessions.Create(ctx, sess); err != nil {
		return TokenPair{}, fmt.Errorf("create session: %w", err)
	}

	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
	}, nil
}
