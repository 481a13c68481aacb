package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo          Repository
	blacklistRepo BlacklistRepository
	now           func() time.Time
}

func NewService(repo Repository, blacklistRepo BlacklistRepository) *Service {
	return &Service{
		repo:          repo,
		blacklistRepo: blacklistRepo,
		now:           time.Now,
	}
}

// Create assigns a fresh id and stores the session. A rotated session keeps
// the CreatedAt of the original login.
func (s *Service) Create(ctx context.Context, sess *Session) error {
	now := s.now().UTC().Truncate(time.Millisecond)
	sess.ID = uuid.NewString()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.LastUsedAt = now
	sess.ExpiresAt = sess.ExpiresAt.UTC().Truncate(time.Millisecond)
	return s.repo.Create(ctx, sess)
}

func (s *Service) GetByTokenHash(ctx context.Context, hash string) (Session, error) {
	sess, err := s.repo.GetByTokenHash(ctx, hash)
	if err != nil {
		return Session{}, err
	}
	if sess.expired(s.now()) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *Service) ListByUserID(ctx context.Context, userID string) ([]Session, error) {
	return s.repo.ListByUserID(ctx, userID)
}

// DeleteForUser revokes one of the user's own sessions. Sessions of other
// users are reported as not found.
func (s *Service) DeleteForUser(ctx context.Context, userID, sessionID string) error {
	sessions, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return err
	}
	owned := false
	for _, sess := range sessions {
		if sess.ID == sessionID {
			owned = true
			break
		}
	}
	if !owned {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, sessionID)
}

func (s *Service) DeleteByTokenHash(ctx context.Context, hash string) error {
	return s.repo.DeleteByTokenHash(ctx, hash)
}

func (s *Service) Blacklist(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	return s.blacklistRepo.AddToken(ctx, jti, userID, expiresAt)
}

// IsBlacklisted satisfies httpx.Blacklist.
func (s *Service) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.blacklistRepo.IsBlacklisted(ctx, jti)
}

// CleanupExpired removes expired sessions and blacklist entries.
func (s *Service) CleanupExpired(ctx context.Context) error {
	sessions, sessErr := s.repo.CleanupExpired(ctx)
	tokens, tokErr := s.blacklistRepo.CleanupExpired(ctx)
	if err := errors.Join(sessErr, tokErr); err != nil {
		return fmt.Errorf("cleanup expired: %w", err)
	}
	if sessions > 0 || tokens > 0 {
		zerolog.Ctx(ctx).Info().
			Int64("sessions", sessions).
			Int64("blacklisted_tokens", tokens).
			Msg("expired sessions removed")
	}
	return nil
}

// RunCleanup calls CleanupExpired every interval until ctx is done.
func (s *Service) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.CleanupExpired(ctx); err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("session cleanup failed")
			}
		}
	}
}
