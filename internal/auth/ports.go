package auth

import (
	"context"
	"time"

	"bookreviews/internal/session"
	"bookreviews/internal/user"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=auth

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *session.Session) error
	GetByTokenHash(ctx context.Context, hash string) (session.Session, error)
	DeleteByTokenHash(ctx context.Context, hash string) error
	Blacklist(ctx context.Context, jti, userID string, expiresAt time.Time) error
}
