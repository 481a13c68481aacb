package profile

import (
	"context"

	"bookreviews/internal/review"
	"bookreviews/internal/user"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=profile

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	UpdateProfile(ctx context.Context, userID string, p user.ProfileUpdate) (user.User, error)
}

type StatsSource interface {
	Stats(ctx context.Context, userID string) (review.UserStats, error)
}
