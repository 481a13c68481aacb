package profile

import (
	"context"
	"fmt"

	"bookreviews/internal/user"
)

type Service struct {
	users   UserStore
	reviews StatsSource
}

func NewService(users UserStore, reviews StatsSource) *Service {
	return &Service{users: users, reviews: reviews}
}

func (s *Service) GetOwnProfile(ctx context.Context, userID string) (Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return s.withStats(ctx, u)
}

// GetPublicProfile returns the public view of a user. Private profiles are
// reported as not found to everyone except their owner.
func (s *Service) GetPublicProfile(ctx context.Context, userID, requesterID string) (Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if !u.IsPublic && u.ID != requesterID {
		return Profile{}, user.ErrNotFound
	}
	return s.withStats(ctx, u.Public())
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, cmd UpdateCommand) (Profile, error) {
	u, err := s.users.UpdateProfile(ctx, userID, cmd.toUpdate())
	if err != nil {
		return Profile{}, err
	}
	return s.withStats(ctx, u)
}

func (s *Service) withStats(ctx context.Context, u user.User) (Profile, error) {
	stats, err := s.reviews.Stats(ctx, u.ID)
	if err != nil {
		return Profile{}, fmt.Errorf("review stats: %w", err)
	}
	return Profile{User: u, Stats: stats}, nil
}
