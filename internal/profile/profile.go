package profile

import (
	"bookreviews/internal/review"
	"bookreviews/internal/user"
)

type Profile struct {
	User  user.User        `json:"user"`
	Stats review.UserStats `json:"stats"`
}

type UpdateCommand struct {
	Username *string `json:"username" validate:"omitempty,notblank,min=3,max=50"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	IsPublic *bool   `json:"is_public"`
}

func (c UpdateCommand) toUpdate() user.ProfileUpdate {
	return user.ProfileUpdate{
		Username: c.Username,
		Bio:      c.Bio,
		IsPublic: c.IsPublic,
	}
}
