package dto

import (
	"github.com/appleplayground/media-service/entity"
	"github.com/google/uuid"
)

type UserSummary struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	AvatarURL      string    `json:"avatar_url"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
}

func ToUserSummary(user *entity.User) UserSummary {
	return UserSummary{
		ID:             user.ID,
		Username:       user.Username,
		AvatarURL:      user.AvatarURL,
		FollowersCount: user.FollowersCount,
		FollowingCount: user.FollowingCount,
	}
}

func ToUserSummaries(users []entity.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, ToUserSummary(&users[i]))
	}
	return out
}

type CounterResponse struct {
	PostID uuid.UUID `json:"post_id"`
	Count  int64     `json:"count"`
}
