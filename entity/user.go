package entity

import (
	"time"

	"github.com/google/uuid"
)

// User carries the denormalized relationship counters. FollowersCount and
// FollowingCount are caches of the follow edge set: they are mutated only by
// the atomic counter update in the repository layer and may be stale the
// moment they are read. Never use the struct fields as the source of truth
// for a follow decision.
type User struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Username       string    `json:"username" gorm:"type:varchar(255);not null;uniqueIndex"`
	Email          string    `json:"email" gorm:"type:varchar(255)"`
	AvatarURL      string    `json:"avatar_url" gorm:"type:varchar(1024)"`
	FollowersCount int64     `json:"followers_count" gorm:"not null;default:0"`
	FollowingCount int64     `json:"following_count" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
