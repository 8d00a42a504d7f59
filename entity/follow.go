package entity

import (
	"time"

	"github.com/google/uuid"
)

// Follow is one edge of the relationship graph: FollowerID follows
// FollowingID. The composite unique index makes duplicate follows impossible
// at the storage layer; self-follows are rejected before insertion.
type Follow struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FollowerID  uuid.UUID `json:"follower_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_follower_following"`
	FollowingID uuid.UUID `json:"following_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
}
