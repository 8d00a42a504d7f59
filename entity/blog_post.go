package entity

import (
	"time"

	"github.com/google/uuid"
)

// BlogPost holds only what the engagement counters need. Post CRUD lives in
// another service; LikeCount and ViewCount are mutated solely through the
// atomic counter update and are caches, same contract as User counters.
type BlogPost struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	AuthorID  uuid.UUID `json:"author_id" gorm:"type:uuid;not null;index"`
	Title     string    `json:"title" gorm:"type:varchar(512);not null"`
	LikeCount int64     `json:"like_count" gorm:"not null;default:0"`
	ViewCount int64     `json:"view_count" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
