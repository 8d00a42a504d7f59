package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ImageStatus represents the lifecycle of a stored image
type ImageStatus string

const (
	// ImageStatusPending is set for presigned direct-upload flows until the
	// client confirms completion. Pending rows past ExpiresAt are swept.
	ImageStatusPending ImageStatus = "PENDING"
	ImageStatusActive  ImageStatus = "ACTIVE"
)

// Image is the metadata row for one stored object. It is created only after
// a confirmed store-side write (or as a PENDING placeholder for presigned
// flows) and is immutable once ACTIVE except for hard deletion.
type Image struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	StorageKey  string         `json:"storage_key" gorm:"type:varchar(1024);not null;uniqueIndex"`
	PublicURL   string         `json:"public_url" gorm:"type:varchar(1024)"`
	OriginName  string         `json:"origin_name" gorm:"type:varchar(512);not null"`
	ContentType string         `json:"content_type" gorm:"type:varchar(255);not null"`
	Size        int64          `json:"size" gorm:"not null"`
	Status      ImageStatus    `json:"status" gorm:"type:varchar(32);not null;default:'ACTIVE'"`
	Attributes  datatypes.JSON `json:"attributes,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty" gorm:"index"`
}
