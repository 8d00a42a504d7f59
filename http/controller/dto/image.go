package dto

import (
	"time"

	"github.com/appleplayground/media-service/entity"
	"github.com/google/uuid"
)

type ImageResponse struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	PublicURL   string    `json:"public_url,omitempty"`
	OriginName  string    `json:"origin_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToImageResponse(image *entity.Image) ImageResponse {
	return ImageResponse{
		ID:          image.ID,
		OwnerID:     image.OwnerID,
		PublicURL:   image.PublicURL,
		OriginName:  image.OriginName,
		ContentType: image.ContentType,
		Size:        image.Size,
		Status:      string(image.Status),
		CreatedAt:   image.CreatedAt,
	}
}

func ToImageResponses(images []entity.Image) []ImageResponse {
	out := make([]ImageResponse, 0, len(images))
	for i := range images {
		out = append(out, ToImageResponse(&images[i]))
	}
	return out
}

type CreateUploadURLRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

type CompleteUploadRequest struct {
	Token string `json:"token" binding:"required"`
}

type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
