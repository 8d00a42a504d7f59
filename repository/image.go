package repository

import (
	"context"
	"time"

	"github.com/appleplayground/media-service/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(ctx context.Context, image *entity.Image) error {
	return r.db.WithContext(ctx).Create(image).Error
}

func (r *ImageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	var image entity.Image
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

func (r *ImageRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]entity.Image, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var images []entity.Image
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, entity.ImageStatusActive).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}

func (r *ImageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entity.Image{}, "id = ?", id).Error
}

// Activate flips a pending row to active once the presigned upload is
// confirmed, filling in the values that were placeholders at presign time.
func (r *ImageRepository) Activate(ctx context.Context, id uuid.UUID, size int64, publicURL string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Image{}).
		Where("id = ? AND status = ?", id, entity.ImageStatusPending).
		Updates(map[string]interface{}{
			"size":       size,
			"public_url": publicURL,
			"status":     entity.ImageStatusActive,
			"expires_at": nil,
		}).Error
}

// FindExpiredPending returns pending rows whose presign window has lapsed
func (r *ImageRepository) FindExpiredPending(ctx context.Context, now time.Time, limit int) ([]entity.Image, error) {
	var images []entity.Image
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", entity.ImageStatusPending, now).
		Limit(limit).
		Find(&images).Error
	if err != nil {
		return nil, err
	}
	return images, nil
}
