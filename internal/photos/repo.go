package photos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
)

// Repository persists photo metadata rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a photo repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a photo record.
func (r *Repository) Create(ctx context.Context, photo *models.ItemPhoto) (*models.ItemPhoto, error) {
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return nil, err
	}
	return photo, nil
}

// FindByID retrieves a photo record by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ItemPhoto, error) {
	var photo models.ItemPhoto
	if err := r.db.WithContext(ctx).First(&photo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// Delete removes a photo record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ItemPhoto{}).Error
}

// ListForItem returns an item's photos ordered by position ascending.
func (r *Repository) ListForItem(ctx context.Context, itemID uuid.UUID) ([]models.ItemPhoto, error) {
	var rows []models.ItemPhoto
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListForUser returns a user's profile pictures, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ItemPhoto, error) {
	var rows []models.ItemPhoto
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountForItem counts the photos currently attached to an item.
func (r *Repository) CountForItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ItemPhoto{}).
		Where("item_id = ?", itemID).
		Count(&count).Error
	return count, err
}

// UpdatePosition assigns a new ordinal position to one record.
func (r *Repository) UpdatePosition(ctx context.Context, id uuid.UUID, position int) error {
	return r.db.WithContext(ctx).
		Model(&models.ItemPhoto{}).
		Where("id = ?", id).
		Update("position", position).Error
}

// TouchItem bumps the parent item's updated_at marker.
func (r *Repository) TouchItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Item{}).
		Where("id = ?", itemID).
		Update("updated_at", time.Now().UTC()).Error
}

// SetProfilePictureURL points a user's profile at the given URL.
func (r *Repository) SetProfilePictureURL(ctx context.Context, userID uuid.UUID, url *string) error {
	return r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Update("profile_picture_url", url).Error
}

// StatsForUser aggregates the user's photo footprint: photos on their
// listings, profile pictures, and total stored bytes across both.
func (r *Repository) StatsForUser(ctx context.Context, userID uuid.UUID) (*UserPhotoStats, error) {
	var stats UserPhotoStats
	err := r.db.WithContext(ctx).Raw(`
SELECT
  COUNT(*) FILTER (WHERE p.item_id IS NOT NULL) AS item_photo_count,
  COUNT(*) FILTER (WHERE p.user_id IS NOT NULL) AS profile_photo_count,
  COALESCE(SUM(p.size_bytes), 0) AS total_bytes
FROM item_photos p
LEFT JOIN items i ON i.id = p.item_id
WHERE p.user_id = ? OR i.seller_id = ?`, userID, userID).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
