package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
)

// Repository persists and loads user rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a user repository over the given GORM handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user row and hands back the stored model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail looks a user up by their email address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID looks a user up by primary key.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps last_login_at for the user.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// CreateProfile inserts an empty marketplace profile for a new user.
func (r *Repository) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// FindProfile loads a user's marketplace profile.
func (r *Repository) FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile saves the mutable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("user_id = ?", profile.UserID).
		Updates(map[string]any{
			"bio":                      profile.Bio,
			"preferred_contact_method": profile.PreferredContactMethod,
			"campus_location":          profile.CampusLocation,
			"student_number":           profile.StudentNumber,
			"year_of_study":            profile.YearOfStudy,
		}).Error
}
