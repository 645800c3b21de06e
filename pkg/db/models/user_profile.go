package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile extends a User with marketplace-facing profile data.
type UserProfile struct {
	UserID                 uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	ProfilePictureURL      *string   `gorm:"column:profile_picture_url"`
	Bio                    *string   `gorm:"column:bio"`
	PreferredContactMethod string    `gorm:"column:preferred_contact_method;not null;default:'email'"`
	CampusLocation         string    `gorm:"column:campus_location;not null;default:''"`
	StudentNumber          string    `gorm:"column:student_number;not null;default:''"`
	YearOfStudy            int       `gorm:"column:year_of_study;not null;default:0"`
	CreatedAt              time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
