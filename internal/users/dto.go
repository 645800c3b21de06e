package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
)

// UserDTO is the outward user shape. Credential fields never leave the service.
type UserDTO struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	PhoneNumber   *string    `json:"phone_number,omitempty"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProfileDTO is the transport shape of a user's marketplace profile.
type ProfileDTO struct {
	UserID                 uuid.UUID `json:"user_id"`
	ProfilePictureURL      *string   `json:"profile_picture_url,omitempty"`
	Bio                    *string   `json:"bio,omitempty"`
	PreferredContactMethod string    `json:"preferred_contact_method"`
	CampusLocation         string    `json:"campus_location"`
	StudentNumber          string    `json:"student_number"`
	YearOfStudy            int       `json:"year_of_study"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// CreateUserDTO carries the fields needed to insert a new user.
type CreateUserDTO struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	PhoneNumber  *string
	IsActive     *bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		PhoneNumber:   u.PhoneNumber,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func ProfileFromModel(p *models.UserProfile) *ProfileDTO {
	if p == nil {
		return nil
	}

	return &ProfileDTO{
		UserID:                 p.UserID,
		ProfilePictureURL:      p.ProfilePictureURL,
		Bio:                    p.Bio,
		PreferredContactMethod: p.PreferredContactMethod,
		CampusLocation:         p.CampusLocation,
		StudentNumber:          p.StudentNumber,
		YearOfStudy:            p.YearOfStudy,
		UpdatedAt:              p.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	return &models.User{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		PhoneNumber:  c.PhoneNumber,
		IsActive:     isActive,
	}
}
