package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *models.UserProfile) error
}

// Service exposes account and profile reads/updates.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error)
}

// UpdateProfileInput holds optional profile mutations.
type UpdateProfileInput struct {
	Bio                    *string
	PreferredContactMethod *string
	CampusLocation         *string
	StudentNumber          *string
	YearOfStudy            *int
}

var allowedContactMethods = map[string]bool{
	"email":    true,
	"phone":    true,
	"whatsapp": true,
}

type service struct {
	repo userStore
}

// NewService constructs the users service.
func NewService(repo userStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return FromModel(user), nil
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ProfileFromModel(profile), nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*ProfileDTO, error) {
	profile, err := s.loadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Bio != nil {
		profile.Bio = input.Bio
	}
	if input.PreferredContactMethod != nil {
		method := strings.ToLower(strings.TrimSpace(*input.PreferredContactMethod))
		if !allowedContactMethods[method] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid preferred contact method")
		}
		profile.PreferredContactMethod = method
	}
	if input.CampusLocation != nil {
		profile.CampusLocation = strings.TrimSpace(*input.CampusLocation)
	}
	if input.StudentNumber != nil {
		profile.StudentNumber = strings.TrimSpace(*input.StudentNumber)
	}
	if input.YearOfStudy != nil {
		if *input.YearOfStudy < 0 || *input.YearOfStudy > 10 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "year of study out of range")
		}
		profile.YearOfStudy = *input.YearOfStudy
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update profile")
	}
	return ProfileFromModel(profile), nil
}

func (s *service) loadProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}
