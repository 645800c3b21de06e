package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

type stubUserStore struct {
	users    map[uuid.UUID]*models.User
	profiles map[uuid.UUID]*models.UserProfile
	updated  *models.UserProfile
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{
		users:    map[uuid.UUID]*models.User{},
		profiles: map[uuid.UUID]*models.UserProfile{},
	}
}

func (s *stubUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserStore) FindProfile(_ context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *profile
	return &clone, nil
}

func (s *stubUserStore) UpdateProfile(_ context.Context, profile *models.UserProfile) error {
	s.profiles[profile.UserID] = profile
	s.updated = profile
	return nil
}

func newUserTestSetup(t *testing.T) (Service, *stubUserStore) {
	t.Helper()
	store := newStubUserStore()
	svc, err := NewService(store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func strPtr(value string) *string { return &value }

func intPtr(value int) *int { return &value }

func TestGetUnknownUser(t *testing.T) {
	svc, _ := newUserTestSetup(t)

	_, err := svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateProfileAppliesPartialChanges(t *testing.T) {
	svc, store := newUserTestSetup(t)
	userID := uuid.New()
	store.profiles[userID] = &models.UserProfile{
		UserID:                 userID,
		PreferredContactMethod: "email",
		CampusLocation:         "Lower Campus",
		StudentNumber:          "NKSTHA001",
		YearOfStudy:            1,
	}

	dto, err := svc.UpdateProfile(context.Background(), userID, UpdateProfileInput{
		Bio:                    strPtr("Selling textbooks and kitchen gear"),
		PreferredContactMethod: strPtr("WhatsApp"),
		YearOfStudy:            intPtr(2),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Bio == nil || *dto.Bio != "Selling textbooks and kitchen gear" {
		t.Fatalf("bio not applied")
	}
	if dto.PreferredContactMethod != "whatsapp" {
		t.Fatalf("expected normalized contact method, got %q", dto.PreferredContactMethod)
	}
	if dto.YearOfStudy != 2 {
		t.Fatalf("expected year 2, got %d", dto.YearOfStudy)
	}
	if dto.StudentNumber != "NKSTHA001" {
		t.Fatalf("untouched field changed: %q", dto.StudentNumber)
	}
}

func TestUpdateProfileRejectsBadContactMethod(t *testing.T) {
	svc, store := newUserTestSetup(t)
	userID := uuid.New()
	store.profiles[userID] = &models.UserProfile{UserID: userID, PreferredContactMethod: "email"}

	_, err := svc.UpdateProfile(context.Background(), userID, UpdateProfileInput{
		PreferredContactMethod: strPtr("carrier pigeon"),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.updated != nil {
		t.Fatalf("expected no write")
	}
}

func TestUpdateProfileRejectsYearOutOfRange(t *testing.T) {
	svc, store := newUserTestSetup(t)
	userID := uuid.New()
	store.profiles[userID] = &models.UserProfile{UserID: userID, PreferredContactMethod: "email"}

	_, err := svc.UpdateProfile(context.Background(), userID, UpdateProfileInput{
		YearOfStudy: intPtr(42),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
