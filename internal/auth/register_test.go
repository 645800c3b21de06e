package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/internal/users"
	"github.com/sibusisodev/campusmart-backend/pkg/config"
	pkgmodels "github.com/sibusisodev/campusmart-backend/pkg/db/models"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
)

type stubTxRunner struct{}

func (s stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	data           map[string]*pkgmodels.User
	created        *pkgmodels.User
	createdProfile *pkgmodels.UserProfile
	createErr      error
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{data: map[string]*pkgmodels.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(_ context.Context, email string) (*pkgmodels.User, error) {
	if user, ok := s.data[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*pkgmodels.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := &pkgmodels.User{
		ID:           uuid.New(),
		Email:        dto.Email,
		PasswordHash: dto.PasswordHash,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		PhoneNumber:  dto.PhoneNumber,
		IsActive:     true,
	}
	s.created = user
	s.data[user.Email] = user
	return user, nil
}

func (s *stubRegisterUserRepo) CreateProfile(_ context.Context, profile *pkgmodels.UserProfile) error {
	s.createdProfile = profile
	return nil
}

func newRegisterTestSetup(t *testing.T) (RegisterService, *stubRegisterUserRepo) {
	t.Helper()
	userRepo := newStubRegisterUserRepo()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return userRepo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc, userRepo
}

func sampleRegisterRequest(email string) RegisterRequest {
	return RegisterRequest{
		FirstName:      "Thando",
		LastName:       "Nkosi",
		Email:          email,
		Password:       "Secret123!",
		CampusLocation: "Upper Campus",
		StudentNumber:  "NKSTHA001",
		YearOfStudy:    2,
		AcceptTOS:      true,
	}
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	svc, userRepo := newRegisterTestSetup(t)
	req := sampleRegisterRequest("new@students.uct.ac.za")

	if err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if userRepo.created == nil {
		t.Fatalf("expected user to be created")
	}
	if userRepo.created.PasswordHash == req.Password {
		t.Fatalf("expected password to be hashed")
	}
	if userRepo.createdProfile == nil {
		t.Fatalf("expected profile to be created")
	}
	if userRepo.createdProfile.UserID != userRepo.created.ID {
		t.Fatalf("profile not linked to created user")
	}
	if userRepo.createdProfile.StudentNumber != req.StudentNumber {
		t.Fatalf("expected student number %q, got %q", req.StudentNumber, userRepo.createdProfile.StudentNumber)
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, userRepo := newRegisterTestSetup(t)
	req := sampleRegisterRequest("  Mixed.Case@Students.UCT.ac.za ")

	if err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if userRepo.created.Email != "mixed.case@students.uct.ac.za" {
		t.Fatalf("expected lowered email, got %q", userRepo.created.Email)
	}
}

func TestRegisterConflictOnExistingEmail(t *testing.T) {
	svc, userRepo := newRegisterTestSetup(t)
	existing := &pkgmodels.User{ID: uuid.New(), Email: "taken@students.uct.ac.za"}
	userRepo.data[existing.Email] = existing

	err := svc.Register(context.Background(), sampleRegisterRequest(existing.Email))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if userRepo.created != nil {
		t.Fatalf("expected no new user creation")
	}
}

func TestRegisterRejectsMissingTOS(t *testing.T) {
	svc, _ := newRegisterTestSetup(t)
	req := sampleRegisterRequest("tos@students.uct.ac.za")
	req.AcceptTOS = false

	err := svc.Register(context.Background(), req)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
