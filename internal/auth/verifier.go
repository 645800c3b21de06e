package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/sibusisodev/campusmart-backend/pkg/db/models"
	pkgerrors "github.com/sibusisodev/campusmart-backend/pkg/errors"
	"github.com/sibusisodev/campusmart-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// CredentialVerifier checks a credential pair and returns the matching user.
// Implementations must return an unauthorized error for unknown emails and
// wrong passwords alike, never revealing which one failed.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*models.User, error)
}

type argonVerifier struct {
	users userRepository
}

// NewCredentialVerifier builds the Argon2id-backed verifier used in
// production.
func NewCredentialVerifier(users userRepository) (CredentialVerifier, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &argonVerifier{users: users}, nil
}

func (v *argonVerifier) Verify(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := v.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}
