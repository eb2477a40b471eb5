package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/ports"
)

// dummyHash is compared against when the username is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-user-password"), bcrypt.DefaultCost)

// PasswordAuthenticator verifies credentials against bcrypt hashes held by
// the user repository.
type PasswordAuthenticator struct {
	repo ports.UserRepository
}

func NewPasswordAuthenticator(repo ports.UserRepository) *PasswordAuthenticator {
	return &PasswordAuthenticator{repo: repo}
}

// Verify returns the user ID for a valid username/password pair. Unknown
// users and wrong passwords both yield domain.ErrInvalidCredentials.
func (a *PasswordAuthenticator) Verify(ctx context.Context, username, secret string) (string, error) {
	username = domain.NormalizeUsername(username)
	if username == "" || secret == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := a.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(secret))
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("verify credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)) != nil {
		return "", domain.ErrInvalidCredentials
	}
	return user.ID, nil
}
