package ports

import (
	"context"
	"time"

	"github.com/loveos/couple-api/internal/core/domain"
)

// Authenticator verifies a credential pair and returns the matching user ID.
type Authenticator interface {
	Verify(ctx context.Context, username, secret string) (string, error)
}

// RegisterInput carries the fields accepted at registration. Provisioning
// may supply a bcrypt PasswordHash instead of Password.
type RegisterInput struct {
	Username          string
	Password          string
	PasswordHash      string
	Role              string
	DisplayName       string
	AnniversaryDate   string
	RelationshipStart string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	User        *domain.User
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	// Authenticate resolves a bearer token to a session.
	Authenticate(ctx context.Context, token string) (domain.Session, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, session domain.Session) error
}
