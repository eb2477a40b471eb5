package ports

import (
	"context"

	"github.com/loveos/couple-api/internal/core/domain"
)

// UserRepository defines persistence for user accounts and partner links.
type UserRepository interface {
	// Create stores a new user and returns it with its generated ID.
	// Returns domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// UpdatePartner sets userID's partner reference to next only if it
	// currently equals expected ("" means null). Returns domain.ErrLinkConflict
	// when the current value differs.
	UpdatePartner(ctx context.Context, userID, expected, next string) error
	// ListLinked returns every user holding a partner reference, ordered by ID.
	ListLinked(ctx context.Context) ([]*domain.User, error)
	// WithinTransaction runs fn so that all repository calls made with the
	// ctx it receives commit or roll back together.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
