package ports

import (
	"context"
	"time"
)

// TokenRevocationStore records bearer tokens that were logged out before expiry.
type TokenRevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
