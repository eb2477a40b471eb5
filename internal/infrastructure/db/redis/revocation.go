package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// minRevocationTTL keeps a revocation entry alive briefly even for a token
// that is already at its expiry, covering clock skew between replicas.
const minRevocationTTL = time.Minute

// RevocationStore records logged-out token IDs in Redis until the token
// would have expired on its own.
// Key format: revoked:<token_id>
type RevocationStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocationStore creates a RevocationStore wrapping the given Redis client.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client, now: time.Now}
}

func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if err := s.client.Set(ctx, revocationKey(tokenID), "1", s.ttl(until)).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (s *RevocationStore) ttl(until time.Time) time.Duration {
	ttl := until.Sub(s.now())
	if ttl < minRevocationTTL {
		return minRevocationTTL
	}
	return ttl
}

func revocationKey(tokenID string) string {
	return fmt.Sprintf("revoked:%s", tokenID)
}
