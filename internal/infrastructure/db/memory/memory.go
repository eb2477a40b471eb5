// Package memory provides process-local implementations of the storage ports
// for development runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/loveos/couple-api/internal/core/domain"
)

// UserRepository keeps users in a map. WithinTransaction serialises
// transactions and, when the callback fails, undoes only the partner writes
// made through the transaction's context.
type UserRepository struct {
	txMu  sync.Mutex
	mu    sync.RWMutex
	users map[string]*domain.User
}

type txKey struct{}

// partnerWrite is one UpdatePartner call recorded for rollback.
type partnerWrite struct {
	userID, prev, next string
}

type txLog struct {
	repo   *UserRepository
	writes []partnerWrite
}

func (r *UserRepository) txFrom(ctx context.Context) *txLog {
	tx, _ := ctx.Value(txKey{}).(*txLog)
	if tx == nil || tx.repo != r {
		return nil
	}
	return tx
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func clone(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	created := clone(user)
	created.ID = uuid.NewString()
	r.users[created.ID] = clone(created)
	return created, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) UpdatePartner(ctx context.Context, userID, expected, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.PartnerID != expected {
		return domain.ErrLinkConflict
	}
	u.PartnerID = next
	u.UpdatedAt = time.Now().UTC()
	if tx := r.txFrom(ctx); tx != nil {
		tx.writes = append(tx.writes, partnerWrite{userID: userID, prev: expected, next: next})
	}
	return nil
}

func (r *UserRepository) ListLinked(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.User
	for _, u := range r.users {
		if u.Linked() {
			out = append(out, clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &txLog{repo: r}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		r.rollback(tx)
		return err
	}
	return nil
}

// rollback reverts the logged writes newest first. An entry that someone else
// has overwritten since is left alone.
func (r *UserRepository) rollback(tx *txLog) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(tx.writes) - 1; i >= 0; i-- {
		w := tx.writes[i]
		u, ok := r.users[w.userID]
		if !ok || u.PartnerID != w.next {
			continue
		}
		u.PartnerID = w.prev
		u.UpdatedAt = time.Now().UTC()
	}
}

// RevocationStore remembers revoked token IDs until their expiry.
type RevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewRevocationStore() *RevocationStore {
	return &RevocationStore{revoked: make(map[string]time.Time), now: time.Now}
}

func (s *RevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.revoked {
		if now.After(exp) {
			delete(s.revoked, id)
		}
	}
	s.revoked[tokenID] = until
	return nil
}

func (s *RevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.revoked[tokenID]
	return ok, nil
}
