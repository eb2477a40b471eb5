package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/loveos/couple-api/internal/core/domain"
)

var errWriteFailed = errors.New("write failed")

// ---------------------------------------------------------------------------
// In-memory user repository
// ---------------------------------------------------------------------------

// stubUserRepo keeps users in memory. With transactional set, a failing
// WithinTransaction callback rolls every write back; without it writes stick,
// mimicking a store with no transaction support. failUpdates lists the
// 1-based UpdatePartner calls that should fail.
type stubUserRepo struct {
	mu            sync.Mutex
	users         map[string]*domain.User
	nextID        int
	transactional bool
	failUpdates   map[int]bool
	updateCalls   int
	txCalls       int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		users:         make(map[string]*domain.User),
		transactional: true,
		failUpdates:   make(map[int]bool),
	}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	created.ID = fmt.Sprintf("u%02d", r.nextID)
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdatePartner(_ context.Context, userID, expected, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updateCalls++
	if r.failUpdates[r.updateCalls] {
		return errWriteFailed
	}
	u, ok := r.users[userID]
	if !ok || u.PartnerID != expected {
		return domain.ErrLinkConflict
	}
	u.PartnerID = next
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *stubUserRepo) ListLinked(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.User
	for _, u := range r.users {
		if u.PartnerID != "" {
			out = append(out, cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubUserRepo) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	r.txCalls++
	snapshot := make(map[string]*domain.User, len(r.users))
	for id, u := range r.users {
		snapshot[id] = cloneUser(u)
	}
	r.mu.Unlock()

	if err := fn(ctx); err != nil {
		if r.transactional {
			r.mu.Lock()
			r.users = snapshot
			r.mu.Unlock()
		}
		return err
	}
	return nil
}

// seed inserts a user directly, bypassing registration.
func (r *stubUserRepo) seed(id, username, role, partnerID string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := &domain.User{
		ID:          id,
		Username:    username,
		Role:        role,
		DisplayName: username,
		PartnerID:   partnerID,
	}
	r.users[id] = u
	return cloneUser(u)
}

func (r *stubUserRepo) partnerOf(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].PartnerID
}

// ---------------------------------------------------------------------------
// Revocation store
// ---------------------------------------------------------------------------

type stubRevocations struct {
	revoked  map[string]time.Time
	checkErr error
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{revoked: make(map[string]time.Time)}
}

func (s *stubRevocations) Revoke(_ context.Context, tokenID string, until time.Time) error {
	s.revoked[tokenID] = until
	return nil
}

func (s *stubRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if s.checkErr != nil {
		return false, s.checkErr
	}
	_, ok := s.revoked[tokenID]
	return ok, nil
}
