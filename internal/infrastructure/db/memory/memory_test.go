package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loveos/couple-api/internal/core/domain"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.User{Username: "boyfriend", Role: domain.RoleBoyfriend})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = repo.Create(ctx, &domain.User{Username: "boyfriend", Role: domain.RoleBoyfriend})
	assert.Equal(t, domain.ErrUserExists, err)

	byName, err := repo.FindByUsername(ctx, "boyfriend")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = repo.FindByID(ctx, "missing")
	assert.Equal(t, domain.ErrUserNotFound, err)
}

func TestUserRepository_UpdatePartnerCompareAndSet(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	a, _ := repo.Create(ctx, &domain.User{Username: "a", Role: domain.RoleBoyfriend})
	b, _ := repo.Create(ctx, &domain.User{Username: "b", Role: domain.RoleGirlfriend})

	require.NoError(t, repo.UpdatePartner(ctx, a.ID, "", b.ID))
	assert.Equal(t, domain.ErrLinkConflict, repo.UpdatePartner(ctx, a.ID, "", b.ID))

	linked, err := repo.ListLinked(ctx)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, b.ID, linked[0].PartnerID)
}

func TestUserRepository_TransactionRollsBack(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	a, _ := repo.Create(ctx, &domain.User{Username: "a", Role: domain.RoleBoyfriend})
	b, _ := repo.Create(ctx, &domain.User{Username: "b", Role: domain.RoleGirlfriend})

	boom := errors.New("boom")
	err := repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := repo.UpdatePartner(ctx, a.ID, "", b.ID); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, _ := repo.FindByID(ctx, a.ID)
	assert.Empty(t, got.PartnerID)
}

func TestRevocationStore(t *testing.T) {
	store := NewRevocationStore()
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "t1", time.Now().Add(-time.Minute)))
	revoked, _ = store.IsRevoked(ctx, "t1")
	assert.True(t, revoked)

	require.NoError(t, store.Revoke(ctx, "t2", time.Now().Add(time.Hour)))
	revoked, _ = store.IsRevoked(ctx, "t1")
	assert.False(t, revoked, "expired entries are pruned on the next revoke")
}

func TestUserRepository_RollbackKeepsConcurrentWrites(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	a, _ := repo.Create(ctx, &domain.User{Username: "a", Role: domain.RoleBoyfriend})
	b, _ := repo.Create(ctx, &domain.User{Username: "b", Role: domain.RoleGirlfriend})
	c, _ := repo.Create(ctx, &domain.User{Username: "c", Role: domain.RoleGirlfriend})

	boom := errors.New("boom")
	err := repo.WithinTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.UpdatePartner(txCtx, a.ID, "", b.ID))

		done := make(chan error, 1)
		go func() {
			if _, err := repo.Create(ctx, &domain.User{Username: "newcomer", Role: domain.RoleBoyfriend}); err != nil {
				done <- err
				return
			}
			done <- repo.UpdatePartner(ctx, c.ID, "", b.ID)
		}()
		require.NoError(t, <-done)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.FindByUsername(ctx, "newcomer")
	assert.NoError(t, err, "user created during a failed transaction must survive")

	gotA, _ := repo.FindByID(ctx, a.ID)
	assert.Empty(t, gotA.PartnerID)
	gotC, _ := repo.FindByID(ctx, c.ID)
	assert.Equal(t, b.ID, gotC.PartnerID, "writes outside the transaction are not rolled back")
}

func TestUserRepository_RollbackSkipsOverwrittenEntries(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()
	a, _ := repo.Create(ctx, &domain.User{Username: "a", Role: domain.RoleBoyfriend})
	b, _ := repo.Create(ctx, &domain.User{Username: "b", Role: domain.RoleGirlfriend})
	c, _ := repo.Create(ctx, &domain.User{Username: "c", Role: domain.RoleGirlfriend})

	err := repo.WithinTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, repo.UpdatePartner(txCtx, a.ID, "", b.ID))
		require.NoError(t, repo.UpdatePartner(ctx, a.ID, b.ID, c.ID))
		return errors.New("boom")
	})
	require.Error(t, err)

	got, _ := repo.FindByID(ctx, a.ID)
	assert.Equal(t, c.ID, got.PartnerID)
}
