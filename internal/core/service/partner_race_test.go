package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/service"
	"github.com/loveos/couple-api/internal/infrastructure/db/memory"
)

func TestPartnerService_ConcurrentLinkersOneWins(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		repo := memory.NewUserRepository()
		svc := service.NewPartnerService(repo, zerolog.Nop())

		create := func(name, role string) *domain.User {
			u, err := repo.Create(ctx, &domain.User{Username: name, Role: role})
			if err != nil {
				t.Fatalf("create %s: %v", name, err)
			}
			return u
		}
		a := create("a", domain.RoleBoyfriend)
		b := create("b", domain.RoleGirlfriend)
		c := create("c", domain.RoleBoyfriend)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for n, u := range []*domain.User{a, c} {
			wg.Add(1)
			go func(n int, u *domain.User) {
				defer wg.Done()
				_, errs[n] = svc.LinkPartner(ctx, domain.Session{UserID: u.ID, Username: u.Username, Role: u.Role}, "b")
			}(n, u)
		}
		wg.Wait()

		var won, lost int
		for _, err := range errs {
			switch {
			case err == nil:
				won++
			case errors.Is(err, domain.ErrConflict):
				lost++
			default:
				t.Fatalf("iteration %d: unexpected error %v", i, err)
			}
		}
		if won != 1 || lost != 1 {
			t.Fatalf("iteration %d: expected one winner and one conflict, got %v", i, errs)
		}

		gotB, _ := repo.FindByID(ctx, b.ID)
		winner := a
		if errs[1] == nil {
			winner = c
		}
		if gotB.PartnerID != winner.ID {
			t.Fatalf("iteration %d: b linked to %q, want %q", i, gotB.PartnerID, winner.ID)
		}

		report, err := svc.Reconcile(ctx, false)
		if err != nil {
			t.Fatalf("reconcile: %v", err)
		}
		if len(report.Issues) != 0 {
			t.Fatalf("iteration %d: links left asymmetric: %+v", i, report.Issues)
		}
	}
}
