package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/loveos/couple-api/internal/core/domain"
)

func TestPasswordAuthenticator_Verify(t *testing.T) {
	repo := newStubUserRepo()
	hash, _ := bcrypt.GenerateFromPassword([]byte("love123"), bcrypt.MinCost)
	repo.seed("u01", "boyfriend", domain.RoleBoyfriend, "")
	repo.users["u01"].PasswordHash = string(hash)
	auth := NewPasswordAuthenticator(repo)

	id, err := auth.Verify(context.Background(), "Boyfriend", "love123")
	if err != nil || id != "u01" {
		t.Fatalf("expected u01, got %q, %v", id, err)
	}

	for _, tc := range []struct{ username, secret string }{
		{"boyfriend", "wrong"},
		{"boyfriend", ""},
		{"", "love123"},
		{"stranger", "love123"},
	} {
		if _, err := auth.Verify(context.Background(), tc.username, tc.secret); err != domain.ErrInvalidCredentials {
			t.Errorf("Verify(%q, %q): expected ErrInvalidCredentials, got %v", tc.username, tc.secret, err)
		}
	}
}
