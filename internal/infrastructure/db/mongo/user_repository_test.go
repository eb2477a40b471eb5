package mongo

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/loveos/couple-api/internal/core/domain"
)

func TestUserDocument_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	created := time.Date(2024, 2, 14, 9, 30, 0, 0, time.UTC)
	doc := userDocument{
		ID:              oid,
		Username:        "girlfriend",
		Role:            "girlfriend",
		DisplayName:     "Alex",
		PartnerID:       "65f000000000000000000001",
		AnniversaryDate: "2023-02-14",
		CreatedAt:       created.Unix(),
	}

	u := doc.toDomain()
	if u.ID != oid.Hex() {
		t.Fatalf("expected hex id %s, got %s", oid.Hex(), u.ID)
	}
	if u.PartnerID != doc.PartnerID || u.DisplayName != "Alex" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !u.CreatedAt.Equal(created) {
		t.Fatalf("expected created_at %v, got %v", created, u.CreatedAt)
	}
	if !u.UpdatedAt.IsZero() {
		t.Fatalf("expected zero updated_at for missing timestamp, got %v", u.UpdatedAt)
	}
}

func TestUserRepository_MalformedIDs(t *testing.T) {
	r := &UserRepository{}

	if _, err := r.FindByID(context.Background(), "not-an-object-id"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := r.UpdatePartner(context.Background(), "nope", "", "x"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestConfig_ClientOptions(t *testing.T) {
	opts := Config{URI: "mongodb://db:27017", MaxPoolSize: 20}.clientOptions()
	if opts.AppName == nil || *opts.AppName != appName {
		t.Fatalf("expected app name %q, got %v", appName, opts.AppName)
	}
	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != 20 {
		t.Fatalf("expected pool size 20, got %v", opts.MaxPoolSize)
	}
	if opts.ServerSelectionTimeout == nil || *opts.ServerSelectionTimeout != defaultTimeout {
		t.Fatalf("expected default selection timeout, got %v", opts.ServerSelectionTimeout)
	}
}

func TestConnect_RequiresDatabase(t *testing.T) {
	if _, _, err := Connect(context.Background(), Config{URI: "mongodb://localhost:27017"}); err == nil {
		t.Fatalf("expected error for empty database name")
	}
}
