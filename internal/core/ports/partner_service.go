package ports

import (
	"context"

	"github.com/loveos/couple-api/internal/core/domain"
)

// PartnerService manages the mutual partner link between two users.
type PartnerService interface {
	LinkPartner(ctx context.Context, session domain.Session, partnerUsername string) (*domain.User, error)
	UnlinkPartner(ctx context.Context, session domain.Session) error
	// CheckLink returns the user's partner, or domain.ErrAsymmetricLink when
	// the partner does not point back. Returns nil, nil for unlinked users.
	CheckLink(ctx context.Context, user *domain.User) (*domain.User, error)
	// Reconcile scans all linked users for asymmetric links and repairs them
	// when repair is true.
	Reconcile(ctx context.Context, repair bool) (*domain.ReconcileReport, error)
}

// CoupleService builds the couple dashboard view.
type CoupleService interface {
	Summary(ctx context.Context, session domain.Session) (*domain.CoupleSummary, error)
}
