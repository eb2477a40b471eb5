package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/ports"
)

// PartnerService maintains the mutual partner reference between two users.
//
// Both sides of a link are written inside one repository transaction using
// compare-and-set updates. Stores that cannot roll back get a compensating
// write instead, and Reconcile repairs anything a crash leaves behind.
type PartnerService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewPartnerService(repo ports.UserRepository, log zerolog.Logger) *PartnerService {
	return &PartnerService{repo: repo, log: log}
}

// LinkPartner links the session's user and partnerUsername to each other and
// returns the updated partner.
func (s *PartnerService) LinkPartner(ctx context.Context, session domain.Session, partnerUsername string) (*domain.User, error) {
	requester, err := s.requester(ctx, session)
	if err != nil {
		return nil, err
	}

	username := domain.NormalizeUsername(partnerUsername)
	if username == "" {
		return nil, domain.ErrPartnerNotFound
	}
	partner, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrPartnerNotFound
		}
		return nil, fmt.Errorf("link partner: %w", err)
	}

	switch {
	case partner.ID == requester.ID:
		return nil, domain.ErrSelfLink
	case requester.PartnerID == partner.ID && partner.PartnerID == requester.ID:
		return partner, nil
	case requester.PartnerID != "" && requester.PartnerID != partner.ID:
		return nil, domain.ErrAlreadyLinked
	case partner.PartnerID != "" && partner.PartnerID != requester.ID:
		return nil, domain.ErrPartnerTaken
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdatePartner(ctx, requester.ID, requester.PartnerID, partner.ID); err != nil {
			return fmt.Errorf("set requester partner: %w", err)
		}
		if err := s.repo.UpdatePartner(ctx, partner.ID, partner.PartnerID, requester.ID); err != nil {
			return fmt.Errorf("set partner partner: %w", err)
		}
		return nil
	})
	if err != nil {
		s.compensate(ctx, requester, partner.ID)
		return nil, fmt.Errorf("link partner: %w", err)
	}

	s.log.Info().Str("user_id", requester.ID).Str("partner_id", partner.ID).Msg("partners linked")
	partner.PartnerID = requester.ID
	return partner, nil
}

// compensate restores the requester's previous partner reference when a
// failed link left the first write in place.
func (s *PartnerService) compensate(ctx context.Context, requester *domain.User, partnerID string) {
	if requester.PartnerID == partnerID {
		return
	}
	ctx = context.WithoutCancel(ctx)

	current, err := s.repo.FindByID(ctx, requester.ID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", requester.ID).Msg("compensation lookup failed")
		return
	}
	if current.PartnerID != partnerID {
		return
	}

	if err := s.repo.UpdatePartner(ctx, requester.ID, partnerID, requester.PartnerID); err != nil {
		s.log.Error().Err(err).
			Str("user_id", requester.ID).
			Str("partner_id", partnerID).
			Msg("compensation failed, link left asymmetric until reconciliation")
		return
	}
	s.log.Warn().Str("user_id", requester.ID).Str("partner_id", partnerID).Msg("half-written partner link rolled back")
}

// UnlinkPartner clears the session user's partner reference and, when it
// points back, the partner's as well.
func (s *PartnerService) UnlinkPartner(ctx context.Context, session domain.Session) error {
	requester, err := s.requester(ctx, session)
	if err != nil {
		return err
	}
	if !requester.Linked() {
		return domain.ErrNotLinked
	}

	partner, err := s.repo.FindByID(ctx, requester.PartnerID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("unlink partner: %w", err)
	}

	err = s.repo.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdatePartner(ctx, requester.ID, requester.PartnerID, ""); err != nil {
			return fmt.Errorf("clear requester partner: %w", err)
		}
		if partner != nil && partner.PartnerID == requester.ID {
			if err := s.repo.UpdatePartner(ctx, partner.ID, requester.ID, ""); err != nil {
				return fmt.Errorf("clear partner partner: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("unlink partner: %w", err)
	}

	s.log.Info().Str("user_id", requester.ID).Str("partner_id", requester.PartnerID).Msg("partners unlinked")
	return nil
}

func (s *PartnerService) CheckLink(ctx context.Context, user *domain.User) (*domain.User, error) {
	if !user.Linked() {
		return nil, nil
	}

	partner, err := s.repo.FindByID(ctx, user.PartnerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("partner %s missing: %w", user.PartnerID, domain.ErrAsymmetricLink)
		}
		return nil, fmt.Errorf("check link: %w", err)
	}
	if partner.PartnerID != user.ID {
		s.log.Warn().Str("user_id", user.ID).Str("partner_id", partner.ID).Msg("asymmetric partner link detected")
		return nil, domain.ErrAsymmetricLink
	}
	return partner, nil
}

// Reconcile walks every linked user in ID order. One-sided links (partner
// reference null) are rolled forward; links to a missing user or to a user
// linked elsewhere are cleared.
func (s *PartnerService) Reconcile(ctx context.Context, repair bool) (*domain.ReconcileReport, error) {
	linked, err := s.repo.ListLinked(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}

	state := make(map[string]*domain.User, len(linked))
	for _, u := range linked {
		state[u.ID] = u
	}

	report := &domain.ReconcileReport{Checked: len(linked), Issues: []domain.LinkIssue{}}
	for _, u := range linked {
		if !u.Linked() {
			continue
		}

		partner, ok := state[u.PartnerID]
		if !ok {
			partner, err = s.repo.FindByID(ctx, u.PartnerID)
			switch {
			case errors.Is(err, domain.ErrUserNotFound):
				partner = nil
			case err != nil:
				return nil, fmt.Errorf("reconcile: %w", err)
			default:
				state[partner.ID] = partner
			}
		}
		if partner != nil && partner.PartnerID == u.ID {
			continue
		}

		issue := domain.LinkIssue{UserID: u.ID, PartnerID: u.PartnerID, Action: domain.ActionNone}
		switch {
		case partner == nil:
			issue.Kind = domain.IssueMissingPartner
		case partner.PartnerID == "":
			issue.Kind = domain.IssueOneSided
		default:
			issue.Kind = domain.IssueConflicting
		}

		if repair {
			action, err := s.repair(ctx, u, partner, issue.Kind)
			if err != nil {
				s.log.Error().Err(err).Str("user_id", u.ID).Str("kind", issue.Kind).Msg("link repair failed")
			} else {
				issue.Action = action
			}
		}
		report.Issues = append(report.Issues, issue)
	}

	return report, nil
}

func (s *PartnerService) repair(ctx context.Context, u, partner *domain.User, kind string) (string, error) {
	if kind == domain.IssueOneSided {
		if err := s.repo.UpdatePartner(ctx, partner.ID, "", u.ID); err != nil {
			return "", err
		}
		partner.PartnerID = u.ID
		s.log.Warn().Str("user_id", partner.ID).Str("partner_id", u.ID).Msg("one-sided link rolled forward")
		return domain.ActionRollForward, nil
	}

	if err := s.repo.UpdatePartner(ctx, u.ID, u.PartnerID, ""); err != nil {
		return "", err
	}
	s.log.Warn().Str("user_id", u.ID).Str("partner_id", u.PartnerID).Str("kind", kind).Msg("dangling link cleared")
	u.PartnerID = ""
	return domain.ActionCleared, nil
}

func (s *PartnerService) requester(ctx context.Context, session domain.Session) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return user, nil
}
