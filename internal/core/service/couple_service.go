package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/ports"
)

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// CoupleService builds the dashboard summary for a session's couple.
type CoupleService struct {
	repo     ports.UserRepository
	partners ports.PartnerService
	now      func() time.Time
}

func NewCoupleService(repo ports.UserRepository, partners ports.PartnerService) *CoupleService {
	return &CoupleService{repo: repo, partners: partners, now: time.Now}
}

// Summary fails with domain.ErrAsymmetricLink when the stored link is not
// mutual, rather than rendering a half-linked couple.
func (s *CoupleService) Summary(ctx context.Context, session domain.Session) (*domain.CoupleSummary, error) {
	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("couple summary: %w", err)
	}

	partner, err := s.partners.CheckLink(ctx, user)
	if err != nil {
		return nil, err
	}
	return buildSummary(user, partner, s.now()), nil
}

func buildSummary(user, partner *domain.User, now time.Time) *domain.CoupleSummary {
	summary := &domain.CoupleSummary{
		PartnerNames: [2]string{"Partner 1", "Partner 2"},
		MyName:       user.Name(),
		PartnerName:  "Partner",
	}

	anniversary, start := user.AnniversaryDate, user.RelationshipStart
	if partner != nil {
		summary.PartnerName = partner.Name()
		summary.Partner = &domain.PartnerInfo{
			ID:          partner.ID,
			Username:    partner.Username,
			DisplayName: partner.DisplayName,
			Role:        partner.Role,
		}
		if user.Role == domain.RoleBoyfriend {
			summary.PartnerNames = [2]string{user.Name(), partner.Name()}
		} else {
			summary.PartnerNames = [2]string{partner.Name(), user.Name()}
		}
		if anniversary == "" {
			anniversary = partner.AnniversaryDate
		}
		if start == "" {
			start = partner.RelationshipStart
		}
	}

	today := truncateDay(now)
	if d := parseDate(start); d != nil {
		summary.RelationshipStart = d
		if days := daysBetween(*d, today); days >= 0 {
			summary.DaysTogether = &days
		}
	}
	if d := parseDate(anniversary); d != nil {
		summary.AnniversaryDate = d
		next := nextOccurrence(*d, today)
		days := daysBetween(today, next)
		summary.NextAnniversary = &next
		summary.DaysUntilAnniversary = &days
	}
	return summary
}

// parseDate returns nil for empty or unparseable values.
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d := truncateDay(t)
			return &d
		}
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from whole day numbers; time.Duration
// would saturate for dates a few centuries apart.
func daysBetween(from, to time.Time) int {
	return int(dayNumber(to) - dayNumber(from))
}

func dayNumber(t time.Time) int64 {
	secs := t.Unix()
	day := secs / 86400
	if secs%86400 < 0 {
		day--
	}
	return day
}

// nextOccurrence returns the first anniversary of d on or after today.
// A 29 February date falls on 1 March in non-leap years.
func nextOccurrence(d, today time.Time) time.Time {
	next := time.Date(today.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(today) {
		next = time.Date(today.Year()+1, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	}
	return next
}
