// Package seed provisions accounts and couples from a YAML file at startup.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/ports"
)

// Account is one seeded user. Partner names another account's username.
type Account struct {
	Username          string `yaml:"username"`
	Password          string `yaml:"password"`
	PasswordHash      string `yaml:"password_hash"`
	Role              string `yaml:"role"`
	DisplayName       string `yaml:"display_name"`
	AnniversaryDate   string `yaml:"anniversary_date"`
	RelationshipStart string `yaml:"relationship_start"`
	Partner           string `yaml:"partner"`
}

type File struct {
	Accounts []Account `yaml:"accounts"`
}

// Result counts what a seeding run changed.
type Result struct {
	Created int
	Skipped int
	Linked  int
}

// Parse decodes a seed document, rejecting unknown keys.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses the seed file at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}

type Seeder struct {
	auth     ports.AuthService
	partners ports.PartnerService
	users    ports.UserRepository
	log      zerolog.Logger
}

func NewSeeder(auth ports.AuthService, partners ports.PartnerService, users ports.UserRepository, log zerolog.Logger) *Seeder {
	return &Seeder{auth: auth, partners: partners, users: users, log: log}
}

// Apply creates missing accounts, then links declared couples. Existing
// accounts are left untouched and rerunning Apply is a no-op.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{}

	for _, a := range f.Accounts {
		_, err := s.auth.Register(ctx, ports.RegisterInput{
			Username:          a.Username,
			Password:          a.Password,
			PasswordHash:      a.PasswordHash,
			Role:              a.Role,
			DisplayName:       a.DisplayName,
			AnniversaryDate:   a.AnniversaryDate,
			RelationshipStart: a.RelationshipStart,
		})
		switch {
		case errors.Is(err, domain.ErrUserExists):
			res.Skipped++
		case err != nil:
			return res, fmt.Errorf("seed account %q: %w", a.Username, err)
		default:
			res.Created++
		}
	}

	for _, a := range f.Accounts {
		if a.Partner == "" {
			continue
		}
		linked, err := s.link(ctx, a)
		if err != nil {
			return res, err
		}
		if linked {
			res.Linked++
		}
	}

	s.log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("linked", res.Linked).
		Msg("seed applied")
	return res, nil
}

func (s *Seeder) link(ctx context.Context, a Account) (bool, error) {
	user, err := s.users.FindByUsername(ctx, domain.NormalizeUsername(a.Username))
	if err != nil {
		return false, fmt.Errorf("seed link %q: %w", a.Username, err)
	}
	partnerUsername := domain.NormalizeUsername(a.Partner)
	if user.Linked() {
		partner, err := s.users.FindByID(ctx, user.PartnerID)
		if err == nil && partner.Username == partnerUsername && partner.PartnerID == user.ID {
			return false, nil
		}
	}

	session := domain.Session{UserID: user.ID, Username: user.Username, Role: user.Role}
	if _, err := s.partners.LinkPartner(ctx, session, partnerUsername); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Err(err).Str("username", user.Username).Str("partner", partnerUsername).Msg("seed link skipped")
			return false, nil
		}
		return false, fmt.Errorf("seed link %q: %w", a.Username, err)
	}
	return true, nil
}
