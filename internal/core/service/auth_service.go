package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/loveos/couple-api/internal/core/domain"
	"github.com/loveos/couple-api/internal/core/ports"
)

const (
	TokenType       = "bearer"
	defaultTokenTTL = 30 * 24 * time.Hour
)

type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService implements registration, login and bearer-token sessions.
type AuthService struct {
	repo          ports.UserRepository
	authenticator ports.Authenticator
	revocations   ports.TokenRevocationStore
	jwtSecret     []byte
	tokenTTL      time.Duration
	now           func() time.Time
	log           zerolog.Logger
}

func NewAuthService(
	repo ports.UserRepository,
	authenticator ports.Authenticator,
	revocations ports.TokenRevocationStore,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	return &AuthService{
		repo:          repo,
		authenticator: authenticator,
		revocations:   revocations,
		jwtSecret:     []byte(jwtSecret),
		tokenTTL:      tokenTTL,
		now:           time.Now,
		log:           log,
	}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := domain.NormalizeUsername(in.Username)
	if username == "" || in.Role == "" || (in.Password == "" && in.PasswordHash == "") {
		return nil, domain.ErrMissingField
	}
	if !domain.ValidRole(in.Role) {
		return nil, domain.ErrInvalidRole
	}

	hash, err := s.passwordHash(in)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:          username,
		PasswordHash:      hash,
		Role:              in.Role,
		DisplayName:       displayName,
		AnniversaryDate:   strings.TrimSpace(in.AnniversaryDate),
		RelationshipStart: strings.TrimSpace(in.RelationshipStart),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Str("role", created.Role).Msg("user registered")
	return created, nil
}

func (s *AuthService) passwordHash(in ports.RegisterInput) (string, error) {
	if in.Password == "" {
		if _, err := bcrypt.Cost([]byte(in.PasswordHash)); err != nil {
			return "", fmt.Errorf("register: password hash is not bcrypt: %w", err)
		}
		return in.PasswordHash, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("register: hash password: %w", err)
	}
	return string(hash), nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	userID, err := s.authenticator.Verify(ctx, username, password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	token, expiresAt, err := s.issueToken(user)
	if err != nil {
		return nil, fmt.Errorf("login: sign token: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("login succeeded")
	return &ports.LoginResult{
		AccessToken: token,
		TokenType:   TokenType,
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

func (s *AuthService) issueToken(user *domain.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	claims := tokenClaims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Authenticate validates the bearer token signature, expiry and revocation
// status. Revocation-store failures are returned as internal errors, not as
// authentication failures.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrNotAuthenticated
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" || claims.ID == "" {
		return domain.Session{}, domain.ErrNotAuthenticated
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("authenticate: %w", err)
	}
	if revoked {
		return domain.Session{}, domain.ErrNotAuthenticated
	}

	session := domain.Session{
		UserID:    claims.Subject,
		Username:  claims.Username,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}

func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}

// Logout revokes the session's token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, session domain.Session) error {
	if session.TokenID == "" {
		return domain.ErrNotAuthenticated
	}
	if err := s.revocations.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", session.UserID).Msg("session revoked")
	return nil
}
