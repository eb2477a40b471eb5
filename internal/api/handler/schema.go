package handler

import (
	"time"

	"github.com/loveos/couple-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request / Response types ---

type registerRequest struct {
	Username          string `json:"username"           validate:"required,max=64"`
	Password          string `json:"password"           validate:"required,min=6,max=72"`
	Role              string `json:"role"               validate:"required,oneof=boyfriend girlfriend"`
	DisplayName       string `json:"display_name"       validate:"max=64"`
	AnniversaryDate   string `json:"anniversary_date"   validate:"max=32"`
	RelationshipStart string `json:"relationship_start" validate:"max=32"`
}

// loginRequest carries no validation tags: empty credentials are rejected as
// invalid credentials, not as a malformed request.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *domain.User `json:"user"`
}

type linkPartnerRequest struct {
	PartnerUsername string `json:"partner_username" validate:"required,max=64"`
}

type linkPartnerResponse struct {
	Message string              `json:"message"`
	Partner *domain.PartnerInfo `json:"partner,omitempty"`
}
