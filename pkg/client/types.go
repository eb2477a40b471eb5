package client

import "time"

const (
	RoleBoyfriend  = "boyfriend"
	RoleGirlfriend = "girlfriend"
)

// User is an account as returned by the API.
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Role              string    `json:"role"`
	DisplayName       string    `json:"display_name"`
	PartnerID         string    `json:"partner_id,omitempty"`
	AnniversaryDate   string    `json:"anniversary_date,omitempty"`
	RelationshipStart string    `json:"relationship_start,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RegisterRequest carries the fields accepted at registration.
type RegisterRequest struct {
	Username          string `json:"username"`
	Password          string `json:"password"`
	Role              string `json:"role"`
	DisplayName       string `json:"display_name,omitempty"`
	AnniversaryDate   string `json:"anniversary_date,omitempty"`
	RelationshipStart string `json:"relationship_start,omitempty"`
}

// Session is a successful login.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// Partner is the public view of a linked partner.
type Partner struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// CoupleSummary is the dashboard header.
type CoupleSummary struct {
	PartnerNames         [2]string  `json:"partner_names"`
	MyName               string     `json:"my_name"`
	PartnerName          string     `json:"partner_name"`
	Partner              *Partner   `json:"partner,omitempty"`
	AnniversaryDate      *time.Time `json:"anniversary_date,omitempty"`
	RelationshipStart    *time.Time `json:"relationship_start,omitempty"`
	DaysTogether         *int       `json:"days_together,omitempty"`
	NextAnniversary      *time.Time `json:"next_anniversary,omitempty"`
	DaysUntilAnniversary *int       `json:"days_until_anniversary,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type linkPartnerRequest struct {
	PartnerUsername string `json:"partner_username"`
}

type linkPartnerResponse struct {
	Message string   `json:"message"`
	Partner *Partner `json:"partner"`
}
