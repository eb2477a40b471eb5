package domain

import (
	"strings"
	"time"
)

const (
	RoleBoyfriend  = "boyfriend"
	RoleGirlfriend = "girlfriend"
)

// User models one half of a couple.
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	PasswordHash      string    `json:"-"`
	Role              string    `json:"role"`
	DisplayName       string    `json:"display_name"`
	PartnerID         string    `json:"partner_id,omitempty"`
	AnniversaryDate   string    `json:"anniversary_date,omitempty"`
	RelationshipStart string    `json:"relationship_start,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Name is the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Linked reports whether the user holds a partner reference.
func (u *User) Linked() bool {
	return u.PartnerID != ""
}

// ValidRole reports whether role is one of the two partner roles.
func ValidRole(role string) bool {
	return role == RoleBoyfriend || role == RoleGirlfriend
}

// NormalizeUsername is applied to every username before it is stored or looked up.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
