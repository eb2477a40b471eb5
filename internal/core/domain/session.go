package domain

import "time"

// Session is the authenticated context resolved from a bearer token. It is
// passed explicitly to every operation acting on behalf of a user.
type Session struct {
	UserID    string
	Username  string
	Role      string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
