package client

import (
	"context"
	"fmt"
	"net/http"
)

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", false, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token and stores it. A failed login
// leaves the token store untouched.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var session Session
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", false, loginRequest{Username: username, Password: password}, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	if err := c.tokens.Save(session.AccessToken); err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout asks the server to revoke the token and then discards it. Server
// errors are ignored; only a failure to clear the local token is returned.
func (c *Client) Logout(ctx context.Context) error {
	if c.IsAuthenticated() {
		_ = c.doRequest(ctx, http.MethodPost, "/api/auth/logout", true, nil, nil)
	}
	return c.tokens.Clear()
}

// CurrentUser returns the account bound to the held token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", true, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkPartner links the current user with partnerUsername and returns the
// partner.
func (c *Client) LinkPartner(ctx context.Context, partnerUsername string) (*Partner, error) {
	var resp linkPartnerResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/link-partner", true, linkPartnerRequest{PartnerUsername: partnerUsername}, &resp); err != nil {
		return nil, err
	}
	return resp.Partner, nil
}

func (c *Client) UnlinkPartner(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodPost, "/api/auth/unlink-partner", true, nil, nil)
}

// Couple returns the couple dashboard summary.
func (c *Client) Couple(ctx context.Context) (*CoupleSummary, error) {
	var summary CoupleSummary
	if err := c.doRequest(ctx, http.MethodGet, "/api/couple", true, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
