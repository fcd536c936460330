package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	if creds.Email == "" || creds.Password == "" {
		return nil, &ValidationError{Reason: "email and password are required"}
	}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, c.routes.Login, nil, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its first access token.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	if err := ValidateRegistration(reg); err != nil {
		return nil, err
	}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, c.routes.Register, nil, reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, c.routes.User, nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile edits the authenticated user.
func (c *Client) UpdateProfile(ctx context.Context, up ProfileUpdate) (*User, error) {
	if up.CurrentPassword == "" {
		return nil, &ValidationError{Field: "current_password", Reason: "is required"}
	}
	if up.Password != nil && len(*up.Password) < minPasswordLen {
		return nil, &ValidationError{Field: "password", Reason: "must be at least 6 characters"}
	}
	var u User
	if err := c.do(ctx, http.MethodPut, c.routes.User, nil, up, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteAccount removes the authenticated user and all their data.
func (c *Client) DeleteAccount(ctx context.Context, currentPassword string) error {
	if currentPassword == "" {
		return &ValidationError{Field: "current_password", Reason: "is required"}
	}
	body := struct {
		CurrentPassword string `json:"current_password"`
	}{currentPassword}
	return c.do(ctx, http.MethodDelete, c.routes.User, nil, body, nil)
}
