package nezha

import (
	"context"

	"github.com/nezhatop/nezhatop/internal/config"
)

// Login exchanges creds for a token without touching the session cache.
func (c *Client) Login(ctx context.Context, creds config.UsernamePassword) (LoginResult, error) {
	body := map[string]string{"username": creds.Username, "password": creds.Password}
	return fetch[LoginResult](ctx, c, post("/api/v1/login", body).public())
}

// RefreshToken asks the dashboard for a fresh token for the current session.
func (c *Client) RefreshToken(ctx context.Context) (LoginResult, error) {
	return fetch[LoginResult](ctx, c, get("/api/v1/refresh-token"))
}

// Setting returns the public dashboard configuration.
func (c *Client) Setting(ctx context.Context) (Setting, error) {
	return fetch[Setting](ctx, c, get("/api/v1/setting").public())
}

// Profile returns the authenticated user.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	return fetch[Profile](ctx, c, get("/api/v1/profile"))
}
