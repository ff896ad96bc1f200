package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/shared"
)

// Register creates an account and returns its credential. The credential is not attached.
func (c *APIClient) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	if name != "" {
		body["name"] = name
	}
	return c.authenticate(ctx, request{method: http.MethodPost, endpoint: "/auth/register", body: body})
}

// Login exchanges email and password for a credential. The credential is not attached.
func (c *APIClient) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, request{method: http.MethodPost, endpoint: "/auth/login", body: body})
}

// NeonAuth exchanges a hosted-auth access token for a service credential.
//
// The project identifiers must be configured; otherwise it fails with [shared.ErrMissingConfig]
// before any request is made.
func (c *APIClient) NeonAuth(ctx context.Context, accessToken string) (*models.AuthResponse, error) {
	if !c.neon.Configured() {
		return nil, fmt.Errorf("%w: Neon Auth configuration is missing (project id and server key)", shared.ErrMissingConfig)
	}

	return c.authenticate(ctx, request{
		method:   http.MethodPost,
		endpoint: "/auth/neon",
		headers: map[string]string{
			HeaderStackAccessType:  "server",
			HeaderStackProjectID:   c.neon.ProjectID,
			HeaderStackServerKey:   c.neon.ServerKey,
			HeaderStackAccessToken: accessToken,
		},
	})
}

// GoogleAuth exchanges a Google authorization token for a service credential.
func (c *APIClient) GoogleAuth(ctx context.Context, token string) (*models.AuthResponse, error) {
	body := map[string]string{"token": token}
	return c.authenticate(ctx, request{method: http.MethodPost, endpoint: "/auth/google", body: body})
}

// GithubAuth exchanges a GitHub authorization code for a service credential.
func (c *APIClient) GithubAuth(ctx context.Context, code string) (*models.AuthResponse, error) {
	body := map[string]string{"code": code}
	return c.authenticate(ctx, request{method: http.MethodPost, endpoint: "/auth/github", body: body})
}

// Profile fetches the identity behind the attached credential.
func (c *APIClient) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: "/auth/profile", auth: true}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *APIClient) authenticate(ctx context.Context, r request) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.do(ctx, r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
