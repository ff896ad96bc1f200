package server

import (
	"fmt"
	"net/url"

	"github.com/desertthunder/wavey/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Callback routes and the query parameter each provider redirects back with.
const (
	GitHubCallbackRoute = "/auth/github/callback"
	GoogleCallbackRoute = "/auth/google/callback"
	NeonCallbackRoute   = "/auth/neon/callback"

	CodeParam        = "code"
	AccessTokenParam = "access_token"
)

// GitHubAuthURL returns the GitHub authorization URL for the configured client.
func GitHubAuthURL(cfg shared.OAuthProviderConfig, state string) (string, error) {
	return authURL("GitHub", cfg, endpoints.GitHub, []string{"read:user", "user:email"}, state)
}

// GoogleAuthURL returns the Google authorization URL for the configured client.
func GoogleAuthURL(cfg shared.OAuthProviderConfig, state string) (string, error) {
	return authURL("Google", cfg, endpoints.Google, []string{"openid", "email", "profile"}, state)
}

func authURL(name string, cfg shared.OAuthProviderConfig, endpoint oauth2.Endpoint, scopes []string, state string) (string, error) {
	if cfg.ClientID == "" {
		return "", fmt.Errorf("%w: %s client_id is not set", shared.ErrMissingConfig, name)
	}
	if cfg.RedirectURI == "" {
		return "", fmt.Errorf("%w: %s redirect_uri is not set", shared.ErrMissingConfig, name)
	}

	conf := &oauth2.Config{
		ClientID:    cfg.ClientID,
		Endpoint:    endpoint,
		RedirectURL: cfg.RedirectURI,
		Scopes:      scopes,
	}
	return conf.AuthCodeURL(state), nil
}

// NeonSignInURL returns the hosted sign-in page that redirects back with an access token.
func NeonSignInURL(cfg shared.NeonConfig) (string, error) {
	if cfg.SignInURL == "" {
		return "", fmt.Errorf("%w: Neon Auth sign_in_url is not set", shared.ErrMissingConfig)
	}

	u, err := url.Parse(cfg.SignInURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid Neon Auth sign_in_url: %v", shared.ErrInvalidConfig, err)
	}

	if cfg.RedirectURI != "" {
		q := u.Query()
		q.Set("after_auth_return_to", cfg.RedirectURI)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
