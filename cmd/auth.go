package main

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/server"
	"github.com/desertthunder/wavey/internal/session"
	"github.com/desertthunder/wavey/internal/shared"
	"github.com/urfave/cli/v3"
)

const callbackTimeout = 2 * time.Minute

// AuthLogin signs in with email and password.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	email := cmd.String("email")
	r.logger.Info("signing in", "email", email)

	if err := r.session.Login(ctx, email, cmd.String("password")); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return r.signedIn()
}

// AuthRegister creates an account and signs in to it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	email := cmd.String("email")
	r.logger.Info("registering", "email", email)

	if err := r.session.Register(ctx, email, cmd.String("password"), cmd.String("name")); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return r.signedIn()
}

// AuthLogout forgets the stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	wasSignedIn := r.session.IsAuthenticated()
	r.session.Logout()

	if !wasSignedIn {
		return r.writePlain("Not signed in\n")
	}
	return r.writePlain("✓ Signed out\n")
}

// statusReport is the JSON shape of `auth status`.
type statusReport struct {
	Authenticated bool         `json:"authenticated"`
	User          *models.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
	Expired       bool         `json:"expired"`
	BaseURL       string       `json:"base_url"`
}

// AuthStatus reports the signed-in identity and when its credential expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	state := r.session.State()
	report := statusReport{
		Authenticated: state.IsAuthenticated(),
		User:          state.User,
		BaseURL:       r.client.BaseURL(),
	}

	if token := r.session.Token(); token != "" {
		if claims, err := shared.InspectToken(token); err != nil {
			r.logger.Debug("credential is not a readable JWT", "error", err)
		} else if !claims.ExpiresAt.IsZero() {
			report.ExpiresAt = &claims.ExpiresAt
			report.Expired = claims.Expired(time.Now())
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlain("Service: %s\n", report.BaseURL)
	if !report.Authenticated {
		return r.writePlain("✗ Not signed in\n")
	}

	r.writePlain("✓ Signed in as %s (id %d)\n", report.User.DisplayName(), report.User.ID)
	if report.User.Name != "" {
		r.writePlain("Email: %s\n", report.User.Email)
	}
	if report.ExpiresAt != nil {
		verb := "expires"
		if report.Expired {
			verb = "expired"
		}
		r.writePlain("Credential %s %s\n", verb, report.ExpiresAt.Local().Format(time.RFC1123))
	}
	return nil
}

// AuthProfile re-fetches the profile for the stored credential.
func (r *Runner) AuthProfile(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	if err := r.session.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	user := r.session.User()
	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlain("ID:    %d\n", user.ID)
	r.writePlain("Email: %s\n", user.Email)
	if user.Name != "" {
		r.writePlain("Name:  %s\n", user.Name)
	}
	if user.CreatedAt != "" {
		r.writePlain("Since: %s\n", user.Since())
	}
	return nil
}

// AuthGitHub signs in through GitHub's authorization code flow.
func (r *Runner) AuthGitHub(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	code := cmd.String("code")
	if code == "" {
		cfg := r.config.Credentials.GitHub
		state := shared.GenerateState()
		authURL, err := server.GitHubAuthURL(cfg, state)
		if err != nil {
			return err
		}
		handler := server.NewCallbackHandler(callbackRoute(cfg.RedirectURI, server.GitHubCallbackRoute), server.CodeParam, state)
		if code, err = r.awaitCallback(ctx, "GitHub", authURL, handler); err != nil {
			return err
		}
	}

	return r.exchange(ctx, session.ProviderGitHub, map[string]string{"code": code})
}

// AuthGoogle signs in through Google's authorization code flow.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	token := cmd.String("token")
	if token == "" {
		cfg := r.config.Credentials.Google
		state := shared.GenerateState()
		authURL, err := server.GoogleAuthURL(cfg, state)
		if err != nil {
			return err
		}
		handler := server.NewCallbackHandler(callbackRoute(cfg.RedirectURI, server.GoogleCallbackRoute), server.CodeParam, state)
		if token, err = r.awaitCallback(ctx, "Google", authURL, handler); err != nil {
			return err
		}
	}

	return r.exchange(ctx, session.ProviderGoogle, map[string]string{"token": token})
}

// AuthNeon signs in through the Neon Auth hosted sign-in page.
func (r *Runner) AuthNeon(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}

	cfg := r.config.Credentials.Neon
	if !cfg.Configured() {
		return fmt.Errorf("%w: Neon Auth configuration is missing; set credentials.neon.project_id and server_key", shared.ErrMissingConfig)
	}

	token := cmd.String("token")
	if token == "" {
		signInURL, err := server.NeonSignInURL(cfg)
		if err != nil {
			return err
		}
		handler := server.NewCallbackHandler(callbackRoute(cfg.RedirectURI, server.NeonCallbackRoute), server.AccessTokenParam, "")
		if token, err = r.awaitCallback(ctx, "Neon Auth", signInURL, handler); err != nil {
			return err
		}
	}

	return r.exchange(ctx, session.ProviderNeon, map[string]string{"access_token": token})
}

func (r *Runner) exchange(ctx context.Context, provider string, credentials map[string]string) error {
	r.logger.Info("exchanging provider credential", "provider", provider)
	if err := r.session.Exchange(ctx, provider, credentials); err != nil {
		return fmt.Errorf("%w: %s: %w", shared.ErrAuthFailed, provider, err)
	}
	return r.signedIn()
}

// awaitCallback opens the provider page and waits for its redirect to the local callback server.
func (r *Runner) awaitCallback(ctx context.Context, provider, authURL string, handler *server.CallbackHandler) (string, error) {
	r.logger.Info("starting callback server", "provider", provider, "addr", r.config.Server.Addr())

	value, err := r.listen(ctx, handler, server.ListenOpts{
		Addr:    r.config.Server.Addr(),
		Timeout: callbackTimeout,
		Logger:  r.logger,
		Ready: func(string) {
			r.writePlain("→ Opening browser for %s sign-in...\n", provider)
			if err := r.openBrowser(authURL); err != nil {
				r.logger.Warn("failed to open browser automatically", "error", err)
				r.writePlainln("⚠ Could not open browser automatically.")
				r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
			}
			r.writePlain("→ Waiting for sign-in (%s timeout)...\n", callbackTimeout)
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s sign-in failed: %w", provider, err)
	}
	return value, nil
}

func (r *Runner) signedIn() error {
	user := r.session.User()
	if user == nil {
		return fmt.Errorf("%w: no identity after sign-in", shared.ErrAuthFailed)
	}
	return r.writePlain("✓ Signed in as %s\n", user.DisplayName())
}

// callbackRoute returns the path of redirectURI, or fallback when it has none.
func callbackRoute(redirectURI, fallback string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" || u.Path == "/" {
		return fallback
	}
	return u.Path
}
