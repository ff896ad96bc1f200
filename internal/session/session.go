package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/shared"
)

// TokenKey is the storage slot holding the bearer credential.
const TokenKey = "token"

// Provider names accepted by [Session.Exchange] and the payload keys each one requires.
const (
	ProviderPassword = "password"
	ProviderGitHub   = "github"
	ProviderGoogle   = "google"
	ProviderNeon     = "neon"
)

// Gateway is the subset of the API client the session drives.
type Gateway interface {
	SetToken(token string)
	ClearToken()
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error)
	GithubAuth(ctx context.Context, code string) (*models.AuthResponse, error)
	GoogleAuth(ctx context.Context, token string) (*models.AuthResponse, error)
	NeonAuth(ctx context.Context, accessToken string) (*models.AuthResponse, error)
	Profile(ctx context.Context) (*models.User, error)
}

// Storage persists named string values across runs.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Provider is what UI surfaces need from a session.
type Provider interface {
	State() State
	Login(ctx context.Context, email, password string) error
	Register(ctx context.Context, email, password, name string) error
	Exchange(ctx context.Context, provider string, credentials map[string]string) error
	Logout()
}

// State is a point-in-time snapshot of a session.
type State struct {
	User    *models.User
	Loading bool
}

// IsAuthenticated reports whether the snapshot carries an identity.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// Session binds a credential to its identity.
type Session struct {
	gateway Gateway
	storage Storage
	logger  *log.Logger

	init sync.Once

	mu      sync.RWMutex
	token   string
	user    *models.User
	loading bool
}

var _ Provider = (*Session)(nil)

// New creates an anonymous session. A nil storage keeps the credential in memory only.
func New(gateway Gateway, storage Storage, logger *log.Logger) *Session {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Session{gateway: gateway, storage: storage, logger: logger}
}

// Initialize resumes a persisted credential, if any, by fetching its profile.
//
// It never fails: an unreadable slot or a rejected credential leaves the session anonymous.
// Only the first call does any work.
func (s *Session) Initialize(ctx context.Context) {
	s.init.Do(func() { s.initialize(ctx) })
}

func (s *Session) initialize(ctx context.Context) {
	token, ok, err := s.storage.Get(TokenKey)
	if err != nil {
		s.logger.Warn("could not read stored credential", "error", err)
		return
	}
	if !ok || token == "" {
		return
	}

	s.mu.Lock()
	s.token = token
	s.loading = true
	s.gateway.SetToken(token)
	s.mu.Unlock()

	user, err := s.gateway.Profile(ctx)
	if err == nil && user == nil {
		err = fmt.Errorf("%w: empty profile", shared.ErrAuthFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if s.token != token {
		// superseded by a login or logout while the profile was in flight
		return
	}

	if err != nil {
		s.logger.Info("stored credential rejected, signing out", "error", err)
		s.clear()
		return
	}
	s.user = user
}

// Login authenticates with email and password.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.gateway.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.attach(resp)
}

// Register creates an account and signs in to it.
func (s *Session) Register(ctx context.Context, email, password, name string) error {
	resp, err := s.gateway.Register(ctx, email, password, name)
	if err != nil {
		return err
	}
	return s.attach(resp)
}

// Exchange signs in through an identity provider.
//
// Required credential keys per provider:
//   - [ProviderPassword] : "email", "password"
//   - [ProviderGitHub] : "code"
//   - [ProviderGoogle] : "token"
//   - [ProviderNeon] : "access_token"
func (s *Session) Exchange(ctx context.Context, provider string, credentials map[string]string) error {
	var (
		resp *models.AuthResponse
		err  error
	)

	switch provider {
	case ProviderPassword:
		if err := require(provider, credentials, "email", "password"); err != nil {
			return err
		}
		resp, err = s.gateway.Login(ctx, credentials["email"], credentials["password"])
	case ProviderGitHub:
		if err := require(provider, credentials, "code"); err != nil {
			return err
		}
		resp, err = s.gateway.GithubAuth(ctx, credentials["code"])
	case ProviderGoogle:
		if err := require(provider, credentials, "token"); err != nil {
			return err
		}
		resp, err = s.gateway.GoogleAuth(ctx, credentials["token"])
	case ProviderNeon:
		if err := require(provider, credentials, "access_token"); err != nil {
			return err
		}
		resp, err = s.gateway.NeonAuth(ctx, credentials["access_token"])
	default:
		return fmt.Errorf("%w: unknown identity provider %q", shared.ErrInvalidArgument, provider)
	}

	if err != nil {
		return err
	}
	return s.attach(resp)
}

// Refresh re-fetches the identity for the attached credential.
//
// On failure the error is returned and the session is unchanged.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return shared.ErrNotAuthenticated
	}

	user, err := s.gateway.Profile(ctx)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: empty profile", shared.ErrAuthFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == token {
		s.user = user
	}
	return nil
}

// Logout discards the credential and identity. It always succeeds.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{User: s.user, Loading: s.loading}
}

// User returns the signed-in identity, or nil.
func (s *Session) User() *models.User {
	return s.State().User
}

// IsAuthenticated reports whether an identity is set.
func (s *Session) IsAuthenticated() bool {
	return s.State().IsAuthenticated()
}

// Token returns the attached credential, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) attach(resp *models.AuthResponse) error {
	if resp == nil || resp.AccessToken == "" {
		return fmt.Errorf("%w: response carried no credential", shared.ErrAuthFailed)
	}
	user := resp.User

	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = resp.AccessToken
	s.user = &user
	s.gateway.SetToken(resp.AccessToken)
	if err := s.storage.Set(TokenKey, resp.AccessToken); err != nil {
		s.logger.Warn("could not persist credential", "error", err)
	}
	s.logger.Debug("signed in", "user", user.ID)
	return nil
}

// clear must be called with mu held.
func (s *Session) clear() {
	s.token = ""
	s.user = nil
	s.gateway.ClearToken()
	if err := s.storage.Remove(TokenKey); err != nil {
		s.logger.Warn("could not remove stored credential", "error", err)
	}
}

func require(provider string, credentials map[string]string, keys ...string) error {
	for _, k := range keys {
		if credentials[k] == "" {
			return fmt.Errorf("%w: %s sign-in requires %q", shared.ErrMissingCredentials, provider, k)
		}
	}
	return nil
}
