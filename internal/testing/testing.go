// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/wavey/internal/models"
)

// MockGateway is a test double for the session's gateway.
//
// Auth methods return AuthResp/AuthErr; Profile returns ProfileUser/ProfileErr.
// ProfileCheck, when set, overrides Profile entirely.
type MockGateway struct {
	mu sync.Mutex

	AuthResp     *models.AuthResponse
	AuthErr      error
	ProfileUser  *models.User
	ProfileErr   error
	ProfileCheck func(token string) (*models.User, error)

	token string
	calls []string
}

func (m *MockGateway) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the names of the gateway methods invoked so far, in order.
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockGateway) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *MockGateway) ClearToken() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
}

func (m *MockGateway) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MockGateway) auth(call string) (*models.AuthResponse, error) {
	m.record(call)
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	return m.AuthResp, nil
}

func (m *MockGateway) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return m.auth("Login")
}

func (m *MockGateway) Register(ctx context.Context, email, password, name string) (*models.AuthResponse, error) {
	return m.auth("Register")
}

func (m *MockGateway) GithubAuth(ctx context.Context, code string) (*models.AuthResponse, error) {
	return m.auth("GithubAuth")
}

func (m *MockGateway) GoogleAuth(ctx context.Context, token string) (*models.AuthResponse, error) {
	return m.auth("GoogleAuth")
}

func (m *MockGateway) NeonAuth(ctx context.Context, accessToken string) (*models.AuthResponse, error) {
	return m.auth("NeonAuth")
}

func (m *MockGateway) Profile(ctx context.Context) (*models.User, error) {
	m.record("Profile")
	if m.ProfileCheck != nil {
		return m.ProfileCheck(m.Token())
	}
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	return m.ProfileUser, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// CountingTransport counts requests before delegating to Next (or [http.DefaultTransport]).
type CountingTransport struct {
	Next  http.RoundTripper
	count atomic.Int64
}

func (c *CountingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.count.Add(1)
	next := c.Next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(req)
}

// Count returns the number of requests seen.
func (c *CountingTransport) Count() int {
	return int(c.count.Load())
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
