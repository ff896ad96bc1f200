package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/shared"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "http://localhost:8000"

// Header names used by the hosted-auth (Neon) exchange.
const (
	HeaderStackAccessType  = "x-stack-access-type"
	HeaderStackProjectID   = "x-stack-project-id"
	HeaderStackServerKey   = "x-stack-secret-server-key"
	HeaderStackAccessToken = "x-stack-access-token"
)

// APIClientOpts configures [NewAPIClient]. Zero values select defaults.
type APIClientOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration // used only when HTTPClient is nil
	RequestsPerSecond float64
	Neon              shared.NeonConfig
	Logger            *log.Logger
}

// APIClient performs requests against the Wavey service.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	neon       shared.NeonConfig
	logger     *log.Logger

	mu    sync.RWMutex
	token string
}

// NewAPIClient creates a client for the service at opts.BaseURL.
func NewAPIClient(opts APIClientOpts) *APIClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := max(int(opts.RequestsPerSecond), 1)
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &APIClient{
		baseURL:    baseURL,
		httpClient: client,
		limiter:    limiter,
		neon:       opts.Neon,
		logger:     logger,
	}
}

// BaseURL returns the service root this client talks to.
func (c *APIClient) BaseURL() string { return c.baseURL }

// SetToken attaches the bearer credential sent with credentialed calls.
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken detaches the bearer credential.
func (c *APIClient) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// Token returns the attached credential, or "" when none is attached.
func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HasToken reports whether a credential is attached.
func (c *APIClient) HasToken() bool {
	return c.Token() != ""
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return shared.ErrAPIRequest
}

// IsStatus reports whether err is an [*APIError] with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type request struct {
	method   string
	endpoint string
	body     any
	headers  map[string]string
	auth     bool
}

// do sends r and decodes a successful response body into result (skipped when result is nil).
func (c *APIClient) do(ctx context.Context, r request, result any) error {
	var token string
	if r.auth {
		if token = c.Token(); token == "" {
			return fmt.Errorf("%w: %s %s requires a credential", shared.ErrNotAuthenticated, r.method, r.endpoint)
		}
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", shared.ErrServiceUnavailable, r.method, r.endpoint, err)
	}

	c.logger.Debug("request completed",
		"method", r.method, "endpoint", r.endpoint, "status", resp.StatusCode, "elapsed", time.Since(started))

	return handleResponse(resp, result)
}

func handleResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var payload models.ErrorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("%w: status %d: failed to decode error response: %w", shared.ErrAPIRequest, status, err)
	}

	message := payload.Message.String()
	if message == "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: message}
}
