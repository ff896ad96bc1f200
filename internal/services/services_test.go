package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/wavey/internal/shared"
	tu "github.com/desertthunder/wavey/internal/testing"
)

func TestNewAPIClient(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c := NewAPIClient(APIClientOpts{})
		if c.BaseURL() != DefaultBaseURL {
			t.Errorf("expected default base URL %s, got %s", DefaultBaseURL, c.BaseURL())
		}
		if c.httpClient == nil {
			t.Error("expected an HTTP client")
		}
		if c.limiter != nil {
			t.Error("expected no limiter when RequestsPerSecond is zero")
		}
	})

	t.Run("Trims Trailing Slash", func(t *testing.T) {
		c := NewAPIClient(APIClientOpts{BaseURL: "http://example.com/api/"})
		if c.BaseURL() != "http://example.com/api" {
			t.Errorf("expected trailing slash trimmed, got %s", c.BaseURL())
		}
	})

	t.Run("Uses Custom Client", func(t *testing.T) {
		client := &http.Client{}
		c := NewAPIClient(APIClientOpts{HTTPClient: client, Timeout: time.Second})
		if c.httpClient != client {
			t.Error("expected custom client to be used")
		}
	})

	t.Run("Timeout Applies To Default Client", func(t *testing.T) {
		c := NewAPIClient(APIClientOpts{Timeout: 5 * time.Second})
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("expected 5s timeout, got %v", c.httpClient.Timeout)
		}
	})

	t.Run("Limiter", func(t *testing.T) {
		c := NewAPIClient(APIClientOpts{RequestsPerSecond: 0.5})
		if c.limiter == nil {
			t.Fatal("expected limiter")
		}
		if c.limiter.Burst() != 1 {
			t.Errorf("expected burst of 1, got %d", c.limiter.Burst())
		}
	})
}

func TestToken(t *testing.T) {
	c := NewAPIClient(APIClientOpts{})
	if c.HasToken() {
		t.Fatal("expected no token on a new client")
	}

	c.SetToken("tok1")
	if !c.HasToken() || c.Token() != "tok1" {
		t.Errorf("expected tok1 attached, got %q", c.Token())
	}

	c.ClearToken()
	if c.HasToken() {
		t.Error("expected token cleared")
	}
}

func TestRequest(t *testing.T) {
	t.Run("Credentialed Call Sends Bearer Header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer tok1" {
				t.Errorf("expected bearer header, got %q", got)
			}
			if got := r.Header.Get("Content-Type"); got != "application/json" {
				t.Errorf("expected JSON content type, got %q", got)
			}
			w.Write([]byte(`{"id":1,"email":"a@b.c"}`))
		}))
		defer server.Close()

		c := NewAPIClient(APIClientOpts{BaseURL: server.URL})
		c.SetToken("tok1")
		if _, err := c.Profile(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Credentialed Call Without Token Sends Nothing", func(t *testing.T) {
		transport := &tu.CountingTransport{}
		c := NewAPIClient(APIClientOpts{
			BaseURL:    "http://127.0.0.1:1",
			HTTPClient: &http.Client{Transport: transport},
		})

		_, err := c.SearchSongs(context.Background(), "jazz")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if transport.Count() != 0 {
			t.Errorf("expected no request, got %d", transport.Count())
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		c := NewAPIClient(APIClientOpts{
			HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))},
		})
		c.SetToken("tok1")

		_, err := c.Songs(context.Background())
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("expected cause in error, got %v", err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}}
		c := NewAPIClient(APIClientOpts{
			HTTPClient: &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)},
		})
		c.SetToken("tok1")

		_, err := c.Songs(context.Background())
		if err == nil || !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected read failure, got %v", err)
		}
	})

	t.Run("Malformed Success Body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer server.Close()

		c := NewAPIClient(APIClientOpts{BaseURL: server.URL})
		c.SetToken("tok1")

		_, err := c.Songs(context.Background())
		if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
			t.Errorf("expected decode failure, got %v", err)
		}
		if errors.Is(err, shared.ErrAPIRequest) {
			t.Error("decode failure must not look like a service rejection")
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewAPIClient(APIClientOpts{BaseURL: server.URL, RequestsPerSecond: 1})
		c.SetToken("tok1")
		if _, err := c.Songs(ctx); err == nil {
			t.Error("expected error for canceled context")
		}
	})
}

func TestErrorResponses(t *testing.T) {
	tt := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{
			name:    "String Message",
			status:  http.StatusUnauthorized,
			body:    `{"message":"Invalid credentials","error":"Unauthorized","statusCode":401}`,
			message: "Invalid credentials",
		},
		{
			name:    "List Message",
			status:  http.StatusBadRequest,
			body:    `{"message":["email must be valid","password too short"],"error":"Bad Request","statusCode":400}`,
			message: "email must be valid, password too short",
		},
		{
			name:    "Falls Back To Error Field",
			status:  http.StatusConflict,
			body:    `{"error":"Conflict","statusCode":409}`,
			message: "Conflict",
		},
		{
			name:    "Falls Back To Status Text",
			status:  http.StatusInternalServerError,
			body:    `{}`,
			message: "Internal Server Error",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer server.Close()

			c := NewAPIClient(APIClientOpts{BaseURL: server.URL})
			_, err := c.Login(context.Background(), "a@b.c", "pw")

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, apiErr.StatusCode)
			}
			if err.Error() != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, err.Error())
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected error to wrap ErrAPIRequest")
			}
		})
	}

	t.Run("Undecodable Error Body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, "<html>bad gateway</html>")
		}))
		defer server.Close()

		c := NewAPIClient(APIClientOpts{BaseURL: server.URL})
		_, err := c.Login(context.Background(), "a@b.c", "pw")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "failed to decode error response") {
			t.Errorf("expected decode failure message, got %v", err)
		}
	})

	t.Run("IsStatus", func(t *testing.T) {
		err := &APIError{StatusCode: http.StatusNotFound, Message: "missing"}
		if !IsStatus(err, http.StatusNotFound) {
			t.Error("expected IsStatus to match 404")
		}
		if IsStatus(errors.New("other"), http.StatusNotFound) {
			t.Error("expected IsStatus to reject non-API errors")
		}
	})
}
