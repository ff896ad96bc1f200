package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavey/internal/shared"
)

func TestCallbackRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		r := NewCallbackRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("expected pong, got %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Unknown Path", func(t *testing.T) {
		r := NewCallbackRouter()
		r.Mount(NewCallbackHandler(GitHubCallbackRoute, CodeParam, ""))

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Not Found") {
			t.Errorf("expected rendered page, got %q", rec.Body.String())
		}
		if routes := r.Routes(); len(routes) != 1 || routes[0] != "GET "+GitHubCallbackRoute {
			t.Errorf("unexpected routes %v", routes)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, req)
				})
			}
		}

		r := NewCallbackRouter(mark("first"))
		r.Use(mark("second"))
		r.Handle(http.MethodGet, "/mw", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			order = append(order, "handler")
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/mw", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("RequestLogger Omits Query", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		r := NewCallbackRouter()
		r.Use(RequestLogger(logger))
		r.Handle(http.MethodGet, "/cb", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cb?code=secret", nil))

		out := buf.String()
		if !strings.Contains(out, "418") {
			t.Errorf("expected status in log, got %q", out)
		}
		if strings.Contains(out, "secret") {
			t.Errorf("query must not be logged, got %q", out)
		}
	})
}

func TestCallbackHandler(t *testing.T) {
	t.Run("Captures Code", func(t *testing.T) {
		h := NewCallbackHandler(GitHubCallbackRoute, CodeParam, "st8")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, GitHubCallbackRoute+"?code=abc&state=st8", nil))

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		result := <-h.Result()
		if result.Error() != nil || result.Value != "abc" {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("Rejects Bad State", func(t *testing.T) {
		h := NewCallbackHandler(GitHubCallbackRoute, CodeParam, "st8")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, GitHubCallbackRoute+"?code=abc&state=forged", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if err := (<-h.Result()).Error(); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Missing Parameter", func(t *testing.T) {
		h := NewCallbackHandler(NeonCallbackRoute, AccessTokenParam, "")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, NeonCallbackRoute, nil))

		if !strings.Contains(rec.Body.String(), "No authentication code received") {
			t.Errorf("expected message in page, got %q", rec.Body.String())
		}
		if (<-h.Result()).Error() == nil {
			t.Error("expected error result")
		}
	})

	t.Run("Provider Error Is Escaped", func(t *testing.T) {
		h := NewCallbackHandler(GoogleCallbackRoute, CodeParam, "")
		rec := httptest.NewRecorder()
		q := url.Values{"error_description": {"<script>alert(1)</script>"}}
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, GoogleCallbackRoute+"?"+q.Encode(), nil))

		if strings.Contains(rec.Body.String(), "<script>") {
			t.Error("expected provider message to be escaped")
		}
	})

	t.Run("Neon Without State", func(t *testing.T) {
		h := NewCallbackHandler(NeonCallbackRoute, AccessTokenParam, "")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, NeonCallbackRoute+"?access_token=neon-tok", nil))

		if result := <-h.Result(); result.Value != "neon-tok" {
			t.Errorf("expected neon-tok, got %+v", result)
		}
	})

	t.Run("Rejects Replay", func(t *testing.T) {
		h := NewCallbackHandler(GitHubCallbackRoute, CodeParam, "")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, GitHubCallbackRoute+"?code=one", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, GitHubCallbackRoute+"?code=two", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay to be rejected, got %d", rec.Code)
		}

		if result := <-h.Result(); result.Value != "one" {
			t.Errorf("expected first code to win, got %q", result.Value)
		}
		if _, open := <-h.Result(); open {
			t.Error("expected channel to be closed after one result")
		}
	})
}

func TestListen(t *testing.T) {
	t.Run("Returns Captured Value", func(t *testing.T) {
		h := NewCallbackHandler(GitHubCallbackRoute, CodeParam, "")
		value, err := Listen(context.Background(), h, ListenOpts{
			Addr:    "127.0.0.1:0",
			Timeout: 5 * time.Second,
			Ready: func(addr string) {
				go func() {
					resp, err := http.Get("http://" + addr + GitHubCallbackRoute + "?code=xyz")
					if err == nil {
						resp.Body.Close()
					}
				}()
			},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if value != "xyz" {
			t.Errorf("expected xyz, got %s", value)
		}
	})

	t.Run("Times Out", func(t *testing.T) {
		h := NewCallbackHandler(GitHubCallbackRoute, CodeParam, "")
		_, err := Listen(context.Background(), h, ListenOpts{Addr: "127.0.0.1:0", Timeout: 50 * time.Millisecond})
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		h := NewCallbackHandler(GitHubCallbackRoute, CodeParam, "")
		_, err := Listen(ctx, h, ListenOpts{Addr: "127.0.0.1:0", Timeout: time.Minute})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Bad Address", func(t *testing.T) {
		h := NewCallbackHandler(GitHubCallbackRoute, CodeParam, "")
		if _, err := Listen(context.Background(), h, ListenOpts{Addr: "256.0.0.1:bad"}); err == nil {
			t.Error("expected listen error")
		}
	})
}

func TestProviderURLs(t *testing.T) {
	cfg := shared.OAuthProviderConfig{ClientID: "client", RedirectURI: "http://127.0.0.1:3000/auth/github/callback"}

	t.Run("GitHub", func(t *testing.T) {
		raw, err := GitHubAuthURL(cfg, "st8")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		u, _ := url.Parse(raw)
		if u.Host != "github.com" {
			t.Errorf("expected github.com, got %s", u.Host)
		}
		q := u.Query()
		if q.Get("client_id") != "client" || q.Get("state") != "st8" || q.Get("redirect_uri") != cfg.RedirectURI {
			t.Errorf("unexpected query %v", q)
		}
	})

	t.Run("Google", func(t *testing.T) {
		raw, err := GoogleAuthURL(cfg, "st8")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(raw, "https://accounts.google.com/") {
			t.Errorf("unexpected URL %s", raw)
		}
		if !strings.Contains(raw, "scope=openid+email+profile") {
			t.Errorf("expected scopes in %s", raw)
		}
	})

	t.Run("Missing Client", func(t *testing.T) {
		if _, err := GitHubAuthURL(shared.OAuthProviderConfig{}, "st8"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
		if _, err := GoogleAuthURL(shared.OAuthProviderConfig{ClientID: "c"}, "st8"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig for missing redirect, got %v", err)
		}
	})

	t.Run("Neon", func(t *testing.T) {
		raw, err := NeonSignInURL(shared.NeonConfig{
			SignInURL:   "https://auth.example.com/handler/sign-in",
			RedirectURI: "http://127.0.0.1:3000/auth/neon/callback",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		u, _ := url.Parse(raw)
		if u.Query().Get("after_auth_return_to") != "http://127.0.0.1:3000/auth/neon/callback" {
			t.Errorf("unexpected URL %s", raw)
		}

		if _, err := NeonSignInURL(shared.NeonConfig{}); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
