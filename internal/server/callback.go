package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavey/internal/shared"
)

// CallbackResult carries the value captured from a provider redirect.
type CallbackResult struct {
	Value string
	err   error
}

func (c CallbackResult) Error() error {
	return c.err
}

// CallbackHandler serves a provider's redirect route and captures one query parameter.
type CallbackHandler struct {
	route  string
	param  string
	state  string
	result chan CallbackResult
	once   sync.Once

	mu  sync.Mutex
	hit bool
}

// NewCallbackHandler creates a handler for route that captures param.
//
// An empty state disables state validation (hosted sign-in pages do not echo one).
func NewCallbackHandler(route, param, state string) *CallbackHandler {
	return &CallbackHandler{
		route:  route,
		param:  param,
		state:  state,
		result: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.route}
}

// ServeHTTP handles the provider redirect.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	q := r.URL.Query()

	if h.state != "" && q.Get("state") != h.state {
		h.Send(CallbackResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		renderPage(w, http.StatusBadRequest, "Sign-in failed", "Invalid state parameter.")
		return
	}

	value := q.Get(h.param)
	if value == "" {
		msg := "No authentication code received"
		if desc := q.Get("error_description"); desc != "" {
			msg = desc
		} else if e := q.Get("error"); e != "" {
			msg = e
		}
		h.Send(CallbackResult{err: fmt.Errorf("%w: %s", shared.ErrAuthFailed, msg)})
		renderPage(w, http.StatusBadRequest, "Sign-in failed", msg)
		return
	}

	h.Send(CallbackResult{Value: value})
	renderPage(w, http.StatusOK, "Signed in to Wavey", "You can close this window and return to the terminal.")
}

// Send delivers the result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.result <- result
		close(h.result)
	})
}

// Result returns the result channel.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.result
}

var page = template.Must(template.New("callback").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #6C5CE7; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
    </div>
</body>
</html>
`))

func renderPage(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	page.Execute(w, struct{ Title, Message string }{title, message})
}

// ListenOpts configures [Listen].
type ListenOpts struct {
	Addr    string
	Timeout time.Duration
	Logger  *log.Logger
	// Ready, when set, is called with the bound address once the listener accepts connections.
	Ready func(addr string)
}

// Listen serves h on opts.Addr until it reports a result, ctx ends, or opts.Timeout elapses.
func Listen(ctx context.Context, h *CallbackHandler, opts ListenOpts) (string, error) {
	router := NewCallbackRouter()
	if opts.Logger != nil {
		router.Use(RequestLogger(opts.Logger))
	}
	router.Mount(h)

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server: %w", err)
	}

	srv := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if opts.Ready != nil {
		opts.Ready(ln.Addr().String())
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-h.Result():
		if err := result.Error(); err != nil {
			return "", err
		}
		return result.Value, nil
	case err := <-serveErr:
		return "", fmt.Errorf("callback server error: %w", err)
	case <-timer.C:
		return "", fmt.Errorf("%w: no sign-in callback within %s", shared.ErrTimeout, timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
