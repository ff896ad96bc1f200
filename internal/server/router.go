package server

import (
	"net/http"
	"slices"
)

// CallbackRouter serves sign-in callback routes behind a shared middleware chain.
//
// Routes are registered as method-qualified [http.ServeMux] patterns ("GET /auth/github/callback"),
// so the mux answers other methods with 405. Unknown paths get the same HTML page as callbacks.
type CallbackRouter struct {
	mux    *http.ServeMux
	chain  []Middleware
	routes []string
}

// NewCallbackRouter creates a router with the given middleware, outermost first.
func NewCallbackRouter(middleware ...Middleware) *CallbackRouter {
	r := &CallbackRouter{mux: http.NewServeMux()}
	r.Use(middleware...)
	r.mux.HandleFunc("GET /", func(w http.ResponseWriter, _ *http.Request) {
		renderPage(w, http.StatusNotFound, "Not Found", "This address is only used to finish signing in to Wavey.")
	})
	return r
}

// Use appends middleware; it applies to routes registered afterwards.
func (r *CallbackRouter) Use(middleware ...Middleware) {
	r.chain = append(r.chain, middleware...)
}

// Handle registers handler for method and path.
func (r *CallbackRouter) Handle(method, path string, handler http.Handler) {
	pattern := method + " " + path
	r.routes = append(r.routes, pattern)
	r.mux.Handle(pattern, r.wrap(handler))
}

// Mount registers every route a [Handler] owns for GET.
func (r *CallbackRouter) Mount(h Handler) {
	for _, route := range h.Routes() {
		r.Handle(http.MethodGet, route, h)
	}
}

// Routes lists the registered patterns in registration order.
func (r *CallbackRouter) Routes() []string {
	return slices.Clone(r.routes)
}

func (r *CallbackRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *CallbackRouter) wrap(h http.Handler) http.Handler {
	for _, mw := range slices.Backward(r.chain) {
		h = mw(h)
	}
	return h
}
