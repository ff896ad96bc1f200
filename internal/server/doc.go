// Package server provides HTTP routing, middleware, and the sign-in callback listener used by the CLI.
//
// # Routing
//
// [CallbackRouter] registers method-qualified [http.ServeMux] patterns behind a [Middleware]
// chain; the first middleware added is the outermost. [RequestLogger] records method, path,
// status and latency but never the query string.
//
// # Sign-in Callback
//
// [CallbackHandler] captures the single query parameter an identity provider redirects back with:
// "code" for GitHub and Google, "access_token" for Neon Auth. When a state token was issued the
// handler rejects callbacks that do not echo it.
//
// It only processes one callback to prevent replay attacks; the captured value is delivered through
// [CallbackHandler.Result] and exchanged for a Wavey credential by the session, never here.
//
// [Listen] runs a temporary [CallbackRouter] on the configured address until the callback arrives, the
// context is canceled, or the timeout elapses.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
