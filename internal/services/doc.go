// Package services implements [APIClient], the gateway to the Wavey service.
//
// # Credential
//
// The client holds at most one bearer credential in memory. It is attached with [APIClient.SetToken]
// and detached with [APIClient.ClearToken]; authentication operations never attach it on their own.
// Persisting the credential across runs belongs to the session package.
//
// Credentialed operations (profile and catalog calls) send "Authorization: Bearer <token>" and fail
// with [shared.ErrNotAuthenticated] without touching the network when no credential is attached.
//
// # Responses
//
// A response succeeds iff its status is 2xx. Any other status is decoded as a structured error
// payload whose message is a string or a list of strings; lists are joined with ", ". The result
// is an [*APIError] that carries the status code and unwraps to [shared.ErrAPIRequest]. Every
// non-2xx status is handled the same way.
//
// Success bodies are decoded into the operation's payload type without further validation;
// a body that cannot be decoded surfaces as a "failed to decode response" error.
//
// # Rate limiting
//
// When [APIClientOpts.RequestsPerSecond] is positive, outbound requests wait on a token bucket
// limiter. No request is ever retried.
package services
