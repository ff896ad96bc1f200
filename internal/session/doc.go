// Package session owns the authenticated identity of the running client.
//
// A [Session] pairs a bearer credential with the [models.User] it belongs to. The credential is
// attached to a [Gateway] for outbound requests and persisted through a [Storage] so that a later
// run can resume it with [Session.Initialize].
//
// A session is in one of two states: anonymous (no identity) or authenticated. After every completed
// operation a credential is attached iff an identity is set. The pair is applied under one write lock,
// so concurrent readers never observe a credential without its identity or the reverse.
//
// Only [Session.Initialize] swallows a failure: a persisted credential the service no longer accepts
// is discarded and the session stays anonymous. Every other failure is returned to the caller with
// the prior state retained.
package session
