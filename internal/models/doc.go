// Package models defines the payloads exchanged with the Wavey service.
//
// The types mirror the service's JSON contract:
//   - [User] : the authenticated identity returned by login, registration and profile calls
//   - [AuthResponse] : a bearer credential paired with its identity
//   - [Song] : a read-only catalog entry, plus [SongInput] and [SongPatch] for writes
//   - [ErrorPayload] : the structured body sent with every non-2xx response
//   - [SearchEntry] : a catalog lookup remembered locally, never sent to the service
//
// Payloads are decoded without further validation; the service is trusted to send well-formed bodies.
package models
