// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [CredentialRepository] : named credential slots; satisfies session.Storage
//   - [SearchHistoryRepository] : recently run catalog lookups, newest first
//
// Tables are created by the embedded migrations in the shared package.
package repositories
