// package repositories provides persistence layer implementations for local client state.
package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/shared"
)

// CredentialRepository stores named string values in the credentials table.
type CredentialRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db, now: time.Now}
}

// Get returns the value stored under key and whether it exists.
func (r *CredentialRepository) Get(key string) (string, bool, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query credential: %w", err)
	}
	return value, true, nil
}

// Set inserts or replaces the value under key.
func (r *CredentialRepository) Set(key, value string) error {
	now := r.now().UTC()
	query := `
		INSERT INTO credentials (key, value, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, now, now); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// Remove deletes key. Removing a missing key is not an error.
func (r *CredentialRepository) Remove(key string) error {
	if _, err := r.db.Exec(`DELETE FROM credentials WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}

// UpdatedAt reports when key was last written.
func (r *CredentialRepository) UpdatedAt(key string) (time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRow(`SELECT updated_at FROM credentials WHERE key = ?`, key).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("%w: no credential stored under %q", shared.ErrNotAuthenticated, key)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query credential: %w", err)
	}
	return updatedAt, nil
}

// SearchHistoryRepository records catalog lookups.
type SearchHistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSearchHistoryRepository creates a new [SearchHistoryRepository] with the given database connection
func NewSearchHistoryRepository(db *sql.DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{db: db, now: time.Now}
}

// Record stores a lookup and returns the saved entry.
func (r *SearchHistoryRepository) Record(kind, query string, resultCount int) (*models.SearchEntry, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}
	if kind == "" {
		kind = "query"
	}

	entry := &models.SearchEntry{
		ID:          shared.GenerateID(),
		Query:       query,
		Kind:        kind,
		ResultCount: resultCount,
		CreatedAt:   r.now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO search_history (id, query, kind, result_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.Query, entry.Kind, entry.ResultCount, entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert search entry: %w", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first. A non-positive limit returns all entries.
func (r *SearchHistoryRepository) Recent(limit int) ([]models.SearchEntry, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`
		SELECT id, query, kind, result_count, created_at
		FROM search_history
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	var entries []models.SearchEntry
	for rows.Next() {
		var e models.SearchEntry
		if err := rows.Scan(&e.ID, &e.Query, &e.Kind, &e.ResultCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan search entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate search history: %w", err)
	}
	return entries, nil
}

// Clear deletes all entries and returns how many were removed.
func (r *SearchHistoryRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM search_history`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear search history: %w", err)
	}
	return result.RowsAffected()
}
