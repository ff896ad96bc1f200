package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/wavey/internal/session"
	"github.com/desertthunder/wavey/internal/shared"
	tu "github.com/desertthunder/wavey/internal/testing"
)

var _ session.Storage = (*CredentialRepository)(nil)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialRepository(t *testing.T) {
	t.Run("Get Missing", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		_, ok, err := repo.Get(session.TokenKey)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok {
			t.Error("expected missing credential")
		}
	})

	t.Run("Set And Get", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		if err := repo.Set(session.TokenKey, "tok1"); err != nil {
			t.Fatalf("failed to set credential: %v", err)
		}

		value, ok, err := repo.Get(session.TokenKey)
		if err != nil || !ok {
			t.Fatalf("expected stored credential, got ok=%v err=%v", ok, err)
		}
		if value != "tok1" {
			t.Errorf("expected tok1, got %s", value)
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCredentialRepository(db)

		first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return first }
		repo.Set(session.TokenKey, "tok1")

		second := first.Add(time.Hour)
		repo.now = func() time.Time { return second }
		if err := repo.Set(session.TokenKey, "tok2"); err != nil {
			t.Fatalf("failed to overwrite credential: %v", err)
		}

		value, _, _ := repo.Get(session.TokenKey)
		if value != "tok2" {
			t.Errorf("expected tok2, got %s", value)
		}

		var count int
		db.QueryRow(`SELECT COUNT(*) FROM credentials`).Scan(&count)
		if count != 1 {
			t.Errorf("expected a single slot, got %d rows", count)
		}

		updatedAt, err := repo.UpdatedAt(session.TokenKey)
		if err != nil {
			t.Fatalf("failed to read updated_at: %v", err)
		}
		if !updatedAt.Equal(second) {
			t.Errorf("expected updated_at %v, got %v", second, updatedAt)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		repo.Set(session.TokenKey, "tok1")

		if err := repo.Remove(session.TokenKey); err != nil {
			t.Fatalf("failed to remove credential: %v", err)
		}
		if _, ok, _ := repo.Get(session.TokenKey); ok {
			t.Error("expected credential removed")
		}
		if err := repo.Remove(session.TokenKey); err != nil {
			t.Errorf("expected removing a missing key to succeed, got %v", err)
		}
	})

	t.Run("UpdatedAt Missing", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		if _, err := repo.UpdatedAt(session.TokenKey); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCredentialRepository(db)
		db.Close()

		if _, _, err := repo.Get(session.TokenKey); err == nil {
			t.Error("expected error from closed database")
		}
		if err := repo.Set(session.TokenKey, "tok1"); err == nil {
			t.Error("expected error from closed database")
		}
		if err := repo.Remove(session.TokenKey); err == nil {
			t.Error("expected error from closed database")
		}
	})

	t.Run("Backs A Session", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		repo.Set(session.TokenKey, "tok1")

		gw := &tu.MockGateway{ProfileErr: errors.New("Unauthorized")}
		s := session.New(gw, repo, nil)
		s.Initialize(context.Background())
		if s.IsAuthenticated() {
			t.Fatal("expected rejected credential to leave the session anonymous")
		}
		if _, ok, _ := repo.Get(session.TokenKey); ok {
			t.Error("expected the rejected credential to be cleared from the slot")
		}
	})
}

func TestSearchHistoryRepository(t *testing.T) {
	t.Run("Record", func(t *testing.T) {
		repo := NewSearchHistoryRepository(setupTestDB(t))

		entry, err := repo.Record("", "kind of blue", 3)
		if err != nil {
			t.Fatalf("failed to record search: %v", err)
		}
		if entry.ID == "" {
			t.Error("expected generated ID")
		}
		if entry.Kind != "query" {
			t.Errorf("expected default kind 'query', got %s", entry.Kind)
		}
	})

	t.Run("Record Empty Query", func(t *testing.T) {
		repo := NewSearchHistoryRepository(setupTestDB(t))
		if _, err := repo.Record("genre", "", 0); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Recent Newest First", func(t *testing.T) {
		repo := NewSearchHistoryRepository(setupTestDB(t))

		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		for i, q := range []string{"jazz", "blues", "rock"} {
			at := base.Add(time.Duration(i) * time.Minute)
			repo.now = func() time.Time { return at }
			if _, err := repo.Record("genre", q, i); err != nil {
				t.Fatalf("failed to record %s: %v", q, err)
			}
		}

		entries, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("failed to list history: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Query != "rock" || entries[1].Query != "blues" {
			t.Errorf("unexpected order: %s, %s", entries[0].Query, entries[1].Query)
		}
		if !entries[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
			t.Errorf("unexpected timestamp %v", entries[0].CreatedAt)
		}

		all, _ := repo.Recent(0)
		if len(all) != 3 {
			t.Errorf("expected all 3 entries, got %d", len(all))
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewSearchHistoryRepository(setupTestDB(t))
		repo.Record("query", "a", 0)
		repo.Record("query", "b", 0)

		n, err := repo.Clear()
		if err != nil {
			t.Fatalf("failed to clear: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 removed, got %d", n)
		}

		entries, _ := repo.Recent(10)
		if len(entries) != 0 {
			t.Errorf("expected empty history, got %d", len(entries))
		}
	})
}
