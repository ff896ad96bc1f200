package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/session"
	tu "github.com/desertthunder/wavey/internal/testing"
)

type fakeCatalog struct {
	songs    []models.Song
	err      error
	listings []string
	queries  []string
}

func (f *fakeCatalog) SearchSongs(_ context.Context, q string) ([]models.Song, error) {
	f.queries = append(f.queries, q)
	return f.songs, f.err
}

func (f *fakeCatalog) Listing(_ context.Context, name string) ([]models.Song, error) {
	f.listings = append(f.listings, name)
	return f.songs, f.err
}

func (f *fakeCatalog) Song(_ context.Context, id int) (*models.Song, error) {
	for _, s := range f.songs {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeRecorder struct{ recorded []string }

func (f *fakeRecorder) Record(kind, query string, n int) (*models.SearchEntry, error) {
	f.recorded = append(f.recorded, kind+":"+query)
	return &models.SearchEntry{Kind: kind, Query: query, ResultCount: n}, nil
}

var catalogSongs = []models.Song{
	{ID: 1, Title: "So What", Artist: []string{"Miles Davis"}, Album: "Kind of Blue", Duration: "9:22"},
	{ID: 2, Title: "Blue in Green", Artist: []string{"Miles Davis"}, Album: "Kind of Blue", Duration: "5:37"},
}

func signedInSession(t *testing.T) *session.Session {
	t.Helper()
	gw := &tu.MockGateway{AuthResp: &models.AuthResponse{
		AccessToken: "tok1",
		User:        models.User{ID: 7, Email: "ada@example.com", Name: "Ada"},
	}}
	s := session.New(gw, nil, nil)
	if err := s.Login(context.Background(), "ada@example.com", "pw"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return s
}

// run executes cmd and feeds its message back into the model.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(Msg); ok {
			m.Update(msg)
		}
	}
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(press(string(r)))
	}
}

func TestModel(t *testing.T) {
	ctx := context.Background()

	t.Run("Anonymous Starts At Login", func(t *testing.T) {
		gw := &tu.MockGateway{}
		m := NewModel(ctx, Opts{Session: session.New(gw, nil, nil), Catalog: &fakeCatalog{}})

		if m.ViewState() != LoginView {
			t.Errorf("expected LoginView, got %v", m.ViewState())
		}
		if !strings.Contains(m.View(), "not signed in") {
			t.Error("expected anonymous header")
		}
	})

	t.Run("Sign In Loads Popular", func(t *testing.T) {
		gw := &tu.MockGateway{AuthResp: &models.AuthResponse{
			AccessToken: "tok1",
			User:        models.User{ID: 7, Email: "ada@example.com"},
		}}
		catalog := &fakeCatalog{songs: catalogSongs}
		m := NewModel(ctx, Opts{Session: session.New(gw, nil, nil), Catalog: catalog})
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})

		typeText(m, "ada@example.com")
		m.Update(press("tab"))
		typeText(m, "pw")
		_, cmd := m.Update(press("enter"))
		run(m, cmd) // sign in
		if m.ViewState() != ListView {
			t.Fatalf("expected ListView after sign in, got %v (err %v)", m.ViewState(), m.Err())
		}
		if !strings.Contains(m.View(), "signed in as ada@example.com") {
			t.Error("expected identity in header")
		}
	})

	t.Run("Failed Sign In Stays On Login", func(t *testing.T) {
		gw := &tu.MockGateway{AuthErr: errors.New("Invalid credentials")}
		m := NewModel(ctx, Opts{Session: session.New(gw, nil, nil), Catalog: &fakeCatalog{}})

		typeText(m, "ada@example.com")
		m.Update(press("tab"))
		typeText(m, "bad")
		_, cmd := m.Update(press("enter"))
		run(m, cmd)

		if m.ViewState() != LoginView {
			t.Errorf("expected LoginView, got %v", m.ViewState())
		}
		if m.Err() == nil || !strings.Contains(m.View(), "Invalid credentials") {
			t.Error("expected error to be shown")
		}
	})

	t.Run("Initial Listing", func(t *testing.T) {
		catalog := &fakeCatalog{songs: catalogSongs}
		m := NewModel(ctx, Opts{Session: signedInSession(t), Catalog: catalog})
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
		run(m, m.Init())

		if len(catalog.listings) != 1 || catalog.listings[0] != "popular" {
			t.Errorf("expected popular listing, got %v", catalog.listings)
		}
		if len(m.songs.Items()) != 2 {
			t.Errorf("expected 2 items, got %d", len(m.songs.Items()))
		}

		_, cmd := m.Update(press("tab"))
		run(m, cmd)
		if catalog.listings[1] != "recent" {
			t.Errorf("expected recent listing next, got %v", catalog.listings)
		}
	})

	t.Run("Search Records History", func(t *testing.T) {
		catalog := &fakeCatalog{songs: catalogSongs}
		recorder := &fakeRecorder{}
		m := NewModel(ctx, Opts{Session: signedInSession(t), Catalog: catalog, History: recorder})

		m.Update(press("/"))
		if m.ViewState() != SearchView {
			t.Fatalf("expected SearchView, got %v", m.ViewState())
		}
		typeText(m, "blue")
		_, cmd := m.Update(press("enter"))
		run(m, cmd)

		if len(catalog.queries) != 1 || catalog.queries[0] != "blue" {
			t.Errorf("expected search for blue, got %v", catalog.queries)
		}
		if len(recorder.recorded) != 1 || recorder.recorded[0] != "query:blue" {
			t.Errorf("expected recorded search, got %v", recorder.recorded)
		}
		if m.songs.Title != `Results for "blue"` {
			t.Errorf("unexpected title %q", m.songs.Title)
		}
	})

	t.Run("Detail And Back", func(t *testing.T) {
		catalog := &fakeCatalog{songs: catalogSongs}
		m := NewModel(ctx, Opts{Session: signedInSession(t), Catalog: catalog})
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
		run(m, m.Init())

		_, cmd := m.Update(press("enter"))
		run(m, cmd)
		if m.ViewState() != DetailView {
			t.Fatalf("expected DetailView, got %v (err %v)", m.ViewState(), m.Err())
		}
		if !strings.Contains(m.View(), "Kind of Blue") {
			t.Error("expected album in detail view")
		}

		m.Update(press("esc"))
		if m.ViewState() != ListView {
			t.Errorf("expected ListView, got %v", m.ViewState())
		}
	})

	t.Run("Sign Out", func(t *testing.T) {
		s := signedInSession(t)
		m := NewModel(ctx, Opts{Session: s, Catalog: &fakeCatalog{}})

		m.Update(press("o"))
		if m.ViewState() != LoginView {
			t.Errorf("expected LoginView, got %v", m.ViewState())
		}
		if s.IsAuthenticated() {
			t.Error("expected session signed out")
		}
	})

	t.Run("Fetch Error Is Shown", func(t *testing.T) {
		catalog := &fakeCatalog{err: errors.New("service down")}
		m := NewModel(ctx, Opts{Session: signedInSession(t), Catalog: catalog})
		run(m, m.Init())

		if !strings.Contains(m.View(), "service down") {
			t.Error("expected error in view")
		}
	})
}
