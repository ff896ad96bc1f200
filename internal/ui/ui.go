package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	ListView
	SearchView
	DetailView
)

// Catalog is the subset of the API client the browser reads from.
type Catalog interface {
	SearchSongs(ctx context.Context, query string) ([]models.Song, error)
	Listing(ctx context.Context, name string) ([]models.Song, error)
	Song(ctx context.Context, id int) (*models.Song, error)
}

// Recorder remembers searches run from the browser.
type Recorder interface {
	Record(kind, query string, resultCount int) (*models.SearchEntry, error)
}

var listings = []string{"popular", "recent", "top"}

// Opts configures [NewModel]. History is optional.
type Opts struct {
	Session session.Provider
	Catalog Catalog
	History Recorder
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	session session.Provider
	catalog Catalog
	history Recorder

	width  int
	height int

	songs    list.Model
	listing  int
	selected *models.Song

	query    textinput.Model
	email    textinput.Model
	password textinput.Model

	loading bool
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	songs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	songs.SetFilteringEnabled(false)
	songs.SetShowHelp(false)
	songs.DisableQuitKeybindings()

	query := textinput.New()
	query.Placeholder = "title, artist or album"
	query.Prompt = "Search: "

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "Email:    "

	password := textinput.New()
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	m := &Model{
		ctx:      ctx,
		session:  opts.Session,
		catalog:  opts.Catalog,
		history:  opts.History,
		songs:    songs,
		query:    query,
		email:    email,
		password: password,
		help:     help.New(),
		keys:     newKeyMap(),
	}

	if opts.Session.State().IsAuthenticated() {
		m.view = ListView
	} else {
		m.view = LoginView
		m.email.Focus()
	}
	return m
}

// ViewState returns the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Err returns the last error shown to the user.
func (m *Model) Err() error { return m.err }

// Init loads the first listing when already signed in.
func (m *Model) Init() tea.Cmd {
	if m.view == LoginView {
		return textinput.Blink
	}
	return m.fetchListing()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.songs.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case ListView:
			return m.handleListKeys(msg)
		case SearchView:
			return m.handleSearchKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateActive(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	m.loading = false

	switch msg.kind {
	case MsgSignedIn:
		if err, _ := msg.data.(error); err != nil {
			m.err = err
			m.password.SetValue("")
			return m, nil
		}
		m.err = nil
		m.email.Blur()
		m.password.Blur()
		m.password.SetValue("")
		m.view = ListView
		return m, m.fetchListing()

	case MsgSongsFetched:
		res := msg.data.(songsResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.songs.Title = res.title
		m.songs.ResetSelected()
		return m, m.songs.SetItems(songItems(res.songs))

	case MsgSongFetched:
		res := msg.data.(songResult)
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.selected = res.song
		m.view = DetailView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		return m, m.toggleLoginFocus()
	case "enter":
		if m.email.Focused() {
			return m, m.toggleLoginFocus()
		}
		if m.email.Value() == "" || m.password.Value() == "" {
			m.err = fmt.Errorf("email and password are required")
			return m, nil
		}
		m.loading = true
		return m, m.signIn(m.email.Value(), m.password.Value())
	}

	var cmd tea.Cmd
	if m.email.Focused() {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleLoginFocus() tea.Cmd {
	if m.email.Focused() {
		m.email.Blur()
		return m.password.Focus()
	}
	m.password.Blur()
	return m.email.Focus()
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.view = SearchView
		m.query.SetValue("")
		return m, m.query.Focus()
	case "tab":
		m.listing = (m.listing + 1) % len(listings)
		return m, m.fetchListing()
	case "o":
		m.session.Logout()
		m.songs.SetItems(nil)
		m.view = LoginView
		return m, m.email.Focus()
	case "enter":
		if item, ok := m.songs.SelectedItem().(songItem); ok {
			m.loading = true
			return m, m.fetchSong(item.song.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.songs, cmd = m.songs.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.query.Blur()
		m.view = ListView
		return m, nil
	case "enter":
		q := strings.TrimSpace(m.query.Value())
		m.query.Blur()
		m.view = ListView
		if q == "" {
			return m, nil
		}
		m.loading = true
		return m, m.search(q)
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = ListView
		m.selected = nil
	}
	return m, nil
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ListView:
		m.songs, cmd = m.songs.Update(msg)
	case SearchView:
		m.query, cmd = m.query.Update(msg)
	case LoginView:
		if m.email.Focused() {
			m.email, cmd = m.email.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) signIn(email, password string) tea.Cmd {
	return func() tea.Msg {
		return signedInMsg(m.session.Login(m.ctx, email, password))
	}
}

func (m *Model) fetchListing() tea.Cmd {
	name := listings[m.listing]
	return func() tea.Msg {
		songs, err := m.catalog.Listing(m.ctx, name)
		return songsFetchedMsg(strings.ToUpper(name[:1])+name[1:]+" songs", songs, err)
	}
}

func (m *Model) search(query string) tea.Cmd {
	return func() tea.Msg {
		songs, err := m.catalog.SearchSongs(m.ctx, query)
		if err == nil && m.history != nil {
			m.history.Record("query", query, len(songs))
		}
		return songsFetchedMsg(fmt.Sprintf("Results for %q", query), songs, err)
	}
}

func (m *Model) fetchSong(id int) tea.Cmd {
	return func() tea.Msg {
		song, err := m.catalog.Song(m.ctx, id)
		return songFetchedMsg(song, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView:
		body = m.renderLogin()
	case ListView:
		body = m.renderList()
	case SearchView:
		body = m.renderSearch()
	case DetailView:
		body = m.renderDetail()
	}

	parts := []string{m.renderHeader(), body}
	if m.loading {
		parts = append(parts, styles.help.Render("Loading..."))
	}
	if m.err != nil {
		parts = append(parts, styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) renderHeader() string {
	who := "not signed in"
	if u := m.session.State().User; u != nil {
		who = "signed in as " + u.DisplayName()
	}
	return styles.header.Render("Wavey") + " " + styles.help.Render(who)
}

func (m *Model) renderLogin() string {
	title := styles.title.Render("Sign in")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, m.email.View(), m.password.View(), helpView)
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.search, m.keys.listing, m.keys.logout, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.songs.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSearch() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back}
	return fmt.Sprintf("%s\n\n%s", m.query.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return styles.warn.Render("No song selected")
	}
	s := m.selected

	rows := []string{styles.title.Render(s.Title)}
	field := func(label, value string) {
		if value != "" {
			rows = append(rows, styles.label.Render(label)+value)
		}
	}
	field("Artists", s.Artists())
	field("Album", s.Album)
	field("Genre", s.Genre)
	field("Released", s.ReleaseDate)
	field("Duration", s.Duration)
	field("ID", fmt.Sprintf("%d", s.ID))

	rows = append(rows, "", m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	return strings.Join(rows, "\n")
}
