package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// User is the authenticated user's public profile.
type User struct {
	ID        int        `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// DisplayName returns the name when set, falling back to the email address.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Since formats CreatedAt as a local date, or returns it unchanged when it is not RFC 3339.
func (u User) Since() string {
	t, err := time.Parse(time.RFC3339, u.CreatedAt)
	if err != nil {
		return u.CreatedAt
	}
	return t.Local().Format("2006-01-02")
}

// AuthResponse is returned by every authentication endpoint.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Song is a catalog entry.
type Song struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Artist      []string `json:"artist"`
	Album       string   `json:"album"`
	Genre       string   `json:"genre,omitempty"`
	ReleaseDate string   `json:"releaseDate"`
	Duration    string   `json:"duration"` // display-formatted, e.g. "3:20"
}

// Artists joins the artist names for display.
func (s Song) Artists() string {
	return strings.Join(s.Artist, ", ")
}

// SongInput is the body for creating a song.
type SongInput struct {
	Title       string   `json:"title"`
	Artist      []string `json:"artist"`
	Album       string   `json:"album"`
	Genre       string   `json:"genre,omitempty"`
	ReleaseDate string   `json:"releaseDate"`
	Duration    string   `json:"duration"`
}

// SongPatch is a partial update; nil fields are left untouched by the service.
type SongPatch struct {
	Title       *string  `json:"title,omitempty"`
	Artist      []string `json:"artist,omitempty"`
	Album       *string  `json:"album,omitempty"`
	Genre       *string  `json:"genre,omitempty"`
	ReleaseDate *string  `json:"releaseDate,omitempty"`
	Duration    *string  `json:"duration,omitempty"`
}

// Empty reports whether the patch changes nothing. An empty artist list is
// dropped from the body, so it counts as no change.
func (p SongPatch) Empty() bool {
	return p.Title == nil && len(p.Artist) == 0 && p.Album == nil &&
		p.Genre == nil && p.ReleaseDate == nil && p.Duration == nil
}

// MessageResponse is the body of delete confirmations.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorPayload is the structured error body sent with non-2xx responses.
type ErrorPayload struct {
	Message    Messages `json:"message"`
	Error      string   `json:"error,omitempty"`
	StatusCode int      `json:"statusCode"`
}

// Messages holds an error message that the service sends either as a string or as a list of strings.
type Messages []string

// UnmarshalJSON accepts a JSON string, an array of strings, or null.
func (m *Messages) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*m = Messages{one}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("message must be a string or a list of strings: %w", err)
	}
	*m = many
	return nil
}

// String joins the messages into one human-readable line.
func (m Messages) String() string {
	return strings.Join(m, ", ")
}

// SearchEntry is one locally recorded catalog lookup.
type SearchEntry struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Kind        string    `json:"kind"` // "query", "genre", "artist" or "album"
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}
