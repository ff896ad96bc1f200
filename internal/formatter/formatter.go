// package formatter renders song lists to various formats (CSV, Markdown, plain text, tables, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/shared"
)

// Supported output formats.
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatTable    = "table"
)

// Formats lists the names accepted by [Render] and [WriteSongs].
var Formats = []string{FormatText, FormatTable, FormatCSV, FormatMarkdown, FormatJSON}

// SongsToCSV converts songs to CSV with columns: ID, Title, Artists, Album, Genre, ReleaseDate, Duration
func SongsToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artists", "Album", "Genre", "ReleaseDate", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			strconv.Itoa(song.ID),
			song.Title,
			strings.Join(song.Artist, "; "),
			song.Album,
			song.Genre,
			song.ReleaseDate,
			song.Duration,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsToMarkdown converts songs to a Markdown table under the given title.
func SongsToMarkdown(title string, songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", title)
	}
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(songs))

	if len(songs) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Title | Artists | Album | Genre | Released | Duration |\n")
	buf.WriteString("|---|-------|---------|-------|-------|----------|----------|\n")
	for _, song := range songs {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s | %s | %s |\n",
			song.ID,
			escapeCell(song.Title),
			escapeCell(song.Artists()),
			escapeCell(song.Album),
			escapeCell(song.Genre),
			song.ReleaseDate,
			song.Duration,
		)
	}

	return buf.Bytes(), nil
}

// SongsToText converts songs to a numbered plain text listing.
func SongsToText(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	for i, song := range songs {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s] #%d\n", i+1, song.Artists(), song.Title, albumPart, song.Duration, song.ID)
	}

	return buf.Bytes(), nil
}

// SongToText renders a single song as labeled lines.
func SongToText(song models.Song) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "ID:       %d\n", song.ID)
	fmt.Fprintf(&buf, "Title:    %s\n", song.Title)
	fmt.Fprintf(&buf, "Artists:  %s\n", song.Artists())
	fmt.Fprintf(&buf, "Album:    %s\n", song.Album)
	if song.Genre != "" {
		fmt.Fprintf(&buf, "Genre:    %s\n", song.Genre)
	}
	fmt.Fprintf(&buf, "Released: %s\n", song.ReleaseDate)
	fmt.Fprintf(&buf, "Duration: %s\n", song.Duration)

	return buf.Bytes()
}

// Render converts songs to the named format.
func Render(format, title string, songs []models.Song) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return SongsToText(songs)
	case FormatTable:
		return SongsToTable(songs)
	case FormatCSV:
		return SongsToCSV(songs)
	case FormatMarkdown, "md":
		return SongsToMarkdown(title, songs)
	case FormatJSON:
		if songs == nil {
			songs = []models.Song{}
		}
		data, err := shared.MarshalJSON(songs, true)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q (expected one of %s)",
			shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteSongs renders songs and writes them to path, or to w when path is empty.
//
// Parent directories of path are created as needed.
func WriteSongs(w io.Writer, format, title string, songs []models.Song, path string) error {
	data, err := Render(format, title, songs)
	if err != nil {
		return err
	}

	if path == "" {
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// HistoryToText renders recorded searches, newest first.
func HistoryToText(entries []models.SearchEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s  %-6s  %-30s  %d result(s)\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Kind, e.Query, e.ResultCount)
	}
	return buf.Bytes()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
