package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/desertthunder/wavey/internal/models"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// newTable returns a borderless, left-aligned table writing to w.
func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.Lines{ShowHeaderLine: tw.Off},
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}

// SongsToTable renders songs as an aligned terminal table.
func SongsToTable(songs []models.Song) ([]byte, error) {
	rows := make([][]string, 0, len(songs))
	for _, song := range songs {
		rows = append(rows, []string{
			strconv.Itoa(song.ID),
			song.Title,
			song.Artists(),
			song.Album,
			song.Genre,
			song.Duration,
		})
	}
	return renderTable([]string{"ID", "Title", "Artists", "Album", "Genre", "Duration"}, rows)
}

// HistoryToTable renders recorded searches as an aligned terminal table.
func HistoryToTable(entries []models.SearchEntry) ([]byte, error) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.Kind,
			e.Query,
			strconv.Itoa(e.ResultCount),
		})
	}
	return renderTable([]string{"When", "Kind", "Query", "Results"}, rows)
}

func renderTable(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	table := newTable(&buf)
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return nil, fmt.Errorf("failed to build table: %w", err)
	}
	if err := table.Render(); err != nil {
		return nil, fmt.Errorf("failed to render table: %w", err)
	}
	return buf.Bytes(), nil
}
