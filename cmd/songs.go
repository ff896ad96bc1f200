package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/wavey/internal/formatter"
	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/shared"
	"github.com/desertthunder/wavey/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SongsList prints the whole catalog.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	songs, err := r.client.Songs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list songs: %w", err)
	}
	return r.writeSongs(cmd, "All songs", songs)
}

// SongsGet prints one song.
func (r *Runner) SongsGet(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	song, err := r.client.Song(ctx, id)
	if err != nil {
		return err
	}
	return r.writeSong(cmd, song)
}

// SongsCreate adds a song from flags.
func (r *Runner) SongsCreate(ctx context.Context, cmd *cli.Command) error {
	input := models.SongInput{
		Title:       cmd.String("title"),
		Artist:      cmd.StringSlice("artist"),
		Album:       cmd.String("album"),
		Genre:       cmd.String("genre"),
		ReleaseDate: cmd.String("release-date"),
		Duration:    cmd.String("duration"),
	}
	if input.Title == "" || len(input.Artist) == 0 {
		return fmt.Errorf("%w: --title and --artist are required", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	song, err := r.client.CreateSong(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create song: %w", err)
	}
	r.logger.Info("song created", "id", song.ID)
	return r.writeSong(cmd, song)
}

// SongsUpdate applies only the flags that were set.
func (r *Runner) SongsUpdate(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}

	var patch models.SongPatch
	for name, field := range map[string]**string{
		"title":        &patch.Title,
		"album":        &patch.Album,
		"genre":        &patch.Genre,
		"release-date": &patch.ReleaseDate,
		"duration":     &patch.Duration,
	} {
		if cmd.IsSet(name) {
			v := cmd.String(name)
			*field = &v
		}
	}
	if cmd.IsSet("artist") {
		patch.Artist = cmd.StringSlice("artist")
	}
	if patch.Empty() {
		return fmt.Errorf("%w: nothing to update; pass at least one field flag", shared.ErrMissingArgument)
	}

	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	song, err := r.client.UpdateSong(ctx, id, patch)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}
	r.logger.Info("song updated", "id", song.ID)
	return r.writeSong(cmd, song)
}

// SongsDelete removes a song.
func (r *Runner) SongsDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := songID(cmd)
	if err != nil {
		return err
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	msg, err := r.client.DeleteSong(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	if msg == "" {
		msg = fmt.Sprintf("Song %d deleted", id)
	}
	return r.writePlain("✓ %s\n", msg)
}

// SongsSearch runs a free-text search.
func (r *Runner) SongsSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	songs, err := r.client.SearchSongs(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	r.record("query", query, len(songs))
	return r.writeSongs(cmd, fmt.Sprintf("Results for %q", query), songs)
}

// SongsByFacet lists songs by genre, artist or album; the facet is the command name.
func (r *Runner) SongsByFacet(ctx context.Context, cmd *cli.Command) error {
	facet := cmd.Name
	value := strings.TrimSpace(cmd.StringArg("value"))
	if value == "" {
		return fmt.Errorf("%w: %s name", shared.ErrMissingArgument, facet)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	songs, err := r.client.SongsBy(ctx, facet, value)
	if err != nil {
		return fmt.Errorf("failed to list songs by %s: %w", facet, err)
	}
	r.record(facet, value, len(songs))
	return r.writeSongs(cmd, fmt.Sprintf("%s: %s", strings.ToUpper(facet[:1])+facet[1:], value), songs)
}

// SongsListing prints a ranked listing; the listing is the command name.
func (r *Runner) SongsListing(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	songs, err := r.client.Listing(ctx, cmd.Name)
	if err != nil {
		return fmt.Errorf("failed to list %s songs: %w", cmd.Name, err)
	}
	return r.writeSongs(cmd, strings.ToUpper(cmd.Name[:1])+cmd.Name[1:]+" songs", songs)
}

// SongsHistory prints or clears recorded searches.
func (r *Runner) SongsHistory(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	if r.history == nil {
		return fmt.Errorf("%w: search history needs the local database", shared.ErrServiceUnavailable)
	}

	if cmd.Bool("clear") {
		n, err := r.history.Clear()
		if err != nil {
			return err
		}
		return r.writePlain("✓ Cleared %d search(es)\n", n)
	}

	entries, err := r.history.Recent(cmd.Int("limit"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		if entries == nil {
			entries = []models.SearchEntry{}
		}
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}
	if len(entries) == 0 {
		return r.writePlain("No searches recorded\n")
	}
	data := formatter.HistoryToText(entries)
	if cmd.String("format") == formatter.FormatTable {
		if data, err = formatter.HistoryToTable(entries); err != nil {
			return err
		}
	}
	_, err = r.output.Write(data)
	return err
}

func (r *Runner) record(kind, query string, n int) {
	if r.history == nil {
		return
	}
	if _, err := r.history.Record(kind, query, n); err != nil {
		r.logger.Warn("failed to record search", "error", err)
	}
}

func (r *Runner) writeSongs(cmd *cli.Command, title string, songs []models.Song) error {
	if cmd.Bool("json") {
		if songs == nil {
			songs = []models.Song{}
		}
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}

	path := cmd.String("output")
	if err := formatter.WriteSongs(r.output, cmd.String("format"), title, songs, path); err != nil {
		return err
	}
	if path != "" {
		r.logger.Info("songs written", "path", path, "count", len(songs))
		return r.writePlain("✓ Wrote %d song(s) to %s\n", len(songs), path)
	}
	if len(songs) == 0 && cmd.String("format") == formatter.FormatText {
		return r.writePlain("No songs found\n")
	}
	return nil
}

func (r *Runner) writeSong(cmd *cli.Command, song *models.Song) error {
	if cmd.Bool("json") {
		return r.writeJSON(song, cmd.Bool("pretty"))
	}
	_, err := r.output.Write(formatter.SongToText(*song))
	return err
}

func songID(cmd *cli.Command) (int, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: song id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: song id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// SongsExport writes each named view to its own file in one directory.
func (r *Runner) SongsExport(ctx context.Context, cmd *cli.Command) error {
	var views []tasks.View
	seen := map[string]bool{}
	for _, arg := range cmd.Args().Slice() {
		v, err := tasks.ParseView(arg)
		if err != nil {
			return err
		}
		if !seen[v.Slug()] {
			seen[v.Slug()] = true
			views = append(views, v)
		}
	}
	if len(views) == 0 {
		return fmt.Errorf("%w: at least one view, e.g. popular or genre:rock", shared.ErrMissingArgument)
	}
	if err := r.requireAuth(ctx); err != nil {
		return err
	}

	prog := make(chan tasks.ProgressUpdate, len(views)*2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range prog {
			r.writePlain("[%d/%d] %s\n", u.Step, u.Total, u.Message)
		}
	}()

	exporter := tasks.NewExporter(r.client, shared.WithLogger(r.logger, "component", "export"))
	result, err := exporter.BulkExport(ctx, prog, views, tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("dir"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.API.RequestsPerSecond,
	})
	close(prog)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d/%d view(s) to %s", result.Successful, result.TotalViews, result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d view(s) failed to export", shared.ErrAPIRequest, result.Failed)
	}
	return nil
}
