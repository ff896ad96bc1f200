package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/shared"
)

// Catalog facets that can be listed by value.
const (
	FacetGenre  = "genre"
	FacetArtist = "artist"
	FacetAlbum  = "album"
)

// Ranked catalog listings.
const (
	ListingPopular = "popular"
	ListingRecent  = "recent"
	ListingTop     = "top"
)

// CreateSong adds a song to the catalog.
func (c *APIClient) CreateSong(ctx context.Context, song models.SongInput) (*models.Song, error) {
	var created models.Song
	r := request{method: http.MethodPost, endpoint: "/songs", body: song, auth: true}
	if err := c.do(ctx, r, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Songs lists the whole catalog.
func (c *APIClient) Songs(ctx context.Context) ([]models.Song, error) {
	return c.songs(ctx, "/songs")
}

// Song fetches one song by id. A 404 from the service is reported as [shared.ErrSongNotFound].
func (c *APIClient) Song(ctx context.Context, id int) (*models.Song, error) {
	var song models.Song
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: songPath(id), auth: true}, &song); err != nil {
		return nil, notFound(err, id)
	}
	return &song, nil
}

// UpdateSong applies a partial update and returns the stored song.
func (c *APIClient) UpdateSong(ctx context.Context, id int, patch models.SongPatch) (*models.Song, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: update for song %d changes nothing", shared.ErrInvalidInput, id)
	}

	var song models.Song
	r := request{method: http.MethodPatch, endpoint: songPath(id), body: patch, auth: true}
	if err := c.do(ctx, r, &song); err != nil {
		return nil, notFound(err, id)
	}
	return &song, nil
}

// DeleteSong removes a song and returns the service's confirmation message.
func (c *APIClient) DeleteSong(ctx context.Context, id int) (string, error) {
	var resp models.MessageResponse
	if err := c.do(ctx, request{method: http.MethodDelete, endpoint: songPath(id), auth: true}, &resp); err != nil {
		return "", notFound(err, id)
	}
	return resp.Message, nil
}

// SearchSongs performs a free-text catalog search.
func (c *APIClient) SearchSongs(ctx context.Context, query string) ([]models.Song, error) {
	return c.songs(ctx, "/songs/search?q="+url.QueryEscape(query))
}

// SongsByGenre lists songs of one genre.
func (c *APIClient) SongsByGenre(ctx context.Context, genre string) ([]models.Song, error) {
	return c.SongsBy(ctx, FacetGenre, genre)
}

// SongsByArtist lists songs credited to one artist.
func (c *APIClient) SongsByArtist(ctx context.Context, artist string) ([]models.Song, error) {
	return c.SongsBy(ctx, FacetArtist, artist)
}

// SongsByAlbum lists songs from one album.
func (c *APIClient) SongsByAlbum(ctx context.Context, album string) ([]models.Song, error) {
	return c.SongsBy(ctx, FacetAlbum, album)
}

// SongsBy lists songs matching value for facet ([FacetGenre], [FacetArtist] or [FacetAlbum]).
func (c *APIClient) SongsBy(ctx context.Context, facet, value string) ([]models.Song, error) {
	switch facet {
	case FacetGenre, FacetArtist, FacetAlbum:
	default:
		return nil, fmt.Errorf("%w: unknown facet %q", shared.ErrInvalidArgument, facet)
	}
	return c.songs(ctx, "/songs/"+facet+"/"+url.PathEscape(value))
}

// PopularSongs lists the most played songs.
func (c *APIClient) PopularSongs(ctx context.Context) ([]models.Song, error) {
	return c.Listing(ctx, ListingPopular)
}

// RecentSongs lists the most recently added songs.
func (c *APIClient) RecentSongs(ctx context.Context) ([]models.Song, error) {
	return c.Listing(ctx, ListingRecent)
}

// TopSongs lists the top rated songs.
func (c *APIClient) TopSongs(ctx context.Context) ([]models.Song, error) {
	return c.Listing(ctx, ListingTop)
}

// Listing fetches one of the ranked listings ([ListingPopular], [ListingRecent] or [ListingTop]).
func (c *APIClient) Listing(ctx context.Context, name string) ([]models.Song, error) {
	switch name {
	case ListingPopular, ListingRecent, ListingTop:
	default:
		return nil, fmt.Errorf("%w: unknown listing %q", shared.ErrInvalidArgument, name)
	}
	return c.songs(ctx, "/songs/"+name)
}

func (c *APIClient) songs(ctx context.Context, endpoint string) ([]models.Song, error) {
	var songs []models.Song
	if err := c.do(ctx, request{method: http.MethodGet, endpoint: endpoint, auth: true}, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

func songPath(id int) string {
	return "/songs/" + strconv.Itoa(id)
}

func notFound(err error, id int) error {
	if IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("%w: %d: %w", shared.ErrSongNotFound, id, err)
	}
	return err
}
