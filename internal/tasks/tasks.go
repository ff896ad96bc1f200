package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/shared"
)

// Catalog is the part of the API client a bulk export reads from.
type Catalog interface {
	Listing(ctx context.Context, name string) ([]models.Song, error)
	SongsBy(ctx context.Context, facet, value string) ([]models.Song, error)
}

// View names one catalog view: a listing ("popular") or a facet lookup ("genre:rock").
type View struct {
	Facet string // empty for listings
	Value string // listing name, or facet value
}

// ParseView parses "popular", "recent", "top" or "<facet>:<value>".
func ParseView(s string) (View, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return View{}, fmt.Errorf("%w: empty view", shared.ErrInvalidArgument)
	}

	facet, value, ok := strings.Cut(s, ":")
	if !ok {
		return View{Value: strings.ToLower(s)}, nil
	}

	facet = strings.ToLower(strings.TrimSpace(facet))
	value = strings.TrimSpace(value)
	if facet == "" || value == "" {
		return View{}, fmt.Errorf("%w: view %q must look like facet:value", shared.ErrInvalidArgument, s)
	}
	return View{Facet: facet, Value: value}, nil
}

// String returns the form accepted by [ParseView].
func (v View) String() string {
	if v.Facet == "" {
		return v.Value
	}
	return v.Facet + ":" + v.Value
}

// Title is the heading used in rendered output.
func (v View) Title() string {
	if v.Facet == "" {
		return capitalize(v.Value) + " songs"
	}
	return fmt.Sprintf("%s: %s", capitalize(v.Facet), v.Value)
}

// Slug is a file-name-safe form of the view.
func (v View) Slug() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(v.String()) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (v View) fetch(ctx context.Context, c Catalog) ([]models.Song, error) {
	if v.Facet == "" {
		return c.Listing(ctx, v.Value)
	}
	return c.SongsBy(ctx, v.Facet, v.Value)
}

// ProgressUpdate represents a progress event during a long-running operation.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Phase of a bulk export.
type Phase int

const (
	FetchView Phase = iota
	WriteView
	ViewFailed
)

func (p Phase) String() string {
	switch p {
	case FetchView:
		return "fetch_view"
	case WriteView:
		return "write_view"
	case ViewFailed:
		return "view_failed"
	default:
		return ""
	}
}

func fetchingViewUpdate(step, total int, v View) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchView,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s...", v),
	}
}

func viewWrittenUpdate(step, total int, res ViewResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteView,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ %s: %d song(s) → %s", res.View, res.Count, res.File),
	}
}

func viewFailedUpdate(step, total int, res ViewResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ViewFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✗ %s: %s", res.View, res.Error),
	}
}

// sendProgress never blocks: updates are dropped when nobody is reading.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
