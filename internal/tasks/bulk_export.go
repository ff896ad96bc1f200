package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wavey/internal/formatter"
	"github.com/desertthunder/wavey/internal/models"
	"github.com/desertthunder/wavey/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
	ManifestName     = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk catalog exports.
type BulkExportOpts struct {
	Format     string  // json, csv, markdown, text or table
	OutputDir  string  // default: wavey_export_{epoch}
	NumWorkers int     // concurrent writers (default 4, max 10)
	RateLimit  float64 // fetches per second (default 5)
}

// ViewResult is the outcome of exporting one view.
type ViewResult struct {
	View  string `json:"view"`
	Count int    `json:"count"`
	File  string `json:"file,omitempty"`
	Error string `json:"error,omitempty"`

	err error
}

// Err returns the failure for this view, if any.
func (r ViewResult) Err() error { return r.err }

// BulkExportResult summarizes a bulk export and is written as its manifest.
type BulkExportResult struct {
	Format          string       `json:"format"`
	OutputDirectory string       `json:"output_directory"`
	TotalViews      int          `json:"total_views"`
	Successful      int          `json:"successful"`
	Failed          int          `json:"failed"`
	Results         []ViewResult `json:"results"`
	ExportedAt      time.Time    `json:"exported_at"`
	ManifestPath    string       `json:"-"`
}

// Exporter writes catalog views to disk.
type Exporter struct {
	catalog Catalog
	logger  *log.Logger
}

// NewExporter creates an Exporter reading from catalog.
func NewExporter(catalog Catalog, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exporter{catalog: catalog, logger: logger}
}

type viewJob struct {
	view  View
	songs []models.Song
}

// BulkExport fetches every view and writes one file per view plus a manifest.
//
// A failed view is recorded in the result and does not stop the others.
// Cancelling ctx stops fetching; views already fetched are still written.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, views []View, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if len(views) == 0 {
		return nil, fmt.Errorf("%w: no views to export", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	ext, err := extension(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("wavey_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		TotalViews:      len(views),
		Results:         make([]ViewResult, 0, len(views)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan viewJob, len(views))
	results := make(chan ViewResult, len(views))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- e.writeView(job, opts, ext)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, v := range views {
			if err := limiter.Wait(ctx); err != nil {
				for _, rest := range views[i:] {
					results <- ViewResult{View: rest.String(), Error: err.Error(), err: err}
				}
				return
			}

			sendProgress(prog, fetchingViewUpdate(i+1, len(views), v))
			songs, err := v.fetch(ctx, e.catalog)
			if err != nil {
				err = fmt.Errorf("failed to fetch %s: %w", v, err)
				results <- ViewResult{View: v.String(), Error: err.Error(), err: err}
				continue
			}
			jobs <- viewJob{view: v, songs: songs}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.err == nil {
			result.Successful++
			sendProgress(prog, viewWrittenUpdate(completed, len(views), res))
		} else {
			result.Failed++
			e.logger.Warn("view export failed", "view", res.View, "error", res.err)
			sendProgress(prog, viewFailedUpdate(completed, len(views), res))
		}
	}

	result.ExportedAt = time.Now().UTC()
	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func (e *Exporter) writeView(job viewJob, opts BulkExportOpts, ext string) ViewResult {
	res := ViewResult{View: job.view.String(), Count: len(job.songs)}

	path := filepath.Join(opts.OutputDir, job.view.Slug()+ext)
	if err := formatter.WriteSongs(nil, opts.Format, job.view.Title(), job.songs, path); err != nil {
		res.err = fmt.Errorf("%s export failed: %w", opts.Format, err)
		res.Error = res.err.Error()
		return res
	}

	e.logger.Debug("view exported", "view", res.View, "path", path, "count", res.Count)
	res.File = path
	return res
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func extension(format string) (string, error) {
	switch format {
	case formatter.FormatText, formatter.FormatTable, "txt":
		return ".txt", nil
	case formatter.FormatCSV:
		return ".csv", nil
	case formatter.FormatMarkdown, "md":
		return ".md", nil
	case formatter.FormatJSON:
		return ".json", nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
}
