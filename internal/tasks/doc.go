// Package tasks runs long catalog operations with progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes several catalog views (ranked listings such as
// "popular", or facet lookups such as genre:rock) to one file each:
//
//   - A producer fetches each view from the [Catalog], paced by a [golang.org/x/time/rate.Limiter]
//   - A bounded pool of workers renders and writes the files
//   - A view that fails to fetch or write is recorded and the export continues
//   - An export_manifest.json summarizing every view is written last
//
// # Progress Reporting
//
// Updates are sent on an optional channel with select/default so a slow or
// absent reader never blocks the export.
package tasks
