package downloader

import "github.com/aptprep/aptprep/internal/core/domain"

// Item is one artifact to fetch and verify.
type Item struct {
	// BaseURL is the upstream base the artifact is fetched from. Items with
	// the same base share one HTTP client and one per-host limiter.
	BaseURL string

	// RelPath is the artifact path below BaseURL.
	RelPath string

	// Size is the advertised artifact size in bytes, when known. Informational.
	Size int64

	// Digest is the expected content digest.
	Digest domain.Digest

	// OutputPath is the artifact path relative to the output directory.
	// Empty means RelPath is used.
	OutputPath string
}

// Options are the engine's tuning knobs. All values must be at least 1.
type Options struct {
	// MaxConcurrencyPerHost bounds in-flight requests per upstream base URL.
	MaxConcurrencyPerHost int

	// MaxRetries bounds HTTP retries per request.
	MaxRetries int

	// DownloadParallelism bounds simultaneous fetches across all hosts.
	DownloadParallelism int

	// CheckingParallelism bounds simultaneous digest checks of existing files.
	CheckingParallelism int
}
