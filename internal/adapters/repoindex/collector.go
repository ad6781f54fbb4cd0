// Package repoindex ingests upstream APT repositories: it fetches release
// documents, enumerates Packages indices, and materializes binary package
// records grouped by architecture.
package repoindex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/aptprep/aptprep/internal/core/domain"
	"github.com/aptprep/aptprep/internal/core/ports"
	"go.trai.ch/zerr"
)

// releaseRetries bounds HTTP retries during ingestion. Downloads have their
// own operator-tunable retry budget.
const releaseRetries = 3

// Collector implements ports.RepositoryCollector over HTTP.
type Collector struct {
	logger ports.Logger
}

// NewCollector creates a new Collector.
func NewCollector(logger ports.Logger) *Collector {
	return &Collector{logger: logger}
}

var _ ports.RepositoryCollector = (*Collector)(nil)

// Collect ingests every configured repository and distribution sequentially.
// Records are grouped by their own Architecture field; paragraphs lacking
// Package or Architecture are skipped with a warning. Any repository-level
// failure aborts the whole ingest.
func (c *Collector) Collect(ctx context.Context, cfg domain.Config) (map[string][]domain.BinaryPackageRecord, error) {
	byArch := map[string][]domain.BinaryPackageRecord{}

	for _, repo := range cfg.SourceRepositories {
		client := newHTTPClient()
		baseURL := strings.TrimRight(repo.SourceURL, "/")
		c.logger.Info("processing source repository", "repository", baseURL)

		for _, dist := range repo.Distributions {
			if err := c.collectDistribution(ctx, client, byArch, repo, baseURL, dist); err != nil {
				return nil, zerr.With(err, "repository", baseURL)
			}
		}
	}

	return byArch, nil
}

func (c *Collector) collectDistribution(
	ctx context.Context,
	client *retryablehttp.Client,
	byArch map[string][]domain.BinaryPackageRecord,
	repo domain.SourceRepository,
	baseURL string,
	dist domain.Distribution,
) error {
	distURL := baseURL + "/" + dist.ReleasePath()

	release, err := c.fetchRelease(ctx, client, distURL)
	if err != nil {
		return err
	}

	// The record's repository URL accounts for an explicit distribution path:
	// flat repositories publish Filename fields relative to the distribution
	// directory, suite-based ones relative to the repository root.
	recordBase := baseURL
	if dist.DistributionPath != "" {
		recordBase = distURL
	}

	for _, entry := range release.packagesIndices() {
		if entry.Architecture != "" && entry.Architecture != "all" &&
			!contains(repo.Architectures, entry.Architecture) {
			continue
		}

		c.logger.Debug("fetching packages index",
			"distribution", dist.ReleasePath(), "index", entry.Path)

		raw, err := c.fetch(ctx, client, distURL+"/"+entry.Path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrRepositoryAccess.Error()), "index", entry.Path)
		}
		body, err := decompress(raw, entry.Compression)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrRepositoryAccess.Error()), "index", entry.Path)
		}

		c.appendRecords(byArch, string(body), recordBase)
	}

	return nil
}

// appendRecords splits a Packages file into paragraphs and inserts each as a
// record keyed by its Architecture field.
func (c *Collector) appendRecords(byArch map[string][]domain.BinaryPackageRecord, body, recordBase string) {
	for _, text := range splitParagraphs(body) {
		paragraph, err := parseParagraph(text)
		if err != nil {
			c.logger.Warn("skipping unparseable package record", "error", err.Error())
			continue
		}

		record := domain.BinaryPackageRecord{
			Raw:       text,
			Paragraph: paragraph,
			RepoURL:   recordBase,
		}
		if record.Name() == "" {
			c.logger.Warn("skipping package record, no package name specified")
			continue
		}
		if record.Architecture() == "" {
			c.logger.Warn("skipping package record, no architecture specified",
				"package", record.Name())
			continue
		}

		byArch[record.Architecture()] = append(byArch[record.Architecture()], record)
	}
}

// fetchRelease retrieves and parses a distribution's release document,
// preferring the unsigned Release file and falling back to InRelease.
func (c *Collector) fetchRelease(ctx context.Context, client *retryablehttp.Client, distURL string) (*releaseFile, error) {
	raw, err := c.fetch(ctx, client, distURL+"/Release")
	if err != nil {
		c.logger.Debug("Release not available, trying InRelease",
			"distribution", distURL, "error", err.Error())
		raw, err = c.fetch(ctx, client, distURL+"/InRelease")
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrRepositoryAccess.Error()),
				"distribution", distURL)
		}
	}

	release, err := parseRelease(raw)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrRepositoryAccess.Error()),
			"distribution", distURL)
	}
	return release, nil
}

func (c *Collector) fetch(ctx context.Context, client *retryablehttp.Client, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to build request"), "url", url)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "request failed"), "url", url)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, zerr.New(fmt.Sprintf("unexpected status %d for %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read response body"), "url", url)
	}
	return body, nil
}

func newHTTPClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = releaseRetries
	client.Logger = nil
	return client
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
