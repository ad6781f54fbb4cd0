package ports

import (
	"context"

	"github.com/aptprep/aptprep/internal/core/domain"
)

// RepositoryCollector ingests the configured upstream repositories and
// returns every binary package record grouped by the record's Architecture
// field. Any repository-level failure is fatal: a partial ingest cannot
// produce a lockfile that claims closure.
type RepositoryCollector interface {
	Collect(ctx context.Context, cfg domain.Config) (map[string][]domain.BinaryPackageRecord, error)
}
