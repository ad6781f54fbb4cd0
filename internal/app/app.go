// Package app implements the application layer: it orchestrates ingestion,
// resolution, lockfile building, downloading, and index generation.
package app

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/aptprep/aptprep/internal/adapters/lockstore"
	"github.com/aptprep/aptprep/internal/core/domain"
	"github.com/aptprep/aptprep/internal/core/ports"
	"github.com/aptprep/aptprep/internal/engine/downloader"
	"github.com/aptprep/aptprep/internal/engine/lockfile"
	"github.com/aptprep/aptprep/internal/engine/resolver"
	"github.com/aptprep/aptprep/internal/output"
	"go.trai.ch/zerr"
)

// App wires the adapters and engines behind the CLI subcommands.
type App struct {
	collector ports.RepositoryCollector
	logger    ports.Logger
}

// New creates a new App.
func New(collector ports.RepositoryCollector, logger ports.Logger) *App {
	return &App{
		collector: collector,
		logger:    logger,
	}
}

// LockParams are the resolved inputs of the lock subcommand.
type LockParams struct {
	Config              domain.Config
	LockfilePath        string
	TargetArchitectures []string
}

// Lock ingests the configured repositories, resolves the transitive closure
// of the required packages for every target architecture, and writes the
// lockfile.
func (a *App) Lock(ctx context.Context, params LockParams) error {
	a.logger.Info("collecting binary packages from repositories")
	byArch, err := a.collector.Collect(ctx, params.Config)
	if err != nil {
		return err
	}

	required := params.Config.RequiredPackages()
	lf := domain.NewLockfile(params.Config.Fingerprint, required)
	builder := lockfile.NewBuilder(a.logger)

	a.logger.Info("resolving requirements")
	for _, architecture := range params.TargetArchitectures {
		a.logger.Info("resolving requirements", "architecture", architecture)

		resolved, err := resolver.Resolve(byArch, required, architecture, a.logger)
		if err != nil {
			return err
		}
		if err := builder.AddPackages(lf, architecture, resolved, byArch); err != nil {
			return err
		}
	}

	a.logger.Info("saving lockfile", "path", params.LockfilePath)
	if err := lockstore.Save(params.LockfilePath, lf); err != nil {
		return err
	}

	a.logger.Info("lockfile created successfully", "path", params.LockfilePath)
	return nil
}

// DownloadParams are the resolved inputs of the download subcommand.
type DownloadParams struct {
	Lockfile  *domain.Lockfile
	OutputDir string
	Options   downloader.Options
}

// Download fetches every artifact pinned by the lockfile into the output
// directory, then regenerates the Packages index beside them.
func (a *App) Download(ctx context.Context, params DownloadParams) error {
	items, err := downloadItems(params.Lockfile)
	if err != nil {
		return err
	}

	a.logger.Info("downloading packages", "count", len(items))
	engine := downloader.New(a.logger)
	if err := engine.DownloadAndCheckAll(ctx, items, params.OutputDir, params.Options); err != nil {
		return err
	}

	a.logger.Info("generating Packages file")
	packagesPath := filepath.Join(params.OutputDir, "Packages")
	if err := output.GeneratePackagesFile(params.Lockfile, packagesPath); err != nil {
		return err
	}

	a.logger.Info("download completed successfully", "output", params.OutputDir)
	return nil
}

// GenerateParams are the resolved inputs of the
// generate-packages-file-from-lockfile subcommand.
type GenerateParams struct {
	Lockfile   *domain.Lockfile
	OutputPath string
}

// GeneratePackagesFile writes a Packages index for the lockfile.
func (a *App) GeneratePackagesFile(params GenerateParams) error {
	a.logger.Info("generating Packages file from lockfile", "output", params.OutputPath)
	if err := output.GeneratePackagesFile(params.Lockfile, params.OutputPath); err != nil {
		return err
	}
	a.logger.Info("Packages file generated successfully", "output", params.OutputPath)
	return nil
}

// downloadItems converts lockfile entries to download items. Every artifact
// lands at the basename of its download URL so the generated Packages file's
// "./<basename>" references resolve within the output directory.
func downloadItems(lf *domain.Lockfile) ([]downloader.Item, error) {
	items := make([]downloader.Item, 0, len(lf.Packages))
	for _, keyed := range lf.EntriesByName() {
		entry := keyed.Entry

		parsed, err := url.Parse(entry.DownloadURL)
		if err != nil {
			return nil, zerr.With(zerr.With(zerr.Wrap(err, "invalid download URL"), "package", entry.Name), "url", entry.DownloadURL)
		}
		if parsed.Host == "" || parsed.Path == "" || parsed.Path == "/" {
			return nil, zerr.With(zerr.With(zerr.With(domain.ErrLockfileValidation, "reason", "download URL has no path"), "package", entry.Name), "url", entry.DownloadURL)
		}

		basename := parsed.Path[strings.LastIndex(parsed.Path, "/")+1:]
		if basename == "" {
			return nil, zerr.With(zerr.With(zerr.With(domain.ErrLockfileValidation, "reason", "download URL has no filename"), "package", entry.Name), "url", entry.DownloadURL)
		}

		items = append(items, downloader.Item{
			BaseURL:    parsed.Scheme + "://" + parsed.Host,
			RelPath:    parsed.Path,
			Size:       entry.Size,
			Digest:     entry.Digest,
			OutputPath: basename,
		})
	}
	return items, nil
}
