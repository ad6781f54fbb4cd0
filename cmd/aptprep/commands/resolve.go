package commands

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/aptprep/aptprep/internal/adapters/lockstore"
	"github.com/aptprep/aptprep/internal/app"
	"github.com/aptprep/aptprep/internal/core/domain"
	"github.com/aptprep/aptprep/internal/engine/downloader"
	"go.trai.ch/zerr"
)

// resolveLock merges the lock flags with the configuration and validates them.
func (c *CLI) resolveLock(configPath, lockfilePath string, archOverrides []string) (app.LockParams, error) {
	cfg, err := c.loader.Load(configPath)
	if err != nil {
		return app.LockParams{}, err
	}
	if len(cfg.SourceRepositories) == 0 {
		return app.LockParams{}, zerr.With(zerr.With(domain.ErrConfigLoad, "path", configPath), "reason", "no source repositories defined")
	}

	architectures := archOverrides
	if len(architectures) == 0 {
		architectures = cfg.Output.TargetArchitectures
	}
	architectures = slices.Clone(architectures)
	slices.Sort(architectures)
	architectures = slices.Compact(architectures)

	if len(architectures) == 0 {
		return app.LockParams{}, zerr.With(domain.ErrArgumentInvalid,
			"reason", "no target architectures provided; configure output.target_architectures or pass --target-architecture")
	}

	return app.LockParams{
		Config:              cfg,
		LockfilePath:        lockfilePath,
		TargetArchitectures: architectures,
	}, nil
}

// resolveDownload validates the download flags, loads the lockfile, and, when
// a configuration is supplied, checks it against the lockfile before any
// network activity.
func (c *CLI) resolveDownload(
	configPath, lockfilePath, outputDir string,
	opts downloader.Options,
) (app.DownloadParams, error) {
	for _, param := range []struct {
		name  string
		value int
	}{
		{"max-concurrency-per-host", opts.MaxConcurrencyPerHost},
		{"max-retries", opts.MaxRetries},
		{"download-parallelism", opts.DownloadParallelism},
		{"checking-parallelism", opts.CheckingParallelism},
	} {
		if param.value < 1 {
			return app.DownloadParams{}, zerr.With(domain.ErrArgumentInvalid,
				"reason", fmt.Sprintf("%s must be greater than 0", param.name))
		}
	}

	lf, err := lockstore.Load(lockfilePath)
	if err != nil {
		return app.DownloadParams{}, err
	}

	if configPath != "" {
		cfg, err := c.loader.Load(configPath)
		if err != nil {
			return app.DownloadParams{}, err
		}
		if lf.ConfigHash != cfg.Fingerprint {
			return app.DownloadParams{}, zerr.With(domain.ErrConfigHashMismatch,
				"hint", "regenerate the lockfile with 'aptprep lock'")
		}
		if !slices.Equal(lf.RequiredPackages, cfg.RequiredPackages()) {
			return app.DownloadParams{}, zerr.With(domain.ErrRequiredPackagesMismatch,
				"hint", "regenerate the lockfile with 'aptprep lock'")
		}
		if outputDir == "" {
			outputDir = cfg.Output.Path
		}
	}

	if outputDir == "" {
		return app.DownloadParams{}, zerr.With(domain.ErrArgumentInvalid,
			"reason", "no output directory provided; pass --output-dir or provide --config with output.path")
	}

	return app.DownloadParams{
		Lockfile:  lf,
		OutputDir: outputDir,
		Options:   opts,
	}, nil
}

// resolveGenerate validates the generate-packages-file flags and loads the
// lockfile.
func (c *CLI) resolveGenerate(configPath, lockfilePath, outputPath string) (app.GenerateParams, error) {
	lf, err := lockstore.Load(lockfilePath)
	if err != nil {
		return app.GenerateParams{}, err
	}

	if outputPath == "" {
		if configPath == "" {
			return app.GenerateParams{}, zerr.With(domain.ErrArgumentInvalid,
				"reason", "no output path provided; pass --output or provide --config with output.path")
		}
		cfg, err := c.loader.Load(configPath)
		if err != nil {
			return app.GenerateParams{}, err
		}
		if cfg.Output.Path == "" {
			return app.GenerateParams{}, zerr.With(domain.ErrArgumentInvalid,
				"reason", "no output path provided; pass --output or configure output.path")
		}
		outputPath = filepath.Join(cfg.Output.Path, "Packages")
	}

	return app.GenerateParams{
		Lockfile:   lf,
		OutputPath: outputPath,
	}, nil
}
