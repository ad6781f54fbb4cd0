// Package config provides the configuration loader for aptprep.
package config

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aptprep/aptprep/internal/core/domain"
	"github.com/aptprep/aptprep/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader implements ports.ConfigLoader using a strict YAML decoder.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ ports.ConfigLoader = (*Loader)(nil)

// Load reads the configuration file at path. Unknown fields are rejected.
// The returned configuration carries the hex SHA-256 fingerprint of the raw
// file bytes, which binds lockfiles to the exact file they were built from.
func (l *Loader) Load(path string) (domain.Config, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // Path is supplied by the operator
	if err != nil {
		return domain.Config{}, zerr.With(zerr.Wrap(err, domain.ErrConfigLoad.Error()), "path", path)
	}

	var dto configDTO
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&dto); err != nil {
		return domain.Config{}, zerr.With(zerr.Wrap(err, domain.ErrConfigLoad.Error()), "path", path)
	}

	cfg := domain.Config{
		Fingerprint: Fingerprint(raw),
		Packages:    dto.Packages,
		Output: domain.OutputConfig{
			Path:                dto.Output.Path,
			TargetArchitectures: dto.Output.TargetArchitectures,
		},
	}

	for _, repo := range dto.SourceRepositories {
		if repo.SourceURL == "" {
			return domain.Config{}, zerr.With(zerr.With(domain.ErrConfigLoad, "path", path), "reason", "source_url must not be empty")
		}
		distributions := make([]domain.Distribution, 0, len(repo.Distributions))
		for _, dist := range repo.Distributions {
			distributions = append(distributions, dist.toDomain())
		}
		cfg.SourceRepositories = append(cfg.SourceRepositories, domain.SourceRepository{
			SourceURL:     repo.SourceURL,
			Architectures: repo.Architectures,
			Distributions: distributions,
		})
	}

	return cfg, nil
}

// Fingerprint returns the hex-encoded SHA-256 of the raw configuration bytes.
func Fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
