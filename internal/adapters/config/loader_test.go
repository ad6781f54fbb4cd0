package config_test

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aptprep/aptprep/internal/adapters/config"
	"github.com/aptprep/aptprep/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load(t *testing.T) {
	content := `source_repositories:
  - source_url: http://archive.ubuntu.com/ubuntu
    architectures: [amd64]
    distributions:
      - noble
      - distribution_path: dists/noble-updates
packages:
  - curl
  - ca-certificates
output:
  path: out
  target_architectures: [amd64]
`
	path := writeConfig(t, content)

	cfg, err := config.NewLoader().Load(path)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(content))
	require.Equal(t, hex.EncodeToString(sum[:]), cfg.Fingerprint)

	require.Len(t, cfg.SourceRepositories, 1)
	repo := cfg.SourceRepositories[0]
	require.Equal(t, "http://archive.ubuntu.com/ubuntu", repo.SourceURL)
	require.Equal(t, []string{"amd64"}, repo.Architectures)
	require.Equal(t, []domain.Distribution{
		{Suite: "noble"},
		{DistributionPath: "dists/noble-updates"},
	}, repo.Distributions)

	require.Equal(t, []string{"curl", "ca-certificates"}, cfg.Packages)
	require.Equal(t, "out", cfg.Output.Path)
	require.Equal(t, []string{"amd64"}, cfg.Output.TargetArchitectures)
}

func TestLoader_RejectsUnknownField(t *testing.T) {
	path := writeConfig(t, `packages: [curl]
unexpected_field: true
output:
  target_architectures: [amd64]
`)

	_, err := config.NewLoader().Load(path)
	require.Error(t, err)
}

func TestLoader_RejectsUnknownDistributionField(t *testing.T) {
	path := writeConfig(t, `source_repositories:
  - source_url: http://repo.example/debian
    architectures: [amd64]
    distributions:
      - distribution_paths: dists/noble
packages: [curl]
output:
  target_architectures: [amd64]
`)

	_, err := config.NewLoader().Load(path)
	require.Error(t, err)
}

func TestLoader_RejectsEmptySourceURL(t *testing.T) {
	path := writeConfig(t, `source_repositories:
  - architectures: [amd64]
    distributions: [noble]
packages: [curl]
output:
  target_architectures: [amd64]
`)

	_, err := config.NewLoader().Load(path)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrConfigLoad)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := config.NewLoader().Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
