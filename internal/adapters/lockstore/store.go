// Package lockstore persists lockfiles as pretty-printed JSON. Map keys are
// serialized in lexicographic order, so identical lockfiles produce identical
// bytes.
package lockstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/aptprep/aptprep/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// Save writes the lockfile to path, creating the parent directory if needed.
func Save(path string, lf *domain.Lockfile) error {
	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to marshal lockfile"), "path", path)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create lockfile directory"), "path", path)
		}
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write lockfile"), "path", path)
	}
	return nil
}

// Load reads a lockfile from path and rejects unsupported format versions.
func Load(path string) (*domain.Lockfile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is supplied by the operator
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read lockfile"), "path", path)
	}

	var lf domain.Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse lockfile"), "path", path)
	}

	if lf.Version != domain.LockfileVersion {
		return nil, zerr.With(zerr.With(zerr.With(domain.ErrLockfileVersionUnsupported, "path", path), "version", lf.Version), "supported", domain.LockfileVersion)
	}

	return &lf, nil
}
