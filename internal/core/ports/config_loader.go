package ports

import "github.com/aptprep/aptprep/internal/core/domain"

// ConfigLoader loads a configuration file and computes its fingerprint.
type ConfigLoader interface {
	// Load reads the file at path, rejects unknown fields, and returns the
	// configuration with its Fingerprint set to the hex SHA-256 of the raw
	// file bytes.
	Load(path string) (domain.Config, error)
}
