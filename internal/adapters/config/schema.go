package config

import (
	"gopkg.in/yaml.v3"

	"github.com/aptprep/aptprep/internal/core/domain"
	"go.trai.ch/zerr"
)

// configDTO mirrors the configuration file layout.
type configDTO struct {
	SourceRepositories []sourceRepositoryDTO `yaml:"source_repositories"`
	Packages           []string              `yaml:"packages"`
	Output             outputDTO             `yaml:"output"`
}

type sourceRepositoryDTO struct {
	SourceURL     string            `yaml:"source_url"`
	Architectures []string          `yaml:"architectures"`
	Distributions []distributionDTO `yaml:"distributions"`
}

type outputDTO struct {
	Path                string   `yaml:"path"`
	TargetArchitectures []string `yaml:"target_architectures"`
}

// distributionDTO accepts either a plain suite name or an explicit
// {distribution_path: …} mapping.
type distributionDTO struct {
	suite            string
	distributionPath string
}

func (d *distributionDTO) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&d.suite)
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			if key != "distribution_path" {
				return zerr.With(zerr.With(domain.ErrConfigLoad, "unknown_field", key), "line", node.Content[i].Line)
			}
			if err := node.Content[i+1].Decode(&d.distributionPath); err != nil {
				return err
			}
		}
		if d.distributionPath == "" {
			return zerr.With(zerr.With(domain.ErrConfigLoad, "reason", "distribution_path must not be empty"), "line", node.Line)
		}
		return nil
	default:
		return zerr.With(zerr.With(domain.ErrConfigLoad, "reason", "distribution must be a suite name or a distribution_path mapping"), "line", node.Line)
	}
}

func (d distributionDTO) toDomain() domain.Distribution {
	return domain.Distribution{
		Suite:            d.suite,
		DistributionPath: d.distributionPath,
	}
}
