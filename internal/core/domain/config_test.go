package domain_test

import (
	"testing"

	"github.com/aptprep/aptprep/internal/core/domain"
)

func TestConfig_RequiredPackages(t *testing.T) {
	cfg := domain.Config{Packages: []string{"curl", "bash", "curl"}}

	got := cfg.RequiredPackages()
	if len(got) != 2 || got[0] != "bash" || got[1] != "curl" {
		t.Errorf("unexpected required packages: %v", got)
	}

	// The original ordering must stay untouched.
	if cfg.Packages[0] != "curl" {
		t.Errorf("RequiredPackages mutated the config: %v", cfg.Packages)
	}
}

func TestDistribution_ReleasePath(t *testing.T) {
	tests := []struct {
		dist domain.Distribution
		want string
	}{
		{domain.Distribution{Suite: "noble"}, "dists/noble"},
		{domain.Distribution{DistributionPath: "dists/noble-security/"}, "dists/noble-security"},
		{domain.Distribution{DistributionPath: "/updates"}, "updates"},
	}
	for _, tc := range tests {
		if got := tc.dist.ReleasePath(); got != tc.want {
			t.Errorf("ReleasePath(%+v) = %q, want %q", tc.dist, got, tc.want)
		}
	}
}
