package repoindex

import (
	"strings"
	"testing"
)

const sampleRelease = `Suite: noble
Codename: noble
Architectures: amd64 all
Components: main universe
SHA256:
 aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa 100 main/binary-amd64/Packages
 bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb 60 main/binary-amd64/Packages.gz
 cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc 50 main/binary-amd64/Packages.xz
 dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd 80 universe/binary-arm64/Packages.gz
 eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee 70 main/binary-all/Packages.gz
 ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff 90 main/source/Sources.gz
`

func TestParseRelease(t *testing.T) {
	release, err := parseRelease([]byte(sampleRelease))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if release.Suite != "noble" {
		t.Errorf("expected suite noble, got %q", release.Suite)
	}
	if len(release.Components) != 2 {
		t.Errorf("expected 2 components, got %v", release.Components)
	}
	if len(release.SHA256) != 6 {
		t.Errorf("expected 6 SHA256 entries, got %d", len(release.SHA256))
	}
}

func TestPackagesIndices_PreferredCompression(t *testing.T) {
	release, err := parseRelease([]byte(sampleRelease))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := release.packagesIndices()
	if len(entries) != 3 {
		t.Fatalf("expected 3 indices, got %v", entries)
	}

	// Sorted by stem; the amd64 index picks .xz over .gz and plain.
	if entries[0].Path != "main/binary-all/Packages.gz" || entries[0].Architecture != "all" {
		t.Errorf("unexpected entry 0: %+v", entries[0])
	}
	if entries[1].Path != "main/binary-amd64/Packages.xz" || entries[1].Architecture != "amd64" {
		t.Errorf("unexpected entry 1: %+v", entries[1])
	}
	if entries[2].Path != "universe/binary-arm64/Packages.gz" || entries[2].Architecture != "arm64" {
		t.Errorf("unexpected entry 2: %+v", entries[2])
	}
}

func TestPackagesIndices_FlatRepository(t *testing.T) {
	release, err := parseRelease([]byte("Suite: flat\nSHA256:\n aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa 10 Packages.gz\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := release.packagesIndices()
	if len(entries) != 1 {
		t.Fatalf("expected 1 index, got %v", entries)
	}
	if entries[0].Path != "Packages.gz" || entries[0].Architecture != "" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestStripClearsign(t *testing.T) {
	signed := strings.Join([]string{
		"-----BEGIN PGP SIGNED MESSAGE-----",
		"Hash: SHA256",
		"",
		"Suite: noble",
		"- -- dash escaped line",
		"-----BEGIN PGP SIGNATURE-----",
		"nonsense",
		"-----END PGP SIGNATURE-----",
		"",
	}, "\n")

	body := stripClearsign(signed)
	if !strings.HasPrefix(body, "Suite: noble\n") {
		t.Errorf("unexpected body: %q", body)
	}
	if !strings.Contains(body, "-- dash escaped line") {
		t.Errorf("dash escaping not removed: %q", body)
	}
	if strings.Contains(body, "PGP SIGNATURE") {
		t.Errorf("signature not stripped: %q", body)
	}
}

func TestStripClearsign_PassthroughUnsigned(t *testing.T) {
	if got := stripClearsign("Suite: noble\n"); got != "Suite: noble\n" {
		t.Errorf("unsigned input modified: %q", got)
	}
}
