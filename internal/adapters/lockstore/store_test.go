package lockstore_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aptprep/aptprep/internal/adapters/lockstore"
	"github.com/aptprep/aptprep/internal/core/domain"
)

func sampleLockfile() *domain.Lockfile {
	lf := domain.NewLockfile("cafebabe", []string{"curl"})
	lf.Add("amd64_curl_8_5_0_2", domain.PackageEntry{
		Name:         "curl",
		Version:      "8.5.0-2",
		Architecture: "amd64",
		DownloadURL:  "http://repo.example/pool/curl_8.5.0-2_amd64.deb",
		Size:         1000,
		Digest: domain.Digest{
			Algorithm: domain.DigestSHA256,
			Value:     "1111111111111111111111111111111111111111111111111111111111111111",
		},
		Dependencies: []string{},
		ControlFile:  "Package: curl\nVersion: 8.5.0-2",
	})
	return lf
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aptprep.lock")
	original := sampleLockfile()

	if err := lockstore.Save(path, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := lockstore.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.ConfigHash != original.ConfigHash {
		t.Errorf("expected config hash %q, got %q", original.ConfigHash, loaded.ConfigHash)
	}
	if len(loaded.Packages) != 1 {
		t.Fatalf("expected 1 package, got %d", len(loaded.Packages))
	}
	entry := loaded.Packages["amd64_curl_8_5_0_2"]
	if entry.ControlFile != "Package: curl\nVersion: 8.5.0-2" {
		t.Errorf("control file not preserved: %q", entry.ControlFile)
	}
}

func TestStore_SaveIsByteReproducible(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.lock")
	second := filepath.Join(dir, "second.lock")

	if err := lockstore.Save(first, sampleLockfile()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := lockstore.Load(first)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := lockstore.Save(second, loaded); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(a) != string(b) {
		t.Error("save → load → save is not byte identical")
	}
}

func TestStore_RejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aptprep.lock")
	if err := lockstore.Save(path, sampleLockfile()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	corrupted := strings.Replace(string(raw), `"version": 1`, `"version": 2`, 1)
	if corrupted == string(raw) {
		t.Fatal("failed to corrupt the version field")
	}
	if err := os.WriteFile(path, []byte(corrupted), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err = lockstore.Load(path)
	if err == nil {
		t.Fatal("expected error for version 2, got nil")
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	if _, err := lockstore.Load(filepath.Join(t.TempDir(), "missing.lock")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
