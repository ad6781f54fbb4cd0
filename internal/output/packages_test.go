package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aptprep/aptprep/internal/core/domain"
)

func lockfileWithEntries() *domain.Lockfile {
	lf := domain.NewLockfile("hash", []string{"curl"})
	lf.Add("amd64_zsh_5_9", domain.PackageEntry{
		Name:         "zsh",
		Version:      "5.9",
		Architecture: "amd64",
		DownloadURL:  "http://repo.example/pool/z/zsh/zsh_5.9_amd64.deb",
		Size:         50,
		Digest:       domain.Digest{Algorithm: domain.DigestSHA256, Value: "22"},
		Dependencies: []string{},
		ControlFile:  "Package: zsh\nVersion: 5.9\nArchitecture: amd64\nFilename: pool/z/zsh/zsh_5.9_amd64.deb\nSize: 50",
	})
	lf.Add("amd64_curl_8_5", domain.PackageEntry{
		Name:         "curl",
		Version:      "8.5",
		Architecture: "amd64",
		DownloadURL:  "http://repo.example/pool/c/curl/curl_8.5_amd64.deb",
		Size:         100,
		Digest:       domain.Digest{Algorithm: domain.DigestSHA256, Value: "11"},
		Dependencies: []string{},
		ControlFile:  "Package: curl\nVersion: 8.5\nArchitecture: amd64\nFilename: pool/c/curl/curl_8.5_amd64.deb\nSize: 100",
	})
	return lf
}

func TestGeneratePackagesFile(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "mirror", "Packages")

	if err := GeneratePackagesFile(lockfileWithEntries(), outputPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	content := string(raw)

	// Ascending name order: curl before zsh.
	curlIdx := strings.Index(content, "Package: curl")
	zshIdx := strings.Index(content, "Package: zsh")
	if curlIdx < 0 || zshIdx < 0 || curlIdx > zshIdx {
		t.Errorf("entries not in ascending name order:\n%s", content)
	}

	if !strings.Contains(content, "Filename: ./curl_8.5_amd64.deb") {
		t.Errorf("curl Filename not rewritten:\n%s", content)
	}
	if !strings.Contains(content, "Filename: ./zsh_5.9_amd64.deb") {
		t.Errorf("zsh Filename not rewritten:\n%s", content)
	}
	if strings.Contains(content, "Filename: pool/") {
		t.Errorf("original Filename left behind:\n%s", content)
	}

	// Every other field is reproduced verbatim.
	if !strings.Contains(content, "Size: 100") || !strings.Contains(content, "Size: 50") {
		t.Errorf("fields not preserved:\n%s", content)
	}

	// Paragraphs are blank-line separated.
	if !strings.Contains(content, "\n\nPackage: zsh") {
		t.Errorf("missing paragraph separator:\n%s", content)
	}
}

func TestGeneratePackagesFile_RejectsUnknownDigest(t *testing.T) {
	lf := lockfileWithEntries()
	entry := lf.Packages["amd64_curl_8_5"]
	entry.Digest.Algorithm = "CRC32"
	lf.Packages["amd64_curl_8_5"] = entry

	err := GeneratePackagesFile(lf, filepath.Join(t.TempDir(), "Packages"))
	if err == nil {
		t.Fatal("expected error for unsupported digest algorithm, got nil")
	}
}

func TestRewriteFilename_Idempotent(t *testing.T) {
	paragraph := "Package: curl\nFilename: pool/c/curl/curl_8.5_amd64.deb\nSize: 100"

	once := rewriteFilename(paragraph, "./curl_8.5_amd64.deb")
	twice := rewriteFilename(once, "./curl_8.5_amd64.deb")
	if once != twice {
		t.Errorf("rewrite not idempotent:\n%q\n%q", once, twice)
	}
	if !strings.Contains(once, "Filename: ./curl_8.5_amd64.deb") {
		t.Errorf("filename not rewritten: %q", once)
	}
}

func TestURLBasename(t *testing.T) {
	basename, err := urlBasename("http://repo.example/pool/c/curl/curl_8.5_amd64.deb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if basename != "curl_8.5_amd64.deb" {
		t.Errorf("unexpected basename: %q", basename)
	}

	if _, err := urlBasename("http://repo.example/"); err == nil {
		t.Error("expected error for URL without filename")
	}
}
