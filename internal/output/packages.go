// Package output emits APT index files from a lockfile.
package output

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/aptprep/aptprep/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// GeneratePackagesFile writes a Packages index for the lockfile's entries to
// outputPath. Entries are emitted in ascending name order; each entry's
// stored control paragraph is reproduced verbatim except for the Filename
// field, which is rewritten to "./<basename>" of the download URL so an APT
// client can consume the mirror directory directly.
func GeneratePackagesFile(lf *domain.Lockfile, outputPath string) error {
	var sb strings.Builder

	for _, keyed := range lf.EntriesByName() {
		entry := keyed.Entry
		if !entry.Digest.Algorithm.Valid() {
			return zerr.With(zerr.With(domain.ErrDigestUnsupported, "package", entry.Name), "algorithm", string(entry.Digest.Algorithm))
		}

		basename, err := urlBasename(entry.DownloadURL)
		if err != nil {
			return zerr.With(err, "package", entry.Name)
		}

		sb.WriteString(rewriteFilename(entry.ControlFile, "./"+basename))
		sb.WriteString("\n\n")
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create output directory"), "path", outputPath)
		}
	}
	if err := os.WriteFile(outputPath, []byte(sb.String()), filePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write Packages file"), "path", outputPath)
	}
	return nil
}

// urlBasename returns the last path segment of a download URL.
func urlBasename(downloadURL string) (string, error) {
	idx := strings.LastIndex(downloadURL, "/")
	if idx < 0 || idx == len(downloadURL)-1 {
		return "", zerr.With(zerr.With(domain.ErrLockfileValidation, "reason", "download URL has no filename"), "url", downloadURL)
	}
	return downloadURL[idx+1:], nil
}

// rewriteFilename replaces the paragraph's top-level Filename field in place,
// leaving every other byte untouched. The rewrite is idempotent. A paragraph
// without a Filename field gets one appended.
func rewriteFilename(paragraph, filename string) string {
	lines := strings.Split(strings.TrimRight(paragraph, "\n"), "\n")
	rewritten := false
	for i, line := range lines {
		if strings.HasPrefix(line, "Filename:") {
			lines[i] = "Filename: " + filename
			rewritten = true
			break
		}
	}
	if !rewritten {
		lines = append(lines, "Filename: "+filename)
	}
	return strings.Join(lines, "\n")
}
