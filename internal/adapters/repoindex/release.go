package repoindex

import (
	"slices"
	"strings"

	"pault.ag/go/debian/control"

	"go.trai.ch/zerr"
)

// releaseFile is the parsed form of a distribution's Release (or InRelease)
// document: the suite metadata plus the checksummed index file lists.
type releaseFile struct {
	control.Paragraph

	Suite         string
	Codename      string
	Components    []string `delim:" "`
	Architectures []string `delim:" "`

	MD5Sum []control.MD5FileHash    `delim:"\n" strip:" \t\n\r" multiline:"true"`
	SHA1   []control.SHA1FileHash   `delim:"\n" strip:" \t\n\r" multiline:"true"`
	SHA256 []control.SHA256FileHash `delim:"\n" strip:" \t\n\r" multiline:"true"`
	SHA512 []control.SHA512FileHash `delim:"\n" strip:" \t\n\r" multiline:"true"`
}

// parseRelease parses a Release document, stripping an OpenPGP clearsign
// wrapper when present (InRelease). Signature verification is out of scope;
// artifact integrity comes from the per-package digests.
func parseRelease(raw []byte) (*releaseFile, error) {
	body := stripClearsign(string(raw))

	var release releaseFile
	decoder, err := control.NewDecoder(strings.NewReader(body), nil)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create control decoder")
	}
	if err := decoder.Decode(&release); err != nil {
		return nil, zerr.Wrap(err, "failed to parse release document")
	}
	return &release, nil
}

const (
	clearsignHeader    = "-----BEGIN PGP SIGNED MESSAGE-----"
	clearsignSignature = "-----BEGIN PGP SIGNATURE-----"
)

// stripClearsign extracts the signed body from a clearsigned document and
// undoes dash escaping. Unsigned input is returned unchanged.
func stripClearsign(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if !strings.HasPrefix(raw, clearsignHeader) {
		return raw
	}

	lines := strings.Split(raw, "\n")
	var body []string
	inBody := false
	for i, line := range lines {
		if !inBody {
			// The armor headers end at the first blank line.
			if i > 0 && line == "" {
				inBody = true
			}
			continue
		}
		if line == clearsignSignature {
			break
		}
		body = append(body, strings.TrimPrefix(line, "- "))
	}
	return strings.Join(body, "\n") + "\n"
}

// indexEntry is one Packages index advertised by a release, after
// preferred-compression selection.
type indexEntry struct {
	// Path is the index path relative to the distribution directory,
	// including the compression suffix.
	Path string

	// Architecture is the architecture encoded in the index path. Empty for
	// flat repositories, whose indices apply to every architecture.
	Architecture string

	// Compression is the selected compression suffix, possibly empty.
	Compression string
}

// packagesIndices enumerates the release's Packages indices. When an index is
// published under several compressions, the preferred one is selected. The
// result is ordered by index path for deterministic ingestion.
func (r *releaseFile) packagesIndices() []indexEntry {
	paths := map[string]struct{}{}
	for _, fh := range r.MD5Sum {
		paths[fh.Filename] = struct{}{}
	}
	for _, fh := range r.SHA1 {
		paths[fh.Filename] = struct{}{}
	}
	for _, fh := range r.SHA256 {
		paths[fh.Filename] = struct{}{}
	}
	for _, fh := range r.SHA512 {
		paths[fh.Filename] = struct{}{}
	}

	// stem (path without compression suffix) → best-ranked suffix seen
	best := map[string]string{}
	for path := range paths {
		stem, suffix := splitCompression(path)
		if stem != "Packages" && !strings.HasSuffix(stem, "/Packages") {
			continue
		}
		if current, ok := best[stem]; !ok || compressionRank(suffix) < compressionRank(current) {
			best[stem] = suffix
		}
	}

	stems := make([]string, 0, len(best))
	for stem := range best {
		stems = append(stems, stem)
	}
	slices.Sort(stems)

	entries := make([]indexEntry, 0, len(stems))
	for _, stem := range stems {
		entries = append(entries, indexEntry{
			Path:         stem + best[stem],
			Architecture: architectureFromIndexPath(stem),
			Compression:  best[stem],
		})
	}
	return entries
}

// splitCompression splits an index path into its stem and a known compression
// suffix. Unknown suffixes stay part of the stem.
func splitCompression(path string) (string, string) {
	for _, suffix := range compressionPreference {
		if suffix != "" && strings.HasSuffix(path, suffix) {
			return strings.TrimSuffix(path, suffix), suffix
		}
	}
	return path, ""
}

// architectureFromIndexPath extracts the architecture from a
// component/binary-<arch>/Packages stem. Empty when the stem has no
// binary-<arch> segment (flat repositories).
func architectureFromIndexPath(stem string) string {
	segments := strings.Split(stem, "/")
	for _, segment := range segments {
		if arch, ok := strings.CutPrefix(segment, "binary-"); ok {
			return arch
		}
	}
	return ""
}
