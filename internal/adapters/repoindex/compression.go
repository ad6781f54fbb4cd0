package repoindex

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"

	"github.com/DataDog/zstd"
	"github.com/ulikunitz/xz"

	"go.trai.ch/zerr"
)

// compressionPreference lists index compression suffixes best first. The
// empty suffix is the uncompressed index.
var compressionPreference = []string{".xz", ".zst", ".gz", ".bz2", ""}

// compressionRank returns the preference rank of a suffix, or -1 when the
// suffix is unknown.
func compressionRank(suffix string) int {
	for i, known := range compressionPreference {
		if known == suffix {
			return i
		}
	}
	return -1
}

// decompress expands raw index bytes according to the path suffix they were
// fetched under.
func decompress(raw []byte, suffix string) ([]byte, error) {
	switch suffix {
	case "":
		return raw, nil
	case ".gz":
		reader, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, zerr.Wrap(err, "failed to open gzip stream")
		}
		defer reader.Close() //nolint:errcheck // Best effort close in defer
		out, err := io.ReadAll(reader)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to decompress gzip stream")
		}
		return out, nil
	case ".xz":
		reader, err := xz.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, zerr.Wrap(err, "failed to open xz stream")
		}
		out, err := io.ReadAll(reader)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to decompress xz stream")
		}
		return out, nil
	case ".zst":
		reader := zstd.NewReader(bytes.NewReader(raw))
		defer reader.Close() //nolint:errcheck // Best effort close in defer
		out, err := io.ReadAll(reader)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to decompress zstd stream")
		}
		return out, nil
	case ".bz2":
		out, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(raw)))
		if err != nil {
			return nil, zerr.Wrap(err, "failed to decompress bzip2 stream")
		}
		return out, nil
	default:
		return nil, zerr.New("unknown compression suffix " + suffix)
	}
}
