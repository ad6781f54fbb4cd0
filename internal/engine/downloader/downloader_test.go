package downloader_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aptprep/aptprep/internal/adapters/logger"
	"github.com/aptprep/aptprep/internal/core/domain"
	"github.com/aptprep/aptprep/internal/engine/downloader"
)

func testLogger() *logger.Logger {
	return logger.NewWithOutput(io.Discard, slog.LevelError)
}

func sha256Digest(data []byte) domain.Digest {
	sum := sha256.Sum256(data)
	return domain.Digest{Algorithm: domain.DigestSHA256, Value: hex.EncodeToString(sum[:])}
}

func defaultOptions() downloader.Options {
	return downloader.Options{
		MaxConcurrencyPerHost: 4,
		MaxRetries:            1,
		DownloadParallelism:   4,
		CheckingParallelism:   4,
	}
}

type artifactServer struct {
	server *httptest.Server
	gets   atomic.Int64
}

func newArtifactServer(t *testing.T, artifacts map[string][]byte) *artifactServer {
	t.Helper()
	as := &artifactServer{}
	as.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		as.gets.Add(1)
		body, ok := artifacts[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(as.server.Close)
	return as
}

func TestEngine_DownloadsAndVerifies(t *testing.T) {
	payload := []byte("deb package payload")
	as := newArtifactServer(t, map[string][]byte{"/pool/a.deb": payload})
	outputDir := t.TempDir()

	items := []downloader.Item{{
		BaseURL:    as.server.URL,
		RelPath:    "/pool/a.deb",
		Size:       int64(len(payload)),
		Digest:     sha256Digest(payload),
		OutputPath: "a.deb",
	}}

	err := downloader.New(testLogger()).DownloadAndCheckAll(context.Background(), items, outputDir, defaultOptions())
	require.NoError(t, err)

	written, err := os.ReadFile(filepath.Join(outputDir, "a.deb"))
	require.NoError(t, err)
	require.Equal(t, payload, written)
}

func TestEngine_SkipsExistingCorrectFile(t *testing.T) {
	payload := []byte("already mirrored")
	as := newArtifactServer(t, map[string][]byte{"/pool/a.deb": payload})
	outputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "a.deb"), payload, 0o644))

	items := []downloader.Item{{
		BaseURL:    as.server.URL,
		RelPath:    "/pool/a.deb",
		Digest:     sha256Digest(payload),
		OutputPath: "a.deb",
	}}

	err := downloader.New(testLogger()).DownloadAndCheckAll(context.Background(), items, outputDir, defaultOptions())
	require.NoError(t, err)
	require.Equal(t, int64(0), as.gets.Load(), "a correct pre-existing file must not trigger a fetch")
}

func TestEngine_ReplacesCorruptFile(t *testing.T) {
	payload := []byte("correct bytes")
	as := newArtifactServer(t, map[string][]byte{"/pool/a.deb": payload})
	outputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "a.deb"), []byte("truncated"), 0o644))

	items := []downloader.Item{{
		BaseURL:    as.server.URL,
		RelPath:    "/pool/a.deb",
		Digest:     sha256Digest(payload),
		OutputPath: "a.deb",
	}}

	err := downloader.New(testLogger()).DownloadAndCheckAll(context.Background(), items, outputDir, defaultOptions())
	require.NoError(t, err)
	require.Equal(t, int64(1), as.gets.Load())

	written, err := os.ReadFile(filepath.Join(outputDir, "a.deb"))
	require.NoError(t, err)
	require.Equal(t, payload, written)
}

func TestEngine_Idempotent(t *testing.T) {
	payload := []byte("fetched once")
	as := newArtifactServer(t, map[string][]byte{"/pool/a.deb": payload})
	outputDir := t.TempDir()

	items := []downloader.Item{{
		BaseURL:    as.server.URL,
		RelPath:    "/pool/a.deb",
		Digest:     sha256Digest(payload),
		OutputPath: "a.deb",
	}}

	engine := downloader.New(testLogger())
	require.NoError(t, engine.DownloadAndCheckAll(context.Background(), items, outputDir, defaultOptions()))
	require.NoError(t, engine.DownloadAndCheckAll(context.Background(), items, outputDir, defaultOptions()))
	require.Equal(t, int64(1), as.gets.Load(), "the second run must not fetch again")
}

func TestEngine_CountsFailuresButFinishesOthers(t *testing.T) {
	payload := []byte("good artifact")
	as := newArtifactServer(t, map[string][]byte{"/pool/good.deb": payload})
	outputDir := t.TempDir()

	items := []downloader.Item{
		{
			BaseURL:    as.server.URL,
			RelPath:    "/pool/good.deb",
			Digest:     sha256Digest(payload),
			OutputPath: "good.deb",
		},
		{
			BaseURL:    as.server.URL,
			RelPath:    "/pool/missing.deb",
			Digest:     sha256Digest([]byte("never served")),
			OutputPath: "missing.deb",
		},
	}

	err := downloader.New(testLogger()).DownloadAndCheckAll(context.Background(), items, outputDir, defaultOptions())
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrDownload)

	// The failing item must not prevent the good one from landing.
	written, err := os.ReadFile(filepath.Join(outputDir, "good.deb"))
	require.NoError(t, err)
	require.Equal(t, payload, written)
}

func TestEngine_RejectsWrongServedBytes(t *testing.T) {
	as := newArtifactServer(t, map[string][]byte{"/pool/a.deb": []byte("tampered bytes")})
	outputDir := t.TempDir()

	items := []downloader.Item{{
		BaseURL:    as.server.URL,
		RelPath:    "/pool/a.deb",
		Digest:     sha256Digest([]byte("expected bytes")),
		OutputPath: "a.deb",
	}}

	err := downloader.New(testLogger()).DownloadAndCheckAll(context.Background(), items, outputDir, defaultOptions())
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrDownload)
}
