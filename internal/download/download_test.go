package download

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mymanga/internal/domain"
	"mymanga/internal/sharedhttp"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 12))))
	return buf.Bytes()
}

func newTestDownloader(t *testing.T, handler http.Handler) (*Downloader, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	d := New("mymanga-test", zerolog.Nop())
	d.Client = srv.Client()
	d.Retry = sharedhttp.RetryPolicy{Attempts: 2, Delay: time.Millisecond, MaxJitter: time.Millisecond}
	return d, srv
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCBZ, f)

	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("epub")
	assert.Error(t, err)
}

func TestDownloader_Chapter(t *testing.T) {
	page := pngBytes(t)
	d, srv := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mymanga-test", r.Header.Get("User-Agent"))
		// no content type on purpose, the url extension is used instead
		w.Header().Set("Content-Type", "")
		_, _ = w.Write(page)
	}))

	chapter := domain.ChapterDetail{Images: []string{
		srv.URL + "/data/h/1.png",
		srv.URL + "/data/h/2.png",
		srv.URL + "/data/h/3.png",
	}}

	archive, cleanup, err := d.Chapter(context.Background(), chapter, FormatCBZ)
	require.NoError(t, err)

	r, err := zip.OpenReader(archive)
	require.NoError(t, err)

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	require.NoError(t, r.Close())
	assert.Equal(t, []string{"001.png", "002.png", "003.png"}, names)

	cleanup()
	_, err = os.Stat(filepath.Dir(archive))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloader_Chapter_PDF(t *testing.T) {
	page := pngBytes(t)
	d, srv := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(page)
	}))

	archive, cleanup, err := d.Chapter(context.Background(), domain.ChapterDetail{Images: []string{srv.URL + "/a"}}, FormatPDF)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, ".pdf", filepath.Ext(archive))
}

func TestDownloader_Chapter_PageFailure(t *testing.T) {
	page := pngBytes(t)
	d, srv := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(page)
	}))

	_, _, err := d.Chapter(context.Background(), domain.ChapterDetail{Images: []string{
		srv.URL + "/ok.png",
		srv.URL + "/missing.png",
	}}, FormatCBZ)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPageFetch))
}
