package download

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mymanga/internal/domain"
	"mymanga/internal/files"
	"mymanga/internal/sharedhttp"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Format string

const (
	FormatCBZ Format = "cbz"
	FormatPDF Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatCBZ:
		return FormatCBZ, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", errors.Errorf("unsupported format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.comicbook+zip"
}

// ErrPageFetch is returned when one of the page images could not be downloaded.
var ErrPageFetch = errors.New("could not fetch chapter page")

type Downloader struct {
	Client      *http.Client
	Retry       sharedhttp.RetryPolicy
	UserAgent   string
	Concurrency int
	Log         zerolog.Logger
}

func New(userAgent string, log zerolog.Logger) *Downloader {
	return &Downloader{
		Client:      sharedhttp.NewClient(),
		Retry:       sharedhttp.DefaultRetry,
		UserAgent:   userAgent,
		Concurrency: 4,
		Log:         log.With().Str("module", "download").Logger(),
	}
}

// Chapter downloads the pages of chapter and packs them into a single archive.
// The archive lives in a temporary directory that cleanup removes.
func (d *Downloader) Chapter(ctx context.Context, chapter domain.ChapterDetail, format Format) (archive string, cleanup func(), err error) {
	temp, err := os.MkdirTemp("", "mymanga-*")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() {
		if err := os.RemoveAll(temp); err != nil {
			d.Log.Warn().Err(err).Str("dir", temp).Msg("could not remove temp dir")
		}
	}

	pagesDir := filepath.Join(temp, "pages")
	if err := os.Mkdir(pagesDir, 0o755); err != nil {
		cleanup()
		return "", nil, err
	}

	if err := d.Pages(ctx, pagesDir, chapter.Images); err != nil {
		cleanup()
		return "", nil, err
	}

	archive = filepath.Join(temp, "chapter."+string(format))
	switch format {
	case FormatPDF:
		err = files.CreatePDF(pagesDir, archive)
	default:
		err = files.CreateCbzArchive(pagesDir, archive)
	}
	if err != nil {
		cleanup()
		return "", nil, errors.Wrapf(err, "could not build %s", format)
	}

	return archive, cleanup, nil
}

// Pages fetches every url into dir as 001.ext, 002.ext, ... keeping the reading order.
func (d *Downloader) Pages(ctx context.Context, dir string, urls []string) error {
	g, gctx := errgroup.WithContext(ctx)
	if d.Concurrency > 0 {
		g.SetLimit(d.Concurrency)
	}

	for i, imageURL := range urls {
		i, imageURL := i, imageURL
		filenameNoExt := filepath.Join(dir, fmt.Sprintf("%03d", i+1))

		g.Go(func() error {
			if err := d.singleFile(gctx, imageURL, filenameNoExt); err != nil {
				return errors.WithMessagef(ErrPageFetch, "page %d: %v", i+1, err)
			}
			return nil
		})
	}

	return g.Wait()
}

// singleFile downloads a single file
func (d *Downloader) singleFile(ctx context.Context, url, filenameNoExt string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("User-Agent", d.UserAgent)

	return d.Retry.Do(ctx, func() error {
		resp, err := sharedhttp.ExecRequest(d.Client, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		filename := appendImageExtension(resp, filenameNoExt)

		out, err := os.Create(filename)
		if err != nil {
			return err
		}
		defer out.Close()

		writeBuf := bufio.NewWriter(out)
		if _, err := io.Copy(writeBuf, bufio.NewReader(resp.Body)); err != nil {
			return err
		}

		return writeBuf.Flush()
	})
}

func appendImageExtension(resp *http.Response, filename string) string {
	contentType, _, _ := strings.Cut(resp.Header.Get("Content-Type"), ";")

	switch strings.TrimSpace(contentType) {
	case "image/jpeg", "image/jpg":
		return filename + ".jpg"
	case "image/png":
		return filename + ".png"
	case "image/gif":
		return filename + ".gif"
	case "image/webp":
		return filename + ".webp"
	}

	// fall back to the extension of the requested file
	if ext := path.Ext(resp.Request.URL.Path); ext != "" {
		return filename + strings.ToLower(ext)
	}
	return filename + ".img"
}
