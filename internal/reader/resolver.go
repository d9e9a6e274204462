package reader

import (
	"context"
	"net/url"

	"mymanga/internal/domain"
	"mymanga/internal/parse"
	"mymanga/internal/source"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	siblingLimit     = 500
	unknownMangaName = "Unknown Manga"
)

// Catalog is the part of the catalog client the resolver needs.
type Catalog interface {
	GetAtHomeServer(ctx context.Context, chapterID string) (domain.AtHomeServer, error)
	GetChapter(ctx context.Context, chapterID string) (domain.ChapterRecord, error)
	GetManga(ctx context.Context, mangaID string) (domain.MangaSummary, error)
	GetChapterFeed(ctx context.Context, mangaID string, q domain.FeedQuery) ([]domain.ChapterSummary, error)
}

// Resolver turns a chapter id into everything a reader page shows: the page images,
// the title it belongs to and the chapters before and after it.
type Resolver struct {
	catalog Catalog
	log     zerolog.Logger
}

func NewResolver(catalog Catalog, log zerolog.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		log:     log.With().Str("module", "reader").Logger(),
	}
}

// Resolve never returns a partial detail: any failure is reported as a NotFoundError.
func (r *Resolver) Resolve(ctx context.Context, chapterID string) (domain.ChapterDetail, error) {
	detail, err := r.resolve(ctx, chapterID)
	if err != nil {
		r.log.Debug().Err(err).Str("chapter", chapterID).Msg("chapter could not be resolved")
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ChapterDetail{}, err
		}
		return domain.ChapterDetail{}, domain.NewNotFound("chapter", chapterID, err)
	}

	return detail, nil
}

func (r *Resolver) resolve(ctx context.Context, chapterID string) (domain.ChapterDetail, error) {
	images, err := r.images(ctx, chapterID)
	if err != nil {
		return domain.ChapterDetail{}, err
	}

	chapter, err := r.catalog.GetChapter(ctx, chapterID)
	if err != nil {
		return domain.ChapterDetail{}, errors.Wrap(err, "chapter metadata")
	}

	detail := domain.ChapterDetail{
		ChapterSummary: chapter.ChapterSummary,
		MangaID:        chapter.MangaID,
		MangaTitle:     unknownMangaName,
		Images:         images,
	}

	// without an owning title there is nothing to navigate between
	if chapter.MangaID == "" {
		return detail, nil
	}

	manga, err := r.catalog.GetManga(ctx, chapter.MangaID)
	if err != nil {
		return domain.ChapterDetail{}, errors.Wrap(err, "owning manga")
	}
	detail.MangaTitle = manga.Title

	siblings, err := r.catalog.GetChapterFeed(ctx, chapter.MangaID, domain.FeedQuery{
		Language: chapter.Language,
		Limit:    siblingLimit,
	})
	if errors.Is(err, source.ErrUnexpectedShape) {
		// the chapter stays readable, only prev/next are lost
		r.log.Warn().Err(err).Str("chapter", chapterID).Msg("sibling feed unreadable, skipping navigation")
		return detail, nil
	}
	if err != nil {
		return domain.ChapterDetail{}, errors.Wrap(err, "sibling chapters")
	}

	detail.PreviousChapter, detail.NextChapter = parse.Neighbours(parse.SortChapters(siblings), chapterID)

	return detail, nil
}

func (r *Resolver) images(ctx context.Context, chapterID string) ([]string, error) {
	server, err := r.catalog.GetAtHomeServer(ctx, chapterID)
	if err != nil {
		return nil, errors.Wrap(err, "delivery server")
	}

	if server.BaseURL == "" || server.Hash == "" {
		return nil, domain.NewNotFound("chapter", chapterID, errors.New("delivery server returned no base url or hash"))
	}

	images := make([]string, 0, len(server.Files))
	for _, file := range server.Files {
		imageURL, err := url.JoinPath(server.BaseURL, "data", server.Hash, file)
		if err != nil {
			return nil, errors.Wrapf(err, "page %q", file)
		}
		images = append(images, imageURL)
	}

	return images, nil
}
