package title

import (
	"context"
	"net/url"

	"mymanga/internal/domain"
	"mymanga/internal/parse"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const externalTitleURL = "https://mangadex.org/title"

type Catalog interface {
	ChapterLister
	GetManga(ctx context.Context, mangaID string) (domain.MangaSummary, error)
}

type Detail struct {
	Manga       domain.MangaSummary
	ExternalURL string
	Chapters    Aggregation
	// First and Last are the lowest and highest numbered chapters of the active language.
	First *domain.ChapterSummary
	Last  *domain.ChapterSummary
}

type Service struct {
	catalog    Catalog
	aggregator *Aggregator
	log        zerolog.Logger
}

func NewService(catalog Catalog, log zerolog.Logger) *Service {
	return &Service{
		catalog:    catalog,
		aggregator: NewAggregator(catalog, log),
		log:        log.With().Str("module", "title").Logger(),
	}
}

// Detail loads a title and its chapters. Only the title lookup can fail, and it fails as a NotFoundError.
func (s *Service) Detail(ctx context.Context, mangaID string) (Detail, error) {
	manga, err := s.catalog.GetManga(ctx, mangaID)
	if err != nil {
		s.log.Debug().Err(err).Str("manga", mangaID).Msg("title could not be loaded")
		if errors.Is(err, domain.ErrNotFound) {
			return Detail{}, err
		}
		return Detail{}, domain.NewNotFound("manga", mangaID, err)
	}

	external, err := url.JoinPath(externalTitleURL, mangaID)
	if err != nil {
		return Detail{}, domain.NewNotFound("manga", mangaID, err)
	}

	d := Detail{
		Manga:       manga,
		ExternalURL: external,
		Chapters:    s.aggregator.Aggregate(ctx, mangaID),
	}
	if d.Chapters.HasChapters() {
		d.First, d.Last = parse.FirstAndLast(d.Chapters.Chapters.Get(d.Chapters.ActiveLanguage))
	}

	return d, nil
}

// Chapters aggregates the chapters of a title without looking the title up.
func (s *Service) Chapters(ctx context.Context, mangaID string) Aggregation {
	return s.aggregator.Aggregate(ctx, mangaID)
}
