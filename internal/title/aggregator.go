package title

import (
	"cmp"
	"context"
	"slices"

	"mymanga/internal/domain"
	"mymanga/internal/parse"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// NoVolume labels chapters that are not part of any volume.
const NoVolume = "No Volume"

// Languages is the fixed list of editions looked up for a title, in order of preference.
var Languages = []string{"en", "id", "ja", "ko", "zh"}

// ChapterLister lists the chapters of a title in one language. It never fails; problems yield an empty list.
type ChapterLister interface {
	GetChapters(ctx context.Context, mangaID, language string) []domain.ChapterSummary
}

type Aggregator struct {
	catalog   ChapterLister
	languages []string
	log       zerolog.Logger
}

func NewAggregator(catalog ChapterLister, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		catalog:   catalog,
		languages: Languages,
		log:       log.With().Str("module", "title").Logger(),
	}
}

// Aggregation is the chapter list of a title across languages.
type Aggregation struct {
	Chapters domain.ChaptersByLanguage
	// ActiveLanguage is the first language with chapters, empty when there are none.
	ActiveLanguage string
}

type LanguageCount struct {
	Language string `json:"language"`
	Name     string `json:"name"`
	Count    int    `json:"count"`
}

type VolumeGroup struct {
	Volume   string                  `json:"volume"`
	Chapters []domain.ChapterSummary `json:"chapters"`
}

// Aggregate fetches every language concurrently and waits for all of them.
func (a *Aggregator) Aggregate(ctx context.Context, mangaID string) Aggregation {
	results := make([][]domain.ChapterSummary, len(a.languages))

	g, gctx := errgroup.WithContext(ctx)
	for i, lang := range a.languages {
		i, lang := i, lang
		g.Go(func() error {
			results[i] = a.catalog.GetChapters(gctx, mangaID, lang)
			return nil
		})
	}
	_ = g.Wait()

	agg := Aggregation{Chapters: domain.NewChaptersByLanguage()}
	for i, lang := range a.languages {
		agg.Chapters.Set(lang, results[i])
		if agg.ActiveLanguage == "" && len(results[i]) > 0 {
			agg.ActiveLanguage = lang
		}
	}

	a.log.Trace().Str("manga", mangaID).Str("active", agg.ActiveLanguage).Msg("chapters aggregated")

	return agg
}

func (a Aggregation) HasChapters() bool {
	return a.ActiveLanguage != ""
}

func (a Aggregation) Counts() []LanguageCount {
	counts := make([]LanguageCount, 0, a.Chapters.Len())
	for _, lang := range a.Chapters.Languages() {
		counts = append(counts, LanguageCount{
			Language: lang,
			Name:     domain.LanguageName(lang),
			Count:    len(a.Chapters.Get(lang)),
		})
	}

	return counts
}

// Sorted returns the chapters of language in ascending numeric order.
func (a Aggregation) Sorted(language string) []domain.ChapterSummary {
	return parse.SortChapters(a.Chapters.Get(language))
}

// Volumes groups the chapters of language by volume. The "No Volume" bucket comes first,
// the rest follow in ascending volume order.
func (a Aggregation) Volumes(language string) []VolumeGroup {
	var (
		groups   []VolumeGroup
		index    = make(map[string]int)
		noVolume *VolumeGroup
	)

	for _, c := range a.Sorted(language) {
		if c.Volume == "" {
			if noVolume == nil {
				noVolume = &VolumeGroup{Volume: NoVolume}
			}
			noVolume.Chapters = append(noVolume.Chapters, c)
			continue
		}

		i, ok := index[c.Volume]
		if !ok {
			i = len(groups)
			index[c.Volume] = i
			groups = append(groups, VolumeGroup{Volume: c.Volume})
		}
		groups[i].Chapters = append(groups[i].Chapters, c)
	}

	slices.SortStableFunc(groups, func(x, y VolumeGroup) int {
		return cmp.Compare(parse.ChapterNumber(x.Volume), parse.ChapterNumber(y.Volume))
	})

	if noVolume != nil {
		groups = append([]VolumeGroup{*noVolume}, groups...)
	}
	if groups == nil {
		groups = []VolumeGroup{}
	}

	return groups
}
