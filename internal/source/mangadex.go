package source

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"mymanga/internal/domain"
	"mymanga/internal/sharedhttp"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	mangadexURL        = "https://api.mangadex.org"
	mangadexUploadsURL = "https://uploads.mangadex.org"

	searchMaxLimit  = 100
	chapterLimit    = 100
	coverSizeSuffix = ".512.jpg"
)

// searchLanguages restricts search results to titles translated into one of these.
var searchLanguages = []string{"en", "id", "ja"}

// ErrUnexpectedShape marks a response that decoded but did not look like a catalog document.
var ErrUnexpectedShape = errors.New("unexpected response shape")

// Mangadex talks to the MangaDex REST API and normalizes its documents into domain types.
type Mangadex struct {
	BaseURL    string
	UploadsURL string
	UserAgent  string
	Client     *http.Client
	Retry      sharedhttp.RetryPolicy
	Log        zerolog.Logger
}

func NewMangadex() *Mangadex {
	return &Mangadex{
		BaseURL:    mangadexURL,
		UploadsURL: mangadexUploadsURL,
		UserAgent:  "mymanga",
		Client:     sharedhttp.NewClient(),
		Retry:      sharedhttp.DefaultRetry,
		Log:        zerolog.Nop(),
	}
}

func (m *Mangadex) String() string {
	return "MangaDex"
}

// getJSON decodes the response of a GET request into out. Transport and status failures come back
// as *domain.NetworkError, decode failures wrap ErrUnexpectedShape.
func (m *Mangadex) getJSON(ctx context.Context, params url.Values, out any, elem ...string) error {
	path, err := url.JoinPath(m.BaseURL, elem...)
	if err != nil {
		return errors.Wrap(err, "could not build request path")
	}

	u, err := url.Parse(path)
	if err != nil {
		return errors.Wrap(err, "could not parse request path")
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", m.UserAgent)

	err = m.Retry.Do(ctx, func() error {
		resp, err := sharedhttp.ExecRequest(m.Client, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(bufio.NewReader(resp.Body)).Decode(out); err != nil {
			return retry.Unrecoverable(errors.WithMessagef(ErrUnexpectedShape, "decode %s: %v", u.Path, err))
		}

		return nil
	})
	if err == nil {
		return nil
	}

	var netErr *domain.NetworkError
	if errors.As(err, &netErr) || errors.Is(err, ErrUnexpectedShape) {
		return err
	}

	return &domain.NetworkError{Op: http.MethodGet, URL: u.String(), Err: err}
}

// SearchCatalog returns one page of titles matching query. An empty query lists the most
// recently updated titles.
func (m *Mangadex) SearchCatalog(ctx context.Context, query string, offset, limit int) (domain.SearchPage, error) {
	limit = min(max(limit, 1), searchMaxLimit)
	offset = max(offset, 0)

	params := url.Values{
		"limit":                         []string{strconv.Itoa(limit)},
		"offset":                        []string{strconv.Itoa(offset)},
		"includes[]":                    []string{"cover_art"},
		"contentRating[]":               []string{"safe", "suggestive"},
		"availableTranslatedLanguage[]": searchLanguages,
	}

	if query != "" {
		params.Set("order[relevance]", "desc")
		params.Set("title", query)
	} else {
		params.Set("order[latestUploadedChapter]", "desc")
	}

	currentPage := offset/limit + 1

	var env listEnvelope
	if err := m.getJSON(ctx, params, &env, "manga"); err != nil {
		if errors.Is(err, ErrUnexpectedShape) {
			m.Log.Warn().Err(err).Msg("search returned a malformed document")
			return domain.EmptySearchPage(currentPage), nil
		}
		return domain.SearchPage{}, err
	}

	records, err := decodeList(env.Data)
	if err != nil {
		m.Log.Warn().Err(err).Msg("search result has no data list")
		return domain.EmptySearchPage(currentPage), nil
	}

	items := make([]domain.MangaSummary, 0, len(records))
	for _, raw := range records {
		var rec mangaRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			m.Log.Warn().Err(err).Msg("skipping malformed manga record")
			continue
		}
		items = append(items, m.mangaSummary(rec, []string{"en"}, []string{"en"}, ""))
	}

	if len(items) > limit {
		items = items[:limit]
	}

	total := max(env.Total.Value, 0)

	return domain.SearchPage{
		Items:       items,
		CurrentPage: currentPage,
		TotalPages:  max((total+limit-1)/limit, 1),
		TotalItems:  total,
	}, nil
}

// GetManga looks up a single title with its cover art.
func (m *Mangadex) GetManga(ctx context.Context, mangaID string) (domain.MangaSummary, error) {
	params := url.Values{"includes[]": []string{"cover_art"}}

	var env entityEnvelope
	if err := m.getJSON(ctx, params, &env, "manga", mangaID); err != nil {
		return domain.MangaSummary{}, err
	}

	var rec mangaRecord
	if err := decodeEntity(env, &rec); err != nil {
		return domain.MangaSummary{}, domain.NewNotFound("manga", mangaID, err)
	}

	return m.mangaSummary(rec, []string{"en", "ja"}, []string{"en", "ja"}, "No description available."), nil
}

// GetChapter looks up a single chapter and the id of the title it belongs to.
// MangaID is empty when the chapter carries no manga relationship.
func (m *Mangadex) GetChapter(ctx context.Context, chapterID string) (domain.ChapterRecord, error) {
	params := url.Values{"includes[]": []string{"manga"}}

	var env entityEnvelope
	if err := m.getJSON(ctx, params, &env, "chapter", chapterID); err != nil {
		return domain.ChapterRecord{}, err
	}

	var rec chapterRecord
	if err := decodeEntity(env, &rec); err != nil {
		return domain.ChapterRecord{}, domain.NewNotFound("chapter", chapterID, err)
	}

	out := domain.ChapterRecord{ChapterSummary: chapterSummary(rec, "en")}
	if rel, ok := rec.relationship("manga"); ok {
		out.MangaID = rel.ID
	}

	return out, nil
}

// GetAtHomeServer resolves the delivery server holding the page images of a chapter.
func (m *Mangadex) GetAtHomeServer(ctx context.Context, chapterID string) (domain.AtHomeServer, error) {
	var resp atHomeResponse
	if err := m.getJSON(ctx, nil, &resp, "at-home", "server", chapterID); err != nil {
		return domain.AtHomeServer{}, err
	}

	return domain.AtHomeServer{
		BaseURL: resp.BaseURL.Value,
		Hash:    resp.Chapter.Value.Hash.Value,
		Files:   resp.Chapter.Value.Data.Value,
	}, nil
}

// GetChapterFeed lists the chapters of a title in one language, ascending by chapter.
func (m *Mangadex) GetChapterFeed(ctx context.Context, mangaID string, q domain.FeedQuery) ([]domain.ChapterSummary, error) {
	params := url.Values{
		"limit":                []string{strconv.Itoa(q.Limit)},
		"order[chapter]":       []string{"asc"},
		"includes[]":           []string{"scanlation_group"},
		"translatedLanguage[]": []string{q.Language},
	}
	if q.ExcludeFuture {
		params.Set("includeFuturePublishAt", "0")
	}

	var env listEnvelope
	if err := m.getJSON(ctx, params, &env, "manga", mangaID, "feed"); err != nil {
		return nil, err
	}

	records, err := decodeList(env.Data)
	if err != nil {
		return nil, errors.WithMessagef(err, "feed of %s", mangaID)
	}

	chapters := make([]domain.ChapterSummary, 0, len(records))
	for _, raw := range records {
		var rec chapterRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			m.Log.Warn().Err(err).Str("manga", mangaID).Msg("skipping malformed chapter record")
			continue
		}
		chapters = append(chapters, chapterSummary(rec, q.Language))
	}

	return chapters, nil
}

// GetChapters lists up to 100 released chapters of a title in one language.
// Failures are logged and yield an empty list.
func (m *Mangadex) GetChapters(ctx context.Context, mangaID, language string) []domain.ChapterSummary {
	chapters, err := m.GetChapterFeed(ctx, mangaID, domain.FeedQuery{
		Language:      language,
		Limit:         chapterLimit,
		ExcludeFuture: true,
	})
	if err != nil {
		m.Log.Warn().Err(err).Str("manga", mangaID).Str("language", language).Msg("could not list chapters")
		return []domain.ChapterSummary{}
	}

	return chapters
}

// GetChaptersByLanguages calls GetChapters for each language in turn.
func (m *Mangadex) GetChaptersByLanguages(ctx context.Context, mangaID string, languages []string) domain.ChaptersByLanguage {
	out := domain.NewChaptersByLanguage()
	for _, lang := range languages {
		out.Set(lang, m.GetChapters(ctx, mangaID, lang))
	}

	return out
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

func decodeList(raw json.RawMessage) ([]json.RawMessage, error) {
	if isNull(raw) {
		return nil, errors.WithMessage(ErrUnexpectedShape, "document has no data")
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, errors.WithMessagef(ErrUnexpectedShape, "%v", err)
	}
	return records, nil
}

func decodeEntity(env entityEnvelope, out any) error {
	if isNull(env.Data) {
		return errors.WithMessage(ErrUnexpectedShape, "document has no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.WithMessagef(ErrUnexpectedShape, "%v", err)
	}
	return nil
}

func (m *Mangadex) mangaSummary(rec mangaRecord, titleLocales, descLocales []string, descFallback string) domain.MangaSummary {
	attrs := rec.Attributes.Value

	summary := domain.MangaSummary{
		ID:          rec.ID,
		Title:       attrs.Title.Preferred("Untitled", titleLocales...),
		CoverURL:    m.coverURL(rec),
		Description: attrs.Description.Pick(descFallback, descLocales...),
		Status:      domain.ParseMangaStatus(attrs.Status.Value),
	}
	if attrs.Year.Valid {
		year := attrs.Year.Value
		summary.Year = &year
	}

	return summary
}

func (m *Mangadex) coverURL(rec mangaRecord) string {
	rel, ok := rec.relationship("cover_art")
	if !ok || rel.Attributes.Value.FileName.Value == "" {
		return domain.PlaceholderCoverURL
	}

	u, err := url.JoinPath(m.UploadsURL, "covers", rec.ID, rel.Attributes.Value.FileName.Value+coverSizeSuffix)
	if err != nil {
		return domain.PlaceholderCoverURL
	}

	return u
}

func chapterSummary(rec chapterRecord, fallbackLanguage string) domain.ChapterSummary {
	attrs := rec.Attributes.Value

	number := attrs.Chapter.Value
	if number == "" {
		number = domain.ChapterNumberOneshot
	}

	language := attrs.TranslatedLanguage.Value
	if language == "" {
		language = fallbackLanguage
	}

	groups := make([]string, 0)
	for _, rel := range rec.Relationships.Value {
		if rel.Type != "scanlation_group" {
			continue
		}
		if name := rel.Attributes.Value.Name.Value; name != "" {
			groups = append(groups, name)
		}
	}

	return domain.ChapterSummary{
		ID:               rec.ID,
		ChapterNumber:    number,
		Title:            attrs.Title.Value,
		Volume:           attrs.Volume.Value,
		PublishedAt:      attrs.PublishAt.Value,
		Language:         language,
		ScanlationGroups: groups,
	}
}
