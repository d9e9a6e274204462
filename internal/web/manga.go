package web

import (
	"net/http"

	"mymanga/internal/domain"
	"mymanga/internal/title"

	"github.com/go-chi/chi/v5"
)

type titleResponse struct {
	Manga          domain.MangaSummary    `json:"manga"`
	ExternalURL    string                 `json:"externalUrl"`
	IsFavorite     bool                   `json:"isFavorite"`
	ActiveLanguage string                 `json:"activeLanguage"`
	Languages      []title.LanguageCount  `json:"languages"`
	Volumes        []title.VolumeGroup    `json:"volumes"`
	FirstChapter   *domain.ChapterSummary `json:"firstChapter"`
	LastChapter    *domain.ChapterSummary `json:"lastChapter"`
}

type chaptersResponse struct {
	ActiveLanguage string                `json:"activeLanguage"`
	Language       string                `json:"language"`
	Languages      []title.LanguageCount `json:"languages"`
	Volumes        []title.VolumeGroup   `json:"volumes"`
}

func (s *Server) handleManga(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "mangaID")

	d, err := s.titles.Detail(r.Context(), mangaID)
	if err != nil {
		s.log.Debug().Err(err).Str("manga", mangaID).Msg("manga lookup failed")
		respondError(w, statusFor(err), "Manga not found")
		return
	}

	favorite, err := s.prefs.IsFavorite(r.Context(), mangaID)
	if err != nil {
		s.log.Warn().Err(err).Str("manga", mangaID).Msg("could not read favorites")
	}

	respondJSON(w, http.StatusOK, titleResponse{
		Manga:          d.Manga,
		ExternalURL:    d.ExternalURL,
		IsFavorite:     favorite,
		ActiveLanguage: d.Chapters.ActiveLanguage,
		Languages:      d.Chapters.Counts(),
		Volumes:        d.Chapters.Volumes(d.Chapters.ActiveLanguage),
		FirstChapter:   d.First,
		LastChapter:    d.Last,
	})
}

// handleMangaChapters lists the chapters of one language grouped by volume. An unknown or
// missing ?lang= falls back to the default language of the title.
func (s *Server) handleMangaChapters(w http.ResponseWriter, r *http.Request) {
	agg := s.titles.Chapters(r.Context(), chi.URLParam(r, "mangaID"))

	language := r.URL.Query().Get("lang")
	if !agg.Chapters.Has(language) {
		language = agg.ActiveLanguage
	}

	respondJSON(w, http.StatusOK, chaptersResponse{
		ActiveLanguage: agg.ActiveLanguage,
		Language:       language,
		Languages:      agg.Counts(),
		Volumes:        agg.Volumes(language),
	})
}
