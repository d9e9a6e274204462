package web

import (
	"mime"
	"net/http"
	"os"

	"mymanga/internal/download"
	"mymanga/internal/sanitize"
	"mymanga/internal/templater"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "chapterID")

	detail, err := s.chapters.Resolve(r.Context(), chapterID)
	if err != nil {
		s.log.Debug().Err(err).Str("chapter", chapterID).Msg("chapter lookup failed")
		respondError(w, statusFor(err), "Chapter not found")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// handleChapterDownload packs the pages of a chapter into a cbz (default) or pdf attachment.
func (s *Server) handleChapterDownload(w http.ResponseWriter, r *http.Request) {
	chapterID := chi.URLParam(r, "chapterID")

	format, err := download.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := s.chapters.Resolve(r.Context(), chapterID)
	if err != nil {
		s.log.Debug().Err(err).Str("chapter", chapterID).Msg("chapter lookup failed")
		respondError(w, statusFor(err), "Chapter not found")
		return
	}

	name := sanitize.Filename(templater.New(detail).ExecTemplate(s.naming))

	s.log.Info().Str("chapter", chapterID).Str("format", string(format)).Msgf("exporting %q", name)

	archive, cleanup, err := s.exporter.Chapter(r.Context(), detail, format)
	if err != nil {
		s.log.Error().Err(err).Str("chapter", chapterID).Msg("export failed")
		respondError(w, http.StatusBadGateway, "Failed to export chapter")
		return
	}
	defer cleanup()

	f, err := os.Open(archive)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to export chapter")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to export chapter")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": name + "." + string(format),
	}))
	http.ServeContent(w, r, "", info.ModTime(), f)
}
