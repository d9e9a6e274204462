package web

import (
	"encoding/json"
	"net/http"

	"mymanga/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type darkModePayload struct {
	DarkMode bool `json:"darkMode"`
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := s.prefs.Favorites(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("could not read favorites")
		respondError(w, http.StatusInternalServerError, "Failed to read favorites")
		return
	}

	respondJSON(w, http.StatusOK, favorites)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var manga domain.MangaSummary
	if err := json.NewDecoder(r.Body).Decode(&manga); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := uuid.Parse(manga.ID); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid manga id")
		return
	}

	favorites, err := s.prefs.AddFavorite(r.Context(), manga)
	if err != nil {
		s.log.Error().Err(err).Str("manga", manga.ID).Msg("could not add favorite")
		respondError(w, http.StatusInternalServerError, "Failed to save favorite")
		return
	}

	respondJSON(w, http.StatusOK, favorites)
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	mangaID := chi.URLParam(r, "mangaID")

	favorites, err := s.prefs.RemoveFavorite(r.Context(), mangaID)
	if err != nil {
		s.log.Error().Err(err).Str("manga", mangaID).Msg("could not remove favorite")
		respondError(w, http.StatusInternalServerError, "Failed to remove favorite")
		return
	}

	respondJSON(w, http.StatusOK, favorites)
}

func (s *Server) handleDarkMode(w http.ResponseWriter, r *http.Request) {
	on, err := s.prefs.DarkMode(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("could not read dark mode")
		respondError(w, http.StatusInternalServerError, "Failed to read settings")
		return
	}

	respondJSON(w, http.StatusOK, darkModePayload{DarkMode: on})
}

func (s *Server) handleSetDarkMode(w http.ResponseWriter, r *http.Request) {
	var payload darkModePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.prefs.SetDarkMode(r.Context(), payload.DarkMode); err != nil {
		s.log.Error().Err(err).Msg("could not save dark mode")
		respondError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	respondJSON(w, http.StatusOK, payload)
}

func (s *Server) handleToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	on, err := s.prefs.ToggleDarkMode(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("could not toggle dark mode")
		respondError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	respondJSON(w, http.StatusOK, darkModePayload{DarkMode: on})
}
