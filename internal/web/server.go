package web

import (
	"context"
	"net/http"
	"time"

	"mymanga/internal/domain"
	"mymanga/internal/download"
	"mymanga/internal/search"
	"mymanga/internal/title"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type Titles interface {
	Detail(ctx context.Context, mangaID string) (title.Detail, error)
	Chapters(ctx context.Context, mangaID string) title.Aggregation
}

type ChapterResolver interface {
	Resolve(ctx context.Context, chapterID string) (domain.ChapterDetail, error)
}

type Preferences interface {
	Favorites(ctx context.Context) ([]domain.MangaSummary, error)
	IsFavorite(ctx context.Context, mangaID string) (bool, error)
	AddFavorite(ctx context.Context, manga domain.MangaSummary) ([]domain.MangaSummary, error)
	RemoveFavorite(ctx context.Context, mangaID string) ([]domain.MangaSummary, error)
	DarkMode(ctx context.Context) (bool, error)
	SetDarkMode(ctx context.Context, on bool) error
	ToggleDarkMode(ctx context.Context) (bool, error)
}

type Exporter interface {
	Chapter(ctx context.Context, chapter domain.ChapterDetail, format download.Format) (string, func(), error)
}

// Options carries the collaborators and settings of a Server.
type Options struct {
	Catalog        search.Searcher
	Titles         Titles
	Chapters       ChapterResolver
	Preferences    Preferences
	Exporter       Exporter
	NamingTemplate string
	PageSize       int
	Debounce       time.Duration
	Version        string
}

type Server struct {
	log      zerolog.Logger
	catalog  search.Searcher
	titles   Titles
	chapters ChapterResolver
	prefs    Preferences
	exporter Exporter

	naming   string
	pageSize int
	debounce time.Duration
	version  string

	upgrader websocket.Upgrader
}

func NewServer(log zerolog.Logger, opts Options) *Server {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = search.DefaultPageSize
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = search.DefaultDebounce
	}

	return &Server{
		log:      log.With().Str("module", "web").Logger(),
		catalog:  opts.Catalog,
		titles:   opts.Titles,
		chapters: opts.Chapters,
		prefs:    opts.Preferences,
		exporter: opts.Exporter,
		naming:   opts.NamingTemplate,
		pageSize: pageSize,
		debounce: debounce,
		version:  opts.Version,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(allowAnyOrigin)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/version", s.handleVersion)

	// the search facade answers every method itself
	r.HandleFunc("/api/search", s.handleSearch)
	r.Get("/ws/search", s.handleSearchSocket)

	r.Route("/api/manga/{mangaID}", func(r chi.Router) {
		r.Use(validID("mangaID"))
		r.Get("/", s.handleManga)
		r.Get("/chapters", s.handleMangaChapters)
	})

	r.Route("/api/chapter/{chapterID}", func(r chi.Router) {
		r.Use(validID("chapterID"))
		r.Get("/", s.handleChapter)
		r.Get("/download", s.handleChapterDownload)
	})

	r.Route("/api/favorites", func(r chi.Router) {
		r.Get("/", s.handleFavorites)
		r.Post("/", s.handleAddFavorite)
		r.With(validID("mangaID")).Delete("/{mangaID}", s.handleRemoveFavorite)
	})

	r.Route("/api/settings/dark-mode", func(r chi.Router) {
		r.Get("/", s.handleDarkMode)
		r.Put("/", s.handleSetDarkMode)
		r.Post("/toggle", s.handleToggleDarkMode)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"version": s.version})
}
