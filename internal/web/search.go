package web

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"mymanga/internal/domain"
	"mymanga/internal/search"

	"github.com/gorilla/websocket"
)

const (
	defaultLimit = 20
	maxLimit     = 100
	// keeps (page-1)*limit within int
	maxPage = math.MaxInt/maxLimit + 1

	socketWriteWait = 10 * time.Second
	socketReadLimit = 4096
)

type searchFailure struct {
	Error       string                `json:"error"`
	Details     string                `json:"details"`
	MangaList   []domain.MangaSummary `json:"mangaList"`
	CurrentPage int                   `json:"currentPage"`
	TotalPages  int                   `json:"totalPages"`
	TotalItems  int                   `json:"totalItems"`
}

func queryInt(r *http.Request, key string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return n
}

// handleSearch answers GET /api/search?q=&page=&limit= with one page of catalog results.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query().Get("q")

	page := min(max(queryInt(r, "page", 1), 1), maxPage)
	limit := min(max(queryInt(r, "limit", defaultLimit), 1), maxLimit)

	result, err := s.catalog.SearchCatalog(r.Context(), query, (page-1)*limit, limit)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Int("page", page).Msg("search failed")
		respondJSON(w, http.StatusInternalServerError, searchFailure{
			Error:       "Failed to fetch manga data",
			Details:     err.Error(),
			MangaList:   []domain.MangaSummary{},
			CurrentPage: 1,
			TotalPages:  1,
			TotalItems:  0,
		})
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// socketFrame is a message sent by a search client:
// {"type":"input","query":"..."}, {"type":"page","page":2} or {"type":"refresh"}.
type socketFrame struct {
	Type  string `json:"type"`
	Query string `json:"query"`
	Page  int    `json:"page"`
}

// handleSearchSocket drives one search orchestrator per connection. Client frames feed the
// orchestrator and every state transition is pushed back as a snapshot.
func (s *Server) handleSearchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	o := search.New(s.catalog,
		search.WithDebounce(s.debounce),
		search.WithPageSize(s.pageSize),
		search.WithLogger(s.log),
	)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.pushSnapshots(conn, o, done)
	}()

	s.readFrames(conn, o)

	close(done)
	o.Close()
	wg.Wait()
}

func (s *Server) pushSnapshots(conn *websocket.Conn, o *search.Orchestrator, done <-chan struct{}) {
	write := func(snap search.Snapshot) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(socketWriteWait))
		if err := conn.WriteJSON(snap); err != nil {
			s.log.Debug().Err(err).Msg("websocket write failed")
			// unblocks the reader
			_ = conn.Close()
			return false
		}
		return true
	}

	if !write(o.Snapshot()) {
		return
	}

	for {
		select {
		case <-done:
			return
		case snap := <-o.Updates():
			if !write(snap) {
				return
			}
		}
	}
}

func (s *Server) readFrames(conn *websocket.Conn, o *search.Orchestrator) {
	conn.SetReadLimit(socketReadLimit)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Msg("websocket closed")
			}
			return
		}

		var frame socketFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			s.log.Debug().Err(err).Msg("ignoring malformed search frame")
			continue
		}

		switch frame.Type {
		case "input":
			o.Input(frame.Query)
		case "page":
			o.SetPage(frame.Page)
		case "refresh":
			o.Refresh()
		default:
			s.log.Debug().Str("type", frame.Type).Msg("ignoring unknown search frame")
		}
	}
}
