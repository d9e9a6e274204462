package search

import (
	"context"
	"sync"
	"time"

	"mymanga/internal/domain"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultDebounce = 500 * time.Millisecond
	DefaultPageSize = 20
)

type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateFetching
	StateSettled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateFetching:
		return "fetching"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st := StateIdle; st <= StateFailed; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return errors.Errorf("unknown search state %q", text)
}

// Searcher is the catalog operation the orchestrator drives.
type Searcher interface {
	SearchCatalog(ctx context.Context, query string, offset, limit int) (domain.SearchPage, error)
}

// Snapshot is a copy of the orchestrator state at one point in time.
type Snapshot struct {
	State      State             `json:"state"`
	Input      string            `json:"input"`
	Query      string            `json:"query"`
	Generation uint64            `json:"generation"`
	Page       domain.SearchPage `json:"page"`
	Pages      []int             `json:"pages"`
	Error      string            `json:"error,omitempty"`
}

type Option func(*Orchestrator)

func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.debounce = d
	}
}

func WithPageSize(size int) Option {
	return func(o *Orchestrator) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// Orchestrator debounces text input into catalog searches. Every request is tagged with a
// generation; a result only commits when its generation is still the newest one issued.
type Orchestrator struct {
	searcher Searcher
	debounce time.Duration
	pageSize int
	log      zerolog.Logger

	mu         sync.Mutex
	state      State
	input      string
	query      string
	page       int
	result     domain.SearchPage
	lastErr    error
	timer      *time.Timer
	timerID    uint64
	generation uint64
	cancel     context.CancelFunc
	closed     bool

	updates chan Snapshot
}

func New(searcher Searcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		searcher: searcher,
		debounce: DefaultDebounce,
		pageSize: DefaultPageSize,
		log:      zerolog.Nop(),
		state:    StateIdle,
		page:     1,
		result:   domain.EmptySearchPage(1),
		updates:  make(chan Snapshot, 1),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Updates delivers the latest snapshot after every transition. Unread snapshots are replaced
// by newer ones, so a slow reader only ever sees the most recent state.
func (o *Orchestrator) Updates() <-chan Snapshot {
	return o.updates
}

// Input records new search text, resets to the first page and restarts the debounce timer.
// A search still in flight is cancelled and its result will not commit.
func (o *Orchestrator) Input(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.input = text
	o.page = 1

	// the search in flight is for older text
	o.generation++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}

	if o.timer != nil {
		o.timer.Stop()
	}
	o.timerID++
	id := o.timerID
	o.timer = time.AfterFunc(o.debounce, func() {
		o.fire(id)
	})

	o.state = StateDebouncing
	o.publishLocked()
}

// SetPage fetches another page of the last searched query right away.
func (o *Orchestrator) SetPage(page int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.page = max(page, 1)
	o.startLocked()
}

// Refresh reissues the current query and page, bypassing the debounce.
func (o *Orchestrator) Refresh() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.startLocked()
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.snapshotLocked()
}

// Close stops the timer and cancels the request in flight. Later calls are ignored.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true

	if o.timer != nil {
		o.timer.Stop()
	}
	o.timerID++
	o.generation++
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

func (o *Orchestrator) fire(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// a newer keystroke replaced this timer after it had already fired
	if o.closed || id != o.timerID {
		return
	}

	o.timer = nil
	o.query = o.input
	o.startLocked()
}

func (o *Orchestrator) startLocked() {
	if o.cancel != nil {
		o.cancel()
	}

	o.generation++
	gen := o.generation

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	query, page, size := o.query, o.page, o.pageSize

	o.state = StateFetching
	o.publishLocked()

	o.log.Trace().Uint64("generation", gen).Str("query", query).Int("page", page).Msg("search started")

	go func() {
		result, err := o.searcher.SearchCatalog(ctx, query, (page-1)*size, size)
		o.commit(gen, result, err)
	}()
}

func (o *Orchestrator) commit(gen uint64, result domain.SearchPage, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		o.log.Trace().Uint64("generation", gen).Uint64("current", o.generation).Msg("discarding superseded search")
		return
	}

	o.cancel = nil

	if err != nil {
		o.log.Error().Err(err).Str("query", o.query).Int("page", o.page).Msg("search failed")
		o.state = StateFailed
		o.result = domain.EmptySearchPage(1)
		o.lastErr = err
		o.publishLocked()
		return
	}

	if result.Items == nil {
		result.Items = []domain.MangaSummary{}
	}

	o.state = StateSettled
	o.result = result
	o.lastErr = nil
	o.publishLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	s := Snapshot{
		State:      o.state,
		Input:      o.input,
		Query:      o.query,
		Generation: o.generation,
		Page:       o.result,
		Pages:      PageWindow(o.result.CurrentPage, o.result.TotalPages, DefaultWindow),
	}
	if o.lastErr != nil {
		s.Error = o.lastErr.Error()
	}

	return s
}

// publishLocked replaces any unread snapshot with the current one. Only holders of mu send,
// so after the drain the send cannot block.
func (o *Orchestrator) publishLocked() {
	select {
	case <-o.updates:
	default:
	}
	o.updates <- o.snapshotLocked()
}
