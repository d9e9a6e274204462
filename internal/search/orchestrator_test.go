package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"mymanga/internal/domain"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchCall struct {
	query  string
	offset int
	limit  int
	ctx    context.Context
}

type fakeSearcher struct {
	mu    sync.Mutex
	calls []searchCall
	fn    func(ctx context.Context, query string, offset, limit int) (domain.SearchPage, error)
}

func (f *fakeSearcher) SearchCatalog(ctx context.Context, query string, offset, limit int) (domain.SearchPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, searchCall{query: query, offset: offset, limit: limit, ctx: ctx})
	fn := f.fn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, query, offset, limit)
	}
	return pageFor(query, offset, limit), nil
}

func (f *fakeSearcher) Calls() []searchCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]searchCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func pageFor(query string, offset, limit int) domain.SearchPage {
	return domain.SearchPage{
		Items:       []domain.MangaSummary{{ID: query, Title: query}},
		CurrentPage: offset/limit + 1,
		TotalPages:  10,
		TotalItems:  10 * limit,
	}
}

func waitForState(t *testing.T, o *Orchestrator, state State) Snapshot {
	t.Helper()

	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = o.Snapshot()
		return snap.State == state
	}, 2*time.Second, 5*time.Millisecond)

	return snap
}

func TestOrchestrator_DebounceIssuesOneSearchForLatestInput(t *testing.T) {
	f := &fakeSearcher{}
	o := New(f, WithDebounce(50*time.Millisecond))
	defer o.Close()

	o.Input("a")
	time.Sleep(10 * time.Millisecond)
	o.Input("ab")

	assert.Equal(t, StateDebouncing, o.Snapshot().State)

	snap := waitForState(t, o, StateSettled)
	assert.Equal(t, "ab", snap.Query)
	require.Len(t, snap.Page.Items, 1)
	assert.Equal(t, "ab", snap.Page.Items[0].ID)

	// give a stale timer the chance to misfire
	time.Sleep(100 * time.Millisecond)

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "ab", calls[0].query)
	assert.Equal(t, 0, calls[0].offset)
	assert.Equal(t, DefaultPageSize, calls[0].limit)
}

func TestOrchestrator_PageChangeSkipsDebounce(t *testing.T) {
	f := &fakeSearcher{}
	o := New(f, WithDebounce(time.Hour), WithPageSize(10))
	defer o.Close()

	o.SetPage(3)

	snap := waitForState(t, o, StateSettled)
	assert.Equal(t, 3, snap.Page.CurrentPage)

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "", calls[0].query)
	assert.Equal(t, 20, calls[0].offset)
	assert.Equal(t, 10, calls[0].limit)
}

func TestOrchestrator_PageChangeUsesLastSearchedQuery(t *testing.T) {
	f := &fakeSearcher{}
	o := New(f, WithDebounce(20*time.Millisecond))
	defer o.Close()

	o.Input("berserk")
	waitForState(t, o, StateSettled)

	o.SetPage(2)
	require.Eventually(t, func() bool {
		return len(f.Calls()) == 2
	}, time.Second, 5*time.Millisecond)

	calls := f.Calls()
	assert.Equal(t, "berserk", calls[1].query)
	assert.Equal(t, DefaultPageSize, calls[1].offset)
}

func TestOrchestrator_SupersededResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	f := &fakeSearcher{
		fn: func(ctx context.Context, query string, offset, limit int) (domain.SearchPage, error) {
			if offset == limit {
				// page 2 answers late and ignores cancellation
				<-release
			}
			return pageFor(query, offset, limit), nil
		},
	}
	o := New(f, WithDebounce(time.Hour))
	defer o.Close()

	o.SetPage(2)
	require.Eventually(t, func() bool {
		return len(f.Calls()) == 1
	}, time.Second, 5*time.Millisecond)

	o.SetPage(3)
	snap := waitForState(t, o, StateSettled)
	assert.Equal(t, 3, snap.Page.CurrentPage)

	calls := f.Calls()
	require.Len(t, calls, 2)
	assert.ErrorIs(t, calls[0].ctx.Err(), context.Canceled)

	close(release)
	time.Sleep(50 * time.Millisecond)

	snap = o.Snapshot()
	assert.Equal(t, StateSettled, snap.State)
	assert.Equal(t, 3, snap.Page.CurrentPage)
}

func TestOrchestrator_KeystrokeDiscardsSearchInFlight(t *testing.T) {
	release := make(chan struct{})
	f := &fakeSearcher{
		fn: func(ctx context.Context, query string, offset, limit int) (domain.SearchPage, error) {
			if query == "a" {
				// answers late and ignores cancellation
				<-release
			}
			return pageFor(query, offset, limit), nil
		},
	}
	o := New(f, WithDebounce(20*time.Millisecond))
	defer o.Close()

	o.Input("a")
	waitForState(t, o, StateFetching)
	require.Eventually(t, func() bool {
		return len(f.Calls()) == 1
	}, time.Second, 5*time.Millisecond)

	o.Input("ab")

	calls := f.Calls()
	assert.ErrorIs(t, calls[0].ctx.Err(), context.Canceled)

	close(release)
	time.Sleep(50 * time.Millisecond)

	snap := o.Snapshot()
	assert.Equal(t, "ab", snap.Input)
	assert.False(t, snap.State == StateSettled && snap.Query == "a", "stale result for %q committed", snap.Query)
	for _, item := range snap.Page.Items {
		assert.NotEqual(t, "a", item.ID)
	}

	snap = waitForState(t, o, StateSettled)
	assert.Equal(t, "ab", snap.Query)
	require.Len(t, snap.Page.Items, 1)
	assert.Equal(t, "ab", snap.Page.Items[0].ID)
}

func TestOrchestrator_FailureResetsToEmptyPage(t *testing.T) {
	f := &fakeSearcher{}
	o := New(f, WithDebounce(10*time.Millisecond))
	defer o.Close()

	o.SetPage(4)
	snap := waitForState(t, o, StateSettled)
	require.Equal(t, 4, snap.Page.CurrentPage)

	f.mu.Lock()
	f.fn = func(ctx context.Context, query string, offset, limit int) (domain.SearchPage, error) {
		return domain.SearchPage{}, &domain.NetworkError{Op: "GET", URL: "/manga", StatusCode: 503}
	}
	f.mu.Unlock()

	o.Input("x")
	snap = waitForState(t, o, StateFailed)

	assert.Empty(t, snap.Page.Items)
	assert.NotNil(t, snap.Page.Items)
	assert.Equal(t, 1, snap.Page.CurrentPage)
	assert.Equal(t, 1, snap.Page.TotalPages)
	assert.Contains(t, snap.Error, "503")
}

func TestOrchestrator_UpdatesCarryLatestSnapshot(t *testing.T) {
	f := &fakeSearcher{}
	o := New(f, WithDebounce(10*time.Millisecond))
	defer o.Close()

	o.Input("one")

	var last Snapshot
	require.Eventually(t, func() bool {
		select {
		case last = <-o.Updates():
		default:
		}
		return last.State == StateSettled
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "one", last.Query)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, last.Pages)
}

func TestOrchestrator_CloseStopsPendingWork(t *testing.T) {
	started := make(chan context.Context, 1)
	f := &fakeSearcher{
		fn: func(ctx context.Context, query string, offset, limit int) (domain.SearchPage, error) {
			started <- ctx
			<-ctx.Done()
			return domain.SearchPage{}, errors.WithStack(ctx.Err())
		},
	}

	o := New(f, WithDebounce(20*time.Millisecond))
	o.Input("pending")
	o.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, f.Calls())

	o2 := New(f, WithDebounce(time.Hour))
	o2.SetPage(1)
	ctx := <-started
	o2.Close()

	require.Eventually(t, func() bool {
		return ctx.Err() != nil
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, StateFetching, o2.Snapshot().State)
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{name: "start", current: 1, total: 20, want: []int{1, 2, 3, 4, 5}},
		{name: "middle", current: 10, total: 20, want: []int{8, 9, 10, 11, 12}},
		{name: "near end", current: 19, total: 20, want: []int{16, 17, 18, 19, 20}},
		{name: "few pages", current: 2, total: 3, want: []int{1, 2, 3}},
		{name: "single page", current: 1, total: 1, want: []int{1}},
		{name: "current past total", current: 50, total: 7, want: []int{3, 4, 5, 6, 7}},
		{name: "no pages", current: 1, total: 0, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageWindow(tt.current, tt.total, DefaultWindow))
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "debouncing", StateDebouncing.String())
	text, err := StateFailed.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "failed", string(text))
}
