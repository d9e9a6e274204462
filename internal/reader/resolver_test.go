package reader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mymanga/internal/domain"
	"mymanga/internal/sharedhttp"
	"mymanga/internal/source"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) GetAtHomeServer(ctx context.Context, chapterID string) (domain.AtHomeServer, error) {
	args := m.Called(ctx, chapterID)
	return args.Get(0).(domain.AtHomeServer), args.Error(1)
}

func (m *mockCatalog) GetChapter(ctx context.Context, chapterID string) (domain.ChapterRecord, error) {
	args := m.Called(ctx, chapterID)
	return args.Get(0).(domain.ChapterRecord), args.Error(1)
}

func (m *mockCatalog) GetManga(ctx context.Context, mangaID string) (domain.MangaSummary, error) {
	args := m.Called(ctx, mangaID)
	return args.Get(0).(domain.MangaSummary), args.Error(1)
}

func (m *mockCatalog) GetChapterFeed(ctx context.Context, mangaID string, q domain.FeedQuery) ([]domain.ChapterSummary, error) {
	args := m.Called(ctx, mangaID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChapterSummary), args.Error(1)
}

var atHome = domain.AtHomeServer{
	BaseURL: "https://cdn.test",
	Hash:    "abc123",
	Files:   []string{"1-x.png", "2-y.png"},
}

func chapter(id, number string) domain.ChapterSummary {
	return domain.ChapterSummary{ID: id, ChapterNumber: number, Language: "en"}
}

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	c := &mockCatalog{}

	c.On("GetAtHomeServer", ctx, "ch-2").Return(atHome, nil)
	c.On("GetChapter", ctx, "ch-2").Return(domain.ChapterRecord{ChapterSummary: chapter("ch-2", "2"), MangaID: "M1"}, nil)
	c.On("GetManga", ctx, "M1").Return(domain.MangaSummary{ID: "M1", Title: "Berserk"}, nil)
	c.On("GetChapterFeed", ctx, "M1", domain.FeedQuery{Language: "en", Limit: 500}).
		Return([]domain.ChapterSummary{chapter("ch-3", "3"), chapter("ch-1", "1"), chapter("ch-2", "2")}, nil)

	detail, err := NewResolver(c, zerolog.Nop()).Resolve(ctx, "ch-2")
	require.NoError(t, err)

	assert.Equal(t, "ch-2", detail.ID)
	assert.Equal(t, "M1", detail.MangaID)
	assert.Equal(t, "Berserk", detail.MangaTitle)
	assert.Equal(t, []string{
		"https://cdn.test/data/abc123/1-x.png",
		"https://cdn.test/data/abc123/2-y.png",
	}, detail.Images)

	require.NotNil(t, detail.PreviousChapter)
	require.NotNil(t, detail.NextChapter)
	assert.Equal(t, "1", detail.PreviousChapter.ChapterNumber)
	assert.Equal(t, "3", detail.NextChapter.ChapterNumber)

	c.AssertExpectations(t)
}

func TestResolver_Resolve_Edges(t *testing.T) {
	siblings := []domain.ChapterSummary{chapter("ch-1", "1"), chapter("ch-2", "2"), chapter("ch-3", "3")}

	tests := []struct {
		name     string
		id       string
		wantPrev string
		wantNext string
	}{
		{name: "first chapter", id: "ch-1", wantPrev: "", wantNext: "2"},
		{name: "last chapter", id: "ch-3", wantPrev: "2", wantNext: ""},
		{name: "not in feed", id: "ch-x", wantPrev: "", wantNext: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mockCatalog{}
			c.On("GetAtHomeServer", mock.Anything, tt.id).Return(atHome, nil)
			c.On("GetChapter", mock.Anything, tt.id).Return(domain.ChapterRecord{ChapterSummary: chapter(tt.id, "9"), MangaID: "M1"}, nil)
			c.On("GetManga", mock.Anything, "M1").Return(domain.MangaSummary{Title: "T"}, nil)
			c.On("GetChapterFeed", mock.Anything, "M1", mock.Anything).Return(siblings, nil)

			detail, err := NewResolver(c, zerolog.Nop()).Resolve(context.Background(), tt.id)
			require.NoError(t, err)

			if tt.wantPrev == "" {
				assert.Nil(t, detail.PreviousChapter)
			} else {
				require.NotNil(t, detail.PreviousChapter)
				assert.Equal(t, tt.wantPrev, detail.PreviousChapter.ChapterNumber)
			}

			if tt.wantNext == "" {
				assert.Nil(t, detail.NextChapter)
			} else {
				require.NotNil(t, detail.NextChapter)
				assert.Equal(t, tt.wantNext, detail.NextChapter.ChapterNumber)
			}
		})
	}
}

func TestResolver_Resolve_NoOwningManga(t *testing.T) {
	c := &mockCatalog{}
	c.On("GetAtHomeServer", mock.Anything, "ch-1").Return(atHome, nil)
	c.On("GetChapter", mock.Anything, "ch-1").Return(domain.ChapterRecord{ChapterSummary: chapter("ch-1", "1")}, nil)

	detail, err := NewResolver(c, zerolog.Nop()).Resolve(context.Background(), "ch-1")
	require.NoError(t, err)

	assert.Equal(t, "Unknown Manga", detail.MangaTitle)
	assert.Nil(t, detail.PreviousChapter)
	assert.Nil(t, detail.NextChapter)
	assert.Len(t, detail.Images, 2)

	c.AssertNotCalled(t, "GetManga", mock.Anything, mock.Anything)
	c.AssertNotCalled(t, "GetChapterFeed", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolver_Resolve_NotFound(t *testing.T) {
	netErr := &domain.NetworkError{Op: "GET", URL: "https://api.test", StatusCode: 500}

	tests := []struct {
		name  string
		setup func(c *mockCatalog)
	}{
		{
			name: "delivery server unreachable",
			setup: func(c *mockCatalog) {
				c.On("GetAtHomeServer", mock.Anything, "ch-1").Return(domain.AtHomeServer{}, netErr)
			},
		},
		{
			name: "delivery server without hash",
			setup: func(c *mockCatalog) {
				c.On("GetAtHomeServer", mock.Anything, "ch-1").Return(domain.AtHomeServer{BaseURL: "https://cdn.test"}, nil)
			},
		},
		{
			name: "chapter metadata fails",
			setup: func(c *mockCatalog) {
				c.On("GetAtHomeServer", mock.Anything, "ch-1").Return(atHome, nil)
				c.On("GetChapter", mock.Anything, "ch-1").Return(domain.ChapterRecord{}, netErr)
			},
		},
		{
			name: "manga lookup fails",
			setup: func(c *mockCatalog) {
				c.On("GetAtHomeServer", mock.Anything, "ch-1").Return(atHome, nil)
				c.On("GetChapter", mock.Anything, "ch-1").Return(domain.ChapterRecord{ChapterSummary: chapter("ch-1", "1"), MangaID: "M1"}, nil)
				c.On("GetManga", mock.Anything, "M1").Return(domain.MangaSummary{}, netErr)
			},
		},
		{
			name: "sibling feed fails",
			setup: func(c *mockCatalog) {
				c.On("GetAtHomeServer", mock.Anything, "ch-1").Return(atHome, nil)
				c.On("GetChapter", mock.Anything, "ch-1").Return(domain.ChapterRecord{ChapterSummary: chapter("ch-1", "1"), MangaID: "M1"}, nil)
				c.On("GetManga", mock.Anything, "M1").Return(domain.MangaSummary{Title: "T"}, nil)
				c.On("GetChapterFeed", mock.Anything, "M1", mock.Anything).Return(nil, netErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &mockCatalog{}
			tt.setup(c)

			detail, err := NewResolver(c, zerolog.Nop()).Resolve(context.Background(), "ch-1")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrNotFound))
			assert.Empty(t, detail.ID)
			assert.Nil(t, detail.Images)
		})
	}
}

func TestResolver_Resolve_UnreadableFeedKeepsChapter(t *testing.T) {
	c := &mockCatalog{}
	c.On("GetAtHomeServer", mock.Anything, "ch-1").Return(atHome, nil)
	c.On("GetChapter", mock.Anything, "ch-1").Return(domain.ChapterRecord{ChapterSummary: chapter("ch-1", "1"), MangaID: "M1"}, nil)
	c.On("GetManga", mock.Anything, "M1").Return(domain.MangaSummary{Title: "Berserk"}, nil)
	c.On("GetChapterFeed", mock.Anything, "M1", mock.Anything).
		Return(nil, errors.WithMessage(source.ErrUnexpectedShape, "feed of M1"))

	detail, err := NewResolver(c, zerolog.Nop()).Resolve(context.Background(), "ch-1")
	require.NoError(t, err)

	assert.Equal(t, "ch-1", detail.ID)
	assert.Equal(t, "Berserk", detail.MangaTitle)
	assert.Len(t, detail.Images, 2)
	assert.Nil(t, detail.PreviousChapter)
	assert.Nil(t, detail.NextChapter)
}

func TestResolver_Resolve_MalformedFeedFromCatalog(t *testing.T) {
	feeds := map[string]string{
		"object data":  `{"data":{"oops":true}}`,
		"missing data": `{"result":"ok"}`,
		"empty list":   `{"data":[]}`,
	}

	for name, feed := range feeds {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/at-home/server/c1", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"baseUrl":"https://cdn.test","chapter":{"hash":"h","data":["1.png"]}}`)
			})
			mux.HandleFunc("/chapter/c1", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"data":{"id":"c1","attributes":{"chapter":"1","translatedLanguage":"en"},"relationships":[{"id":"m1","type":"manga"}]}}`)
			})
			mux.HandleFunc("/manga/m1", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"data":{"id":"m1","attributes":{"title":{"en":"Berserk"}}}}`)
			})
			mux.HandleFunc("/manga/m1/feed", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, feed)
			})

			srv := httptest.NewServer(mux)
			t.Cleanup(srv.Close)

			md := source.NewMangadex()
			md.BaseURL = srv.URL
			md.Client = srv.Client()
			md.Retry = sharedhttp.RetryPolicy{Attempts: 1, Delay: time.Millisecond}

			detail, err := NewResolver(md, zerolog.Nop()).Resolve(context.Background(), "c1")
			require.NoError(t, err)

			assert.Equal(t, "c1", detail.ID)
			assert.Equal(t, "Berserk", detail.MangaTitle)
			assert.Equal(t, []string{"https://cdn.test/data/h/1.png"}, detail.Images)
			assert.Nil(t, detail.PreviousChapter)
			assert.Nil(t, detail.NextChapter)
		})
	}
}
