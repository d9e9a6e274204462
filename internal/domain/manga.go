package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

type MangaStatus string

const (
	StatusOngoing   MangaStatus = "ongoing"
	StatusCompleted MangaStatus = "completed"
	StatusUnknown   MangaStatus = "unknown"
)

func ParseMangaStatus(s string) MangaStatus {
	switch MangaStatus(s) {
	case StatusOngoing, StatusCompleted:
		return MangaStatus(s)
	default:
		return StatusUnknown
	}
}

// PlaceholderCoverURL is served when a title has no cover art relationship.
const PlaceholderCoverURL = "/placeholder-cover.jpg"

type MangaSummary struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	CoverURL    string      `json:"coverUrl"`
	Description string      `json:"description"`
	Status      MangaStatus `json:"status"`
	Year        *int        `json:"year,omitempty"`
}

// ChapterNumberOneshot labels chapters that carry no number.
const ChapterNumberOneshot = "Oneshot"

type ChapterSummary struct {
	ID               string    `json:"id"`
	ChapterNumber    string    `json:"chapterNumber"`
	Title            string    `json:"title"`
	Volume           string    `json:"volume,omitempty"`
	PublishedAt      time.Time `json:"publishedAt"`
	Language         string    `json:"language"`
	ScanlationGroups []string  `json:"scanlationGroups"`
}

// ChapterRecord is a single chapter together with the title that owns it.
type ChapterRecord struct {
	ChapterSummary
	MangaID string
}

type ChapterDetail struct {
	ChapterSummary
	MangaID         string          `json:"mangaId"`
	MangaTitle      string          `json:"mangaTitle"`
	Images          []string        `json:"images"`
	PreviousChapter *ChapterSummary `json:"previousChapter"`
	NextChapter     *ChapterSummary `json:"nextChapter"`
}

type SearchPage struct {
	Items       []MangaSummary `json:"mangaList"`
	CurrentPage int            `json:"currentPage"`
	TotalPages  int            `json:"totalPages"`
	TotalItems  int            `json:"totalItems"`
}

// EmptySearchPage is the page shown before the first search completes and after a failed one.
func EmptySearchPage(currentPage int) SearchPage {
	if currentPage < 1 {
		currentPage = 1
	}
	return SearchPage{
		Items:       []MangaSummary{},
		CurrentPage: currentPage,
		TotalPages:  1,
		TotalItems:  0,
	}
}

// AtHomeServer describes where the page images of a chapter are served from.
type AtHomeServer struct {
	BaseURL string
	Hash    string
	Files   []string
}

type FeedQuery struct {
	Language      string
	Limit         int
	ExcludeFuture bool
}

// ChaptersByLanguage maps language codes to chapter lists, keeping the order languages were added in.
type ChaptersByLanguage struct {
	order    []string
	chapters map[string][]ChapterSummary
}

func NewChaptersByLanguage() ChaptersByLanguage {
	return ChaptersByLanguage{chapters: make(map[string][]ChapterSummary)}
}

func (c *ChaptersByLanguage) Set(language string, chapters []ChapterSummary) {
	if c.chapters == nil {
		c.chapters = make(map[string][]ChapterSummary)
	}
	if _, ok := c.chapters[language]; !ok {
		c.order = append(c.order, language)
	}
	if chapters == nil {
		chapters = []ChapterSummary{}
	}
	c.chapters[language] = chapters
}

func (c ChaptersByLanguage) Get(language string) []ChapterSummary {
	return c.chapters[language]
}

func (c ChaptersByLanguage) Has(language string) bool {
	_, ok := c.chapters[language]
	return ok
}

func (c ChaptersByLanguage) Languages() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c ChaptersByLanguage) Len() int {
	return len(c.order)
}

func (c ChaptersByLanguage) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, lang := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(lang)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.chapters[lang])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
