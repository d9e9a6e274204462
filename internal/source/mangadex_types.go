package source

import (
	"bytes"
	"encoding/json"
	"time"

	"mymanga/internal/domain"
)

// optional holds a field that may be missing, null or of an unexpected type.
// Any of those decode as unset instead of failing the surrounding record.
type optional[T any] struct {
	Value T
	Valid bool
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	*o = optional[T]{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	o.Value, o.Valid = v, true
	return nil
}

type listEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Total optional[int]   `json:"total"`
}

type entityEnvelope struct {
	Data json.RawMessage `json:"data"`
}

type relationship struct {
	ID         string                           `json:"id"`
	Type       string                           `json:"type"`
	Attributes optional[relationshipAttributes] `json:"attributes"`
}

type relationshipAttributes struct {
	FileName optional[string] `json:"fileName"`
	Name     optional[string] `json:"name"`
}

type mangaRecord struct {
	ID            string                    `json:"id"`
	Attributes    optional[mangaAttributes] `json:"attributes"`
	Relationships optional[[]relationship]  `json:"relationships"`
}

type mangaAttributes struct {
	Title       domain.LocalizedString `json:"title"`
	Description domain.LocalizedString `json:"description"`
	Status      optional[string]       `json:"status"`
	Year        optional[int]          `json:"year"`
}

type chapterRecord struct {
	ID            string                      `json:"id"`
	Attributes    optional[chapterAttributes] `json:"attributes"`
	Relationships optional[[]relationship]    `json:"relationships"`
}

type chapterAttributes struct {
	Volume             optional[string]    `json:"volume"`
	Chapter            optional[string]    `json:"chapter"`
	Title              optional[string]    `json:"title"`
	TranslatedLanguage optional[string]    `json:"translatedLanguage"`
	PublishAt          optional[time.Time] `json:"publishAt"`
}

type atHomeResponse struct {
	BaseURL optional[string]        `json:"baseUrl"`
	Chapter optional[atHomeChapter] `json:"chapter"`
}

type atHomeChapter struct {
	Hash optional[string]   `json:"hash"`
	Data optional[[]string] `json:"data"`
}

func (r mangaRecord) relationship(kind string) (relationship, bool) {
	for _, rel := range r.Relationships.Value {
		if rel.Type == kind {
			return rel, true
		}
	}
	return relationship{}, false
}

func (r chapterRecord) relationship(kind string) (relationship, bool) {
	for _, rel := range r.Relationships.Value {
		if rel.Type == kind {
			return rel, true
		}
	}
	return relationship{}, false
}
