package domain

import (
	"bytes"
	"encoding/json"
)

// LocalizedString is a locale -> text object that remembers the order locales appeared in.
// Anything other than a JSON object decodes as empty, and non-string values are skipped.
type LocalizedString struct {
	locales []string
	values  map[string]string
}

func NewLocalizedString(pairs ...string) LocalizedString {
	var l LocalizedString
	for i := 0; i+1 < len(pairs); i += 2 {
		l.set(pairs[i], pairs[i+1])
	}
	return l
}

func (l *LocalizedString) set(locale, value string) {
	if l.values == nil {
		l.values = make(map[string]string)
	}
	if _, ok := l.values[locale]; !ok {
		l.locales = append(l.locales, locale)
	}
	l.values[locale] = value
}

func (l *LocalizedString) UnmarshalJSON(data []byte) error {
	*l = LocalizedString{}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		l.set(key, value)
	}

	return nil
}

// Get returns the non-empty text for locale.
func (l LocalizedString) Get(locale string) (string, bool) {
	v := l.values[locale]
	return v, v != ""
}

// First returns the first non-empty text in document order.
func (l LocalizedString) First() (string, bool) {
	for _, locale := range l.locales {
		if v := l.values[locale]; v != "" {
			return v, true
		}
	}
	return "", false
}

// Pick tries locales in order and falls back without looking at other locales.
func (l LocalizedString) Pick(fallback string, locales ...string) string {
	for _, locale := range locales {
		if v, ok := l.Get(locale); ok {
			return v
		}
	}
	return fallback
}

// Preferred tries locales in order, then the first available text, then fallback.
func (l LocalizedString) Preferred(fallback string, locales ...string) string {
	for _, locale := range locales {
		if v, ok := l.Get(locale); ok {
			return v
		}
	}
	if v, ok := l.First(); ok {
		return v
	}
	return fallback
}
