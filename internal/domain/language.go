package domain

import "strings"

var languageNames = map[string]string{
	"en": "English",
	"id": "Indonesian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"es": "Spanish",
	"fr": "French",
	"ru": "Russian",
	"th": "Thai",
	"vi": "Vietnamese",
	"pt": "Portuguese",
	"ar": "Arabic",
	"de": "German",
	"it": "Italian",
	"nl": "Dutch",
	"tr": "Turkish",
}

// LanguageName returns the display name for a language code, or the upper-cased code when unknown.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}
