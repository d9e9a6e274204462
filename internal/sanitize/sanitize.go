package sanitize

import (
	"regexp"
	"strings"
)

var (
	illegalChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x08\x0b\x0c\x0e-\x1f]`)
	spaces       = regexp.MustCompile(`\s+`)
)

// Filename strips characters that are not allowed in file names on common filesystems.
// An empty result falls back to "chapter".
func Filename(name string) string {
	name = illegalChars.ReplaceAllString(name, "")
	name = spaces.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")

	if name == "" {
		return "chapter"
	}
	return name
}
