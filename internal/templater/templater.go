package templater

import (
	"regexp"
	"strconv"
	"strings"

	"mymanga/internal/domain"
	"mymanga/internal/utils"
)

// DefaultTemplate renders names like "Berserk Ch. 001 - The Black Swordsman".
const DefaultTemplate = "{manga:<.>} Ch. {num:3}{title: - <.>}"

var templatePattern = regexp.MustCompile(`{((\w+?)(:.*?)?)}`)

// Templater names exported chapters. Placeholders are {manga}, {num} and {title}; an option
// after the colon wraps the value ("<.>" marks where it goes), and {num:N} pads to N digits.
type Templater struct {
	Chapter domain.ChapterDetail
}

func New(chapter domain.ChapterDetail) *Templater {
	return &Templater{
		Chapter: chapter,
	}
}

func (t *Templater) handleNum(options string) string {
	if options == "" {
		return t.Chapter.ChapterNumber
	}

	width, _ := strconv.ParseInt(strings.TrimPrefix(options, ":"), 10, 32)
	return utils.PadNumber(t.Chapter.ChapterNumber, int(width))
}

func wrap(options, value string) string {
	if value == "" {
		return ""
	}
	if options == "" {
		return value
	}

	return strings.ReplaceAll(strings.TrimPrefix(options, ":"), "<.>", value)
}

func (t *Templater) ExecTemplate(template string) string {
	if template == "" {
		template = DefaultTemplate
	}

	newString := template
	for _, match := range templatePattern.FindAllStringSubmatch(template, -1) {
		replace := match[0]
		options := match[3]

		switch match[2] {
		case "num":
			replace = t.handleNum(options)
		case "manga":
			replace = wrap(options, t.Chapter.MangaTitle)
		case "title":
			replace = wrap(options, t.Chapter.Title)
		case "lang":
			replace = wrap(options, t.Chapter.Language)
		}

		newString = strings.Replace(newString, match[0], replace, 1)
	}

	return strings.TrimSpace(newString)
}
