package parse

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"mymanga/internal/domain"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ChapterNumber reads the leading decimal number of a chapter label.
// Labels without one, such as "Oneshot", count as 0.
func ChapterNumber(label string) float64 {
	match := leadingNumber.FindString(strings.TrimSpace(label))
	if match == "" {
		return 0
	}

	n, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}

	return n
}

// SortChapters returns a copy of chapters in ascending numeric order. Equal numbers keep their input order.
func SortChapters(chapters []domain.ChapterSummary) []domain.ChapterSummary {
	sorted := slices.Clone(chapters)
	slices.SortStableFunc(sorted, func(a, b domain.ChapterSummary) int {
		return cmp.Compare(ChapterNumber(a.ChapterNumber), ChapterNumber(b.ChapterNumber))
	})

	return sorted
}

// Neighbours locates id in an ordered chapter list and returns the chapters around it.
// Both are nil when id is not in the list.
func Neighbours(chapters []domain.ChapterSummary, id string) (prev, next *domain.ChapterSummary) {
	idx := slices.IndexFunc(chapters, func(c domain.ChapterSummary) bool {
		return c.ID == id
	})
	if idx < 0 {
		return nil, nil
	}

	if idx > 0 {
		p := chapters[idx-1]
		prev = &p
	}
	if idx < len(chapters)-1 {
		n := chapters[idx+1]
		next = &n
	}

	return prev, next
}

// GetMinAndMaxBy returns the items with the lowest and highest key. On ties the earliest item wins.
func GetMinAndMaxBy[T any, K cmp.Ordered](items []T, key func(T) K) (T, T, error) {
	if len(items) == 0 {
		var zero T
		return zero, zero, fmt.Errorf("list is empty")
	}

	minItem, maxItem := items[0], items[0]
	minKey, maxKey := key(items[0]), key(items[0])
	for _, item := range items[1:] {
		k := key(item)
		if k < minKey {
			minItem, minKey = item, k
		}
		if k > maxKey {
			maxItem, maxKey = item, k
		}
	}

	return minItem, maxItem, nil
}

// FirstAndLast picks the lowest and highest numbered chapter of a list.
func FirstAndLast(chapters []domain.ChapterSummary) (first, last *domain.ChapterSummary) {
	lo, hi, err := GetMinAndMaxBy(chapters, func(c domain.ChapterSummary) float64 {
		return ChapterNumber(c.ChapterNumber)
	})
	if err != nil {
		return nil, nil
	}

	return &lo, &hi
}
