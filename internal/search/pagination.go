package search

// DefaultWindow is how many page numbers the pagination strip shows at once.
const DefaultWindow = 5

// PageWindow returns the page numbers to show around current, at most size of them,
// centered where possible and clamped to [1, total].
func PageWindow(current, total, size int) []int {
	if total < 1 || size < 1 {
		return []int{}
	}

	current = min(max(current, 1), total)

	start := max(current-size/2, 1)
	end := min(start+size-1, total)
	if end-start+1 < size {
		start = max(end-size+1, 1)
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}

	return pages
}
