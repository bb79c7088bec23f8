package utils

import (
	"time"
)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// TotalPages returns how many pages of perPage items total items fill.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// PageBounds returns the half-open slice bounds of a 1-based page over n
// items. Pages past the end yield an empty range.
func PageBounds(n, page, perPage int) (start, end int) {
	if page < 1 || perPage <= 0 {
		return 0, 0
	}
	start = (page - 1) * perPage
	if start >= n {
		return n, n
	}
	end = start + perPage
	if end > n {
		end = n
	}
	return start, end
}
