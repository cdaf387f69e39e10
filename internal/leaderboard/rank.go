package leaderboard

import (
	"fmt"
	"sort"
)

// PageSize is the number of entries shown per page.
const PageSize = 15

// Entry is one ranked member and its value for a mode.
type Entry struct {
	EntityID string
	Value    int64
}

// Sort returns a copy of entries ordered by descending value. Ties keep
// their fetch order.
func Sort(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	return sorted
}

func TotalPages(n, pageSize int) int {
	if n <= 0 || pageSize <= 0 {
		return 0
	}
	return (n + pageSize - 1) / pageSize
}

// Paginate returns the entries on page (0-indexed) and the page count.
// Callers clamp page before calling.
func Paginate(entries []Entry, pageSize, page int) ([]Entry, int, error) {
	totalPages := TotalPages(len(entries), pageSize)
	if page < 0 || page >= totalPages {
		return nil, totalPages, fmt.Errorf("%w: page %d of %d", ErrIndexOutOfRange, page, totalPages)
	}
	start := page * pageSize
	end := start + pageSize
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end], totalPages, nil
}

// ClampPage forces page into [0, totalPages-1], or 0 when there are no pages.
func ClampPage(page, totalPages int) int {
	if page >= totalPages {
		page = totalPages - 1
	}
	if page < 0 {
		page = 0
	}
	return page
}

func Sum(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.Value
	}
	return total
}
