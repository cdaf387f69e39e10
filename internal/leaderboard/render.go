package leaderboard

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var medals = [...]string{"🥇", "🥈", "🥉"}

// Line is one rendered ranking row.
type Line struct {
	Rank     int
	Marker   string
	EntityID string
	Value    int64
	Text     string
}

// Page is a rendered leaderboard page. It holds no timestamps so rendering
// the same inputs twice yields equal pages.
type Page struct {
	Mode        Mode
	Title       string
	Lines       []Line
	Description string
	Footer      string
	Total       int64
	TotalPages  int
	Index       int
	Empty       bool
}

func (p Page) HasPrev() bool {
	return !p.Empty && p.Index > 0
}

func (p Page) HasNext() bool {
	return !p.Empty && p.Index < p.TotalPages-1
}

// Render formats one page of an already sorted and paginated list. total is
// the sum over the whole list, not just this page.
func Render(mode Mode, pageSlice []Entry, rankOffset int, total int64, totalPages, page int) Page {
	p := Page{
		Mode:       mode,
		Title:      mode.Title(),
		Total:      total,
		TotalPages: totalPages,
		Index:      page,
	}

	if totalPages == 0 {
		p.Empty = true
		p.Description = mode.emptyMessage()
		return p
	}

	printer := message.NewPrinter(language.English)
	var description strings.Builder
	p.Lines = make([]Line, 0, len(pageSlice))
	for i, entry := range pageSlice {
		rank := rankOffset + i + 1
		marker := fmt.Sprintf("%d.", rank)
		if rank <= len(medals) {
			marker = medals[rank-1]
		}
		text := printer.Sprintf("%s <@%s> %d %s", marker, entry.EntityID, entry.Value, mode.unit())
		p.Lines = append(p.Lines, Line{
			Rank:     rank,
			Marker:   marker,
			EntityID: entry.EntityID,
			Value:    entry.Value,
			Text:     text,
		})
		description.WriteString(text)
		description.WriteString("\n")
	}

	p.Description = strings.TrimSuffix(description.String(), "\n")
	p.Footer = printer.Sprintf("Page %d/%d • Total: %d %s", page+1, totalPages, total, mode.unit())
	return p
}

// RenderPage paginates a sorted list and renders the requested page.
func RenderPage(mode Mode, sorted []Entry, total int64, page int) (Page, error) {
	if len(sorted) == 0 {
		return Render(mode, nil, 0, 0, 0, 0), nil
	}
	slice, totalPages, err := Paginate(sorted, PageSize, page)
	if err != nil {
		return Page{}, err
	}
	return Render(mode, slice, page*PageSize, total, totalPages, page), nil
}
