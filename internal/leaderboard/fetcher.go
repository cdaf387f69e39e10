package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
)

// Fetcher loads the unsorted entries for one guild and mode. An empty
// result means nobody is tracked yet and is not an error.
type Fetcher interface {
	Fetch(ctx context.Context, guildID string, mode Mode) ([]Entry, error)
}

// StoreFetcher reads entries from the guild economy storage.
type StoreFetcher struct {
	Store data.Storage
}

func NewStoreFetcher(store data.Storage) *StoreFetcher {
	return &StoreFetcher{Store: store}
}

func (f *StoreFetcher) Fetch(ctx context.Context, guildID string, mode Mode) ([]Entry, error) {
	switch mode {
	case Balance:
		balances, err := f.Store.GetAllUserBalances(ctx, guildID)
		if err != nil {
			return nil, classify(err)
		}
		entries := make([]Entry, 0, len(balances))
		for _, b := range balances {
			entries = append(entries, Entry{EntityID: b.UserID, Value: b.Balance})
		}
		return entries, nil
	case Attendance:
		attendance, err := f.Store.GetAllUserAttendance(ctx, guildID)
		if err != nil {
			return nil, classify(err)
		}
		entries := make([]Entry, 0, len(attendance))
		for _, a := range attendance {
			entries = append(entries, Entry{EntityID: a.UserID, Value: a.Attendance})
		}
		return entries, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(mode))
}

// classify maps storage errors onto the leaderboard taxonomy: a missing
// guild is a precondition failure, anything else is treated as transient.
func classify(err error) error {
	if errors.Is(err, data.ErrGuildNotRegistered) {
		return ErrGuildNotRegistered
	}
	return fmt.Errorf("%w: %v", ErrDataUnavailable, err)
}

// snapshot is one fetch for a mode, sorted, with totals computed once.
type snapshot struct {
	mode       Mode
	entries    []Entry
	total      int64
	totalPages int
}

func newSnapshot(mode Mode, entries []Entry) snapshot {
	sorted := Sort(entries)
	return snapshot{
		mode:       mode,
		entries:    sorted,
		total:      Sum(sorted),
		totalPages: TotalPages(len(sorted), PageSize),
	}
}

// Load fetches and renders a single page without a session, clamping page
// into range. Used by read-only surfaces such as the HTTP API.
func Load(ctx context.Context, fetcher Fetcher, guildID string, mode Mode, page int) (Page, error) {
	entries, err := fetcher.Fetch(ctx, guildID, mode)
	if err != nil {
		return Page{}, err
	}
	snap := newSnapshot(mode, entries)
	return RenderPage(mode, snap.entries, snap.total, ClampPage(page, snap.totalPages))
}
