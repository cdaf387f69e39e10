// Package economy holds the silver arithmetic behind guild loot splits.
package economy

import (
	"errors"
	"fmt"
)

var ErrInvalidSplit = errors.New("invalid loot split")

// Split is the outcome of dividing a loot haul between participants.
type Split struct {
	Amount       int64
	Repair       int64
	TaxPercent   int64
	Participants int
	// GuildCut is the tax plus whatever could not be divided evenly.
	GuildCut int64
	Share    int64
}

// Distributed is the silver credited to members.
func (s Split) Distributed() int64 {
	return s.Share * int64(s.Participants)
}

// Calculate splits amount after repair costs and guild tax. The tax and
// each share are rounded down; the leftover silver goes to the guild.
func Calculate(amount, repair, taxPercent int64, participants int) (Split, error) {
	switch {
	case participants <= 0:
		return Split{}, fmt.Errorf("%w: need at least one participant", ErrInvalidSplit)
	case amount <= 0:
		return Split{}, fmt.Errorf("%w: amount must be positive", ErrInvalidSplit)
	case repair < 0:
		return Split{}, fmt.Errorf("%w: repair cost cannot be negative", ErrInvalidSplit)
	case repair > amount:
		return Split{}, fmt.Errorf("%w: repair cost exceeds the loot", ErrInvalidSplit)
	case taxPercent < 0 || taxPercent > 100:
		return Split{}, fmt.Errorf("%w: tax must be between 0 and 100", ErrInvalidSplit)
	}

	net := amount - repair
	tax := net * taxPercent / 100
	share := (net - tax) / int64(participants)
	remainder := net - tax - share*int64(participants)

	return Split{
		Amount:       amount,
		Repair:       repair,
		TaxPercent:   taxPercent,
		Participants: participants,
		GuildCut:     tax + remainder,
		Share:        share,
	}, nil
}
