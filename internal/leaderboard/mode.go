package leaderboard

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode is the ranking dimension a leaderboard shows.
type Mode int

const (
	Balance Mode = iota
	Attendance
)

// Modes lists every mode in display order.
func Modes() []Mode {
	return []Mode{Balance, Attendance}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "balance", "balances", "silver":
		return Balance, nil
	case "attendance", "points", "pts":
		return Attendance, nil
	}
	return Balance, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) String() string {
	switch m {
	case Balance:
		return "balance"
	case Attendance:
		return "attendance"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Label is the short human name used on buttons.
func (m Mode) Label() string {
	if m == Balance {
		return "Silver"
	}
	// a Caser is stateful, so each call gets its own
	return cases.Title(language.English).String(m.String())
}

func (m Mode) Title() string {
	return m.Label() + " Leaderboard"
}

func (m Mode) unit() string {
	if m == Balance {
		return "silver"
	}
	return "pts"
}

func (m Mode) emptyMessage() string {
	if m == Balance {
		return "No members are tracked yet. Balances show up here once silver is added or split."
	}
	return "No members are tracked yet. Attendance shows up here once points are recorded."
}
