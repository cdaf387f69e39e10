// Package event holds the drafts behind the multi-step /event wizard and
// turns a finished draft into a scheduled guild event.
package event

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

var contentTypes = []string{
	"ZvZ",
	"Small Scale",
	"Ganking",
	"Roaming",
	"Group Dungeon",
	"Avalonian Roads",
	"Hellgate",
	"Gathering",
}

// ContentTypes lists the activities an event can be scheduled for.
func ContentTypes() []string {
	out := make([]string, len(contentTypes))
	copy(out, contentTypes)
	return out
}

func validContentType(s string) bool {
	for _, ct := range contentTypes {
		if ct == s {
			return true
		}
	}
	return false
}

// Step is the next piece of input a draft is waiting for.
type Step int

const (
	StepMonth Step = iota
	StepContentType
	StepDetails
)

func (s Step) String() string {
	switch s {
	case StepMonth:
		return "month"
	case StepContentType:
		return "content type"
	case StepDetails:
		return "details"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Draft is an event being assembled by one member.
type Draft struct {
	ID          string
	GuildID     string
	ChannelID   string
	OwnerID     string
	Step        Step
	Month       time.Month
	ContentType string
}

// Details is the free-text part of the wizard, as typed into the modal.
type Details struct {
	Day  string `validate:"required,numeric"`
	Time string `validate:"required"`
	Comp string `validate:"required,max=200"`
}

// Event is a completed draft.
type Event struct {
	GuildID     string
	ChannelID   string
	OrganizerID string
	ContentType string
	Comp        string
	Start       time.Time
}

// schedule resolves the draft's month with day and "HH:MM" (UTC) to the
// next such moment at or after now.
func schedule(now time.Time, month time.Month, details Details) (time.Time, error) {
	details.Day = strings.TrimSpace(details.Day)
	details.Time = strings.TrimSpace(details.Time)
	details.Comp = strings.TrimSpace(details.Comp)
	if err := validate.Struct(details); err != nil {
		return time.Time{}, fmt.Errorf("%w: day must be a number and time and comp are required", ErrInvalidDetails)
	}

	day, err := strconv.Atoi(details.Day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: day must be a number", ErrInvalidDetails)
	}
	clock, err := time.Parse("15:04", details.Time)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time must look like 19:30 (UTC)", ErrInvalidDetails)
	}

	now = now.UTC()
	for year := now.Year(); year <= now.Year()+1; year++ {
		if day < 1 || day > daysIn(month, year) {
			continue
		}
		start := time.Date(year, month, day, clock.Hour(), clock.Minute(), 0, 0, time.UTC)
		if !start.Before(now) {
			return start, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s has no day %d", ErrInvalidDetails, month, day)
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
