package leaderboard

import (
	"sync"
	"time"
)

// Action is a control event sent by a leaderboard button.
type Action string

const (
	ActionBalance    Action = "balance"
	ActionAttendance Action = "attendance"
	ActionFirst      Action = "first"
	ActionPrev       Action = "prev"
	ActionNext       Action = "next"
	ActionLast       Action = "last"
)

func ParseAction(s string) (Action, error) {
	a := Action(s)
	switch a {
	case ActionBalance, ActionAttendance, ActionFirst, ActionPrev, ActionNext, ActionLast:
		return a, nil
	}
	return "", ErrUnknownAction
}

// SwitchAction returns the action that selects mode.
func SwitchAction(mode Mode) Action {
	if mode == Attendance {
		return ActionAttendance
	}
	return ActionBalance
}

// State is the mutable part of a session.
type State struct {
	Mode       Mode
	Page       int
	TotalPages int
}

// Transition computes the state that follows action. When refetch is true
// the mode changed: the caller must load the new mode and fill in
// TotalPages before committing. Guarded moves (next on the last page,
// switching to the active mode) return the state unchanged.
func Transition(s State, action Action) (next State, refetch bool, err error) {
	next = s
	switch action {
	case ActionBalance, ActionAttendance:
		mode := Balance
		if action == ActionAttendance {
			mode = Attendance
		}
		if mode == s.Mode {
			return s, false, nil
		}
		return State{Mode: mode}, true, nil
	case ActionNext:
		if s.Page < s.TotalPages-1 {
			next.Page++
		}
	case ActionPrev:
		if s.Page > 0 {
			next.Page--
		}
	case ActionFirst:
		next.Page = 0
	case ActionLast:
		next.Page = ClampPage(s.TotalPages-1, s.TotalPages)
	default:
		return s, false, ErrUnknownAction
	}
	return next, false, nil
}

// View is what gets published for a session: the rendered page plus the
// identity needed to route control events back.
type View struct {
	SessionID string
	OwnerID   string
	GuildID   string
	Page      Page
	Expired   bool
}

// Session is one live leaderboard, owned by the user who opened it.
type Session struct {
	ID      string
	GuildID string
	OwnerID string

	// mu serialises control events; it is held across fetch and publish so
	// a slow transition can never be overtaken by a later one.
	mu         sync.Mutex
	state      State
	snap       snapshot
	lastActive time.Time
	expired    bool
	timer      *time.Timer
}

func (s *Session) view() View {
	page, err := RenderPage(s.state.Mode, s.snap.entries, s.snap.total, s.state.Page)
	if err != nil {
		// state is only committed from a snapshot, so the page is always in range
		page = Render(s.state.Mode, nil, 0, 0, 0, 0)
	}
	return View{
		SessionID: s.ID,
		OwnerID:   s.OwnerID,
		GuildID:   s.GuildID,
		Page:      page,
		Expired:   s.expired,
	}
}
