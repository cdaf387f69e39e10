package event

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultDraftTimeout is how long a draft survives without input.
const DefaultDraftTimeout = 10 * time.Minute

type entry struct {
	draft      Draft
	lastActive time.Time
	timer      *time.Timer
}

// Registry owns the open drafts, at most one per member and guild. Drafts
// leave it when completed, cancelled, replaced or idle past the timeout.
type Registry struct {
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	drafts  map[string]*entry
	byOwner map[string]string
}

type Option func(*Registry)

func WithDraftTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithClock replaces time.Now for idle checks and scheduling.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		timeout: DefaultDraftTimeout,
		now:     time.Now,
		drafts:  make(map[string]*entry),
		byOwner: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func ownerKey(guildID, ownerID string) string {
	return guildID + "/" + ownerID
}

// Len reports the number of open drafts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

// Start opens a new draft, discarding any draft the member already had in
// this guild.
func (r *Registry) Start(guildID, channelID, ownerID string) Draft {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byOwner[ownerKey(guildID, ownerID)]; ok {
		r.evict(old)
	}

	e := &entry{
		draft: Draft{
			ID:        uuid.NewString(),
			GuildID:   guildID,
			ChannelID: channelID,
			OwnerID:   ownerID,
			Step:      StepMonth,
		},
		lastActive: r.now(),
	}
	id := e.draft.ID
	e.timer = time.AfterFunc(r.timeout, func() { r.checkIdle(id) })

	r.drafts[id] = e
	r.byOwner[ownerKey(guildID, ownerID)] = id

	log.Debug().Str("draft", id).Str("guild", guildID).Str("user", ownerID).Msg("Event draft started")
	return e.draft
}

// Get returns the draft if userID may act on it.
func (r *Registry) Get(draftID, userID string) (Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.access(draftID, userID)
	if err != nil {
		return Draft{}, err
	}
	return e.draft, nil
}

func (r *Registry) SetMonth(draftID, userID string, month time.Month) (Draft, error) {
	if month < time.January || month > time.December {
		return Draft{}, ErrInvalidMonth
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.access(draftID, userID)
	if err != nil {
		return Draft{}, err
	}
	if e.draft.Step != StepMonth {
		return Draft{}, ErrWrongStep
	}
	e.draft.Month = month
	e.draft.Step = StepContentType
	e.lastActive = r.now()
	return e.draft, nil
}

func (r *Registry) SetContentType(draftID, userID, contentType string) (Draft, error) {
	if !validContentType(contentType) {
		return Draft{}, ErrInvalidContentType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.access(draftID, userID)
	if err != nil {
		return Draft{}, err
	}
	if e.draft.Step != StepContentType {
		return Draft{}, ErrWrongStep
	}
	e.draft.ContentType = contentType
	e.draft.Step = StepDetails
	e.lastActive = r.now()
	return e.draft, nil
}

// Complete validates details and evicts the draft. Invalid details leave
// the draft open so the member can try again.
func (r *Registry) Complete(draftID, userID string, details Details) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.access(draftID, userID)
	if err != nil {
		return Event{}, err
	}
	if e.draft.Step != StepDetails {
		return Event{}, ErrWrongStep
	}

	now := r.now()
	start, err := schedule(now, e.draft.Month, details)
	if err != nil {
		e.lastActive = now
		return Event{}, err
	}

	r.evict(draftID)
	log.Debug().Str("draft", draftID).Time("start", start).Msg("Event draft completed")
	return Event{
		GuildID:     e.draft.GuildID,
		ChannelID:   e.draft.ChannelID,
		OrganizerID: e.draft.OwnerID,
		ContentType: e.draft.ContentType,
		Comp:        strings.TrimSpace(details.Comp),
		Start:       start,
	}, nil
}

func (r *Registry) Cancel(draftID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.access(draftID, userID); err != nil {
		return err
	}
	r.evict(draftID)
	return nil
}

// Close drops every draft and stops their timers.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.drafts {
		r.evict(id)
	}
}

// access must be called with r.mu held.
func (r *Registry) access(draftID, userID string) (*entry, error) {
	e, ok := r.drafts[draftID]
	if !ok {
		return nil, ErrDraftExpired
	}
	if r.now().Sub(e.lastActive) >= r.timeout {
		r.evict(draftID)
		return nil, ErrDraftExpired
	}
	if e.draft.OwnerID != userID {
		return nil, ErrNotOwner
	}
	return e, nil
}

func (r *Registry) checkIdle(draftID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.drafts[draftID]
	if !ok {
		return
	}
	idle := r.now().Sub(e.lastActive)
	if idle < r.timeout {
		e.timer.Reset(r.timeout - idle)
		return
	}
	r.evict(draftID)
	log.Debug().Str("draft", draftID).Msg("Event draft expired")
}

// evict must be called with r.mu held.
func (r *Registry) evict(draftID string) {
	e, ok := r.drafts[draftID]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(r.drafts, draftID)
	key := ownerKey(e.draft.GuildID, e.draft.OwnerID)
	if r.byOwner[key] == draftID {
		delete(r.byOwner, key)
	}
}
