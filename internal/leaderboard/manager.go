package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultIdleTimeout is how long a session stays usable after its last
// valid control event.
const DefaultIdleTimeout = 300 * time.Second

// PublishFunc delivers a rendered view to the user. It runs while the
// session lock is held.
type PublishFunc func(View) error

// Manager owns every live leaderboard session for the bot process.
type Manager struct {
	fetcher  Fetcher
	timeout  time.Duration
	now      func() time.Time
	onExpire PublishFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Manager)

func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock replaces time.Now for idle checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithExpiryHook registers a callback that receives the final, expired view
// of a session so its controls can be disabled.
func WithExpiryHook(fn PublishFunc) Option {
	return func(m *Manager) {
		m.onExpire = fn
	}
}

func NewManager(fetcher Fetcher, opts ...Option) *Manager {
	m := &Manager{
		fetcher:  fetcher,
		timeout:  DefaultIdleTimeout,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Open fetches mode for guildID, creates a session owned by ownerID and
// publishes its first page. Nothing is registered if the fetch or the
// publish fails.
func (m *Manager) Open(ctx context.Context, guildID, ownerID string, mode Mode, publish PublishFunc) (View, error) {
	entries, err := m.fetcher.Fetch(ctx, guildID, mode)
	if err != nil {
		return View{}, err
	}
	snap := newSnapshot(mode, entries)

	s := &Session{
		ID:         uuid.NewString(),
		GuildID:    guildID,
		OwnerID:    ownerID,
		state:      State{Mode: mode, TotalPages: snap.totalPages},
		snap:       snap,
		lastActive: m.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// registered before publishing so a fast first click finds the session;
	// it blocks on s.mu until the first page is out
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	v := s.view()
	if err := publish(v); err != nil {
		s.expired = true
		m.mu.Lock()
		delete(m.sessions, s.ID)
		m.mu.Unlock()
		return View{}, fmt.Errorf("publish leaderboard: %w", err)
	}

	s.timer = time.AfterFunc(m.timeout, func() { m.checkIdle(s) })

	log.Debug().
		Str("session", s.ID).
		Str("guild", guildID).
		Str("user", ownerID).
		Str("mode", mode.String()).
		Msg("Leaderboard session opened")
	return v, nil
}

// Dispatch applies one control event. On success the new view is
// published before Dispatch returns; on any error the session is left
// exactly as it was.
func (m *Manager) Dispatch(ctx context.Context, sessionID, userID string, action Action, publish PublishFunc) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return ErrSessionExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired {
		return ErrSessionExpired
	}
	if m.now().Sub(s.lastActive) >= m.timeout {
		m.expire(s)
		return ErrSessionExpired
	}
	if userID != s.OwnerID {
		return ErrNotOwner
	}

	next, refetch, err := Transition(s.state, action)
	if err != nil {
		return err
	}

	snap := s.snap
	if refetch {
		entries, err := m.fetcher.Fetch(ctx, s.GuildID, next.Mode)
		if err != nil {
			log.Warn().Err(err).
				Str("session", s.ID).
				Str("mode", next.Mode.String()).
				Msg("Leaderboard mode switch failed, keeping previous view")
			return err
		}
		snap = newSnapshot(next.Mode, entries)
		next.TotalPages = snap.totalPages
	}

	prevState, prevSnap := s.state, s.snap
	s.state, s.snap = next, snap

	if err := publish(s.view()); err != nil {
		s.state, s.snap = prevState, prevSnap
		return fmt.Errorf("publish leaderboard: %w", err)
	}
	s.lastActive = m.now()
	return nil
}

// checkIdle runs from the session timer. Activity since the timer was
// armed pushes the deadline out instead of expiring.
func (m *Manager) checkIdle(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired {
		return
	}
	idle := m.now().Sub(s.lastActive)
	if idle < m.timeout {
		s.timer.Reset(m.timeout - idle)
		return
	}
	m.expire(s)
}

// expire must be called with s.mu held.
func (m *Manager) expire(s *Session) {
	s.expired = true
	if s.timer != nil {
		s.timer.Stop()
	}

	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	log.Debug().Str("session", s.ID).Msg("Leaderboard session expired")

	if m.onExpire != nil {
		if err := m.onExpire(s.view()); err != nil {
			log.Warn().Err(err).Str("session", s.ID).Msg("Failed to disable expired leaderboard controls")
		}
	}
}

// Close expires every live session, disabling their controls.
func (m *Manager) Close() {
	m.mu.Lock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.Unlock()

	for _, s := range live {
		s.mu.Lock()
		if !s.expired {
			m.expire(s)
		}
		s.mu.Unlock()
	}
}
