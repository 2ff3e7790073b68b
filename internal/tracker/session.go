package tracker

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ari/focustrack/internal/category"
)

// Session is a maximal run of same-app, same-category observations with no
// inactivity gap. It is owned by the SessionTracker while open and becomes
// immutable once closed.
type Session struct {
	ID        string
	App       string
	Title     string
	Site      string
	Category  category.Category
	StartedAt time.Time
	// LastSeen is the timestamp of the most recent observation in the run
	LastSeen time.Time
	// EndedAt is zero while the session is open
	EndedAt time.Time
}

// Open reports whether the session is still open
func (s *Session) Open() bool {
	return s.EndedAt.IsZero()
}

// Duration returns the elapsed session time, never negative. For an open
// session it spans start to last-seen.
func (s *Session) Duration() time.Duration {
	end := s.EndedAt
	if s.Open() {
		end = s.LastSeen
	}
	if end.Before(s.StartedAt) {
		return 0
	}
	return end.Sub(s.StartedAt)
}

// SessionTracker segments the observation stream into sessions. It is a two
// state machine: Idle (current == nil) and Open (one active session). It is
// not safe for concurrent use; the Pipeline serializes access.
type SessionTracker struct {
	categorizer *category.Categorizer
	timeout     time.Duration
	current     *Session
	// last is the timestamp of the most recent accepted observation,
	// kept across sessions to enforce monotonic input
	last time.Time
}

// NewSessionTracker creates a tracker that closes sessions after timeout of
// inactivity
func NewSessionTracker(categorizer *category.Categorizer, timeout time.Duration) *SessionTracker {
	return &SessionTracker{categorizer: categorizer, timeout: timeout}
}

// Observe feeds one observation through the state machine. It returns the
// session that was closed by this observation, if any. Rejected observations
// leave the tracker state untouched.
func (t *SessionTracker) Observe(obs Observation) (*Session, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}
	if obs.Timestamp.Before(t.last) {
		return nil, fmt.Errorf("%w: %s before %s", ErrOutOfOrder,
			obs.Timestamp.Format(time.RFC3339), t.last.Format(time.RFC3339))
	}

	cat := t.categorizer.Categorize(category.Activity{
		App:   obs.App,
		Title: obs.Title,
		Site:  obs.Site,
	})
	t.last = obs.Timestamp

	// Idle -> Open
	if t.current == nil {
		t.current = newSession(obs, cat)
		return nil, nil
	}

	sameRun := t.current.App == obs.App && t.current.Category == cat
	withinTimeout := obs.Timestamp.Sub(t.current.LastSeen) <= t.timeout

	if sameRun && withinTimeout {
		// Extend the open session
		t.current.LastSeen = obs.Timestamp
		t.current.Title = obs.Title
		if obs.Site != "" {
			t.current.Site = obs.Site
		}
		return nil, nil
	}

	// Session boundary: close at the prior last-seen time so the gap is
	// not attributed to the closed session, then open a new session at
	// the new observation's timestamp.
	closed := t.closeCurrent()
	t.current = newSession(obs, cat)
	return closed, nil
}

// Tick closes the open session when no observation arrived within the
// inactivity timeout (Open -> Idle). The idle gap itself produces no session.
func (t *SessionTracker) Tick(now time.Time) *Session {
	if t.current == nil {
		return nil
	}
	if now.Sub(t.current.LastSeen) < t.timeout {
		return nil
	}
	return t.closeCurrent()
}

// Current returns a copy of the open session, if any
func (t *SessionTracker) Current() (Session, bool) {
	if t.current == nil {
		return Session{}, false
	}
	return *t.current, true
}

func (t *SessionTracker) closeCurrent() *Session {
	closed := t.current
	t.current = nil
	closed.EndedAt = closed.LastSeen
	if closed.EndedAt.Before(closed.StartedAt) {
		closed.EndedAt = closed.StartedAt
	}
	return closed
}

func newSession(obs Observation, cat category.Category) *Session {
	return &Session{
		ID:        uuid.NewString(),
		App:       obs.App,
		Title:     obs.Title,
		Site:      obs.Site,
		Category:  cat,
		StartedAt: obs.Timestamp,
		LastSeen:  obs.Timestamp,
	}
}
