package tracker

import (
	"time"

	"github.com/ari/focustrack/internal/category"
)

// dateFormat keys day-scoped state by local calendar day
const dateFormat = "2006-01-02"

func dayOf(t time.Time) string {
	return t.Format(dateFormat)
}

// StreakState holds the per-day streak and distraction counters
type StreakState struct {
	Date          string
	CurrentStreak time.Duration
	LongestStreak time.Duration
	Distractions  int
	// Closed-session time per category for the current day; the open
	// session is added by the caller at read time
	ProductiveTime  time.Duration
	NeutralTime     time.Duration
	TimeWastingTime time.Duration
}

// DayArchive is the final state of a finished day, produced at rollover
type DayArchive struct {
	Date            string
	LongestStreak   time.Duration
	Distractions    int
	ProductiveTime  time.Duration
	NeutralTime     time.Duration
	TimeWastingTime time.Duration
}

// Analyzer maintains the running streak and distraction counters. It
// consumes closed sessions plus periodic ticks for the still-open session,
// so a long productive session extends the streak before it closes. Not safe
// for concurrent use; the Pipeline serializes access.
type Analyzer struct {
	distractionThreshold time.Duration
	state                StreakState
	// credited is how much of the open session's duration has already
	// been added to the streak by ticks
	credited time.Duration
	openID   string
}

// NewAnalyzer creates an analyzer. Time-wasting sessions shorter than
// distractionThreshold do not count as distractions.
func NewAnalyzer(distractionThreshold time.Duration) *Analyzer {
	return &Analyzer{distractionThreshold: distractionThreshold}
}

// State returns a copy of the current counters
func (a *Analyzer) State() StreakState {
	return a.state
}

// OnSessionClosed folds a closed session into the state. It returns the
// archive of the previous day when the session's end crosses a local-day
// boundary.
func (a *Analyzer) OnSessionClosed(s *Session) *DayArchive {
	archive := a.rollover(dayOf(s.EndedAt))

	switch s.Category {
	case category.Productive:
		a.creditStreak(s)
		a.state.ProductiveTime += s.Duration()
	case category.TimeWasting:
		// Any time-wasting session resets the streak; only sessions at
		// or above the threshold count as distractions
		a.state.CurrentStreak = 0
		if s.Duration() >= a.distractionThreshold {
			a.state.Distractions++
		}
		a.state.TimeWastingTime += s.Duration()
	case category.Neutral:
		// Neutral neither extends nor resets the streak
		a.state.NeutralTime += s.Duration()
	}

	if a.openID == s.ID {
		a.openID = ""
		a.credited = 0
	}
	return archive
}

// OnTick extends the streak for a still-open productive session. open may be
// nil when the tracker is idle. It returns the archive of the previous day
// when the tick crosses a local-day boundary.
func (a *Analyzer) OnTick(open *Session, now time.Time) *DayArchive {
	archive := a.rollover(dayOf(now))

	if open != nil && open.Category == category.Productive {
		a.creditStreak(open)
	}
	return archive
}

// creditStreak adds the not-yet-credited part of the session's duration to
// the streak. Crediting is incremental so ticks and the final close never
// double-count the same seconds.
func (a *Analyzer) creditStreak(s *Session) {
	if a.openID != s.ID {
		a.openID = s.ID
		a.credited = 0
	}
	d := s.Duration()
	if d <= a.credited {
		return
	}
	a.state.CurrentStreak += d - a.credited
	a.credited = d
	if a.state.CurrentStreak > a.state.LongestStreak {
		a.state.LongestStreak = a.state.CurrentStreak
	}
}

// rollover resets all counters at a local-day boundary and returns the
// finished day's archive. The open-session credit survives the rollover so
// a session spanning midnight only contributes its post-midnight part to
// the new day's streak.
func (a *Analyzer) rollover(date string) *DayArchive {
	if a.state.Date == date {
		return nil
	}
	if a.state.Date == "" {
		a.state.Date = date
		return nil
	}
	archive := &DayArchive{
		Date:            a.state.Date,
		LongestStreak:   a.state.LongestStreak,
		Distractions:    a.state.Distractions,
		ProductiveTime:  a.state.ProductiveTime,
		NeutralTime:     a.state.NeutralTime,
		TimeWastingTime: a.state.TimeWastingTime,
	}
	a.state = StreakState{Date: date}
	return archive
}
