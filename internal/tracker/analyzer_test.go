package tracker

import (
	"testing"
	"time"

	"github.com/ari/focustrack/internal/category"
)

func closedSession(id string, cat category.Category, start time.Time, d time.Duration) *Session {
	return &Session{
		ID:        id,
		App:       "app",
		Category:  cat,
		StartedAt: start,
		LastSeen:  start.Add(d),
		EndedAt:   start.Add(d),
	}
}

func TestProductiveSessionExtendsStreak(t *testing.T) {
	a := NewAnalyzer(15 * time.Minute)

	a.OnSessionClosed(closedSession("s1", category.Productive, baseTime, 30*time.Minute))

	st := a.State()
	if st.CurrentStreak != 30*time.Minute {
		t.Errorf("expected streak 30m, got %s", st.CurrentStreak)
	}
	if st.LongestStreak != 30*time.Minute {
		t.Errorf("expected longest 30m, got %s", st.LongestStreak)
	}
	if st.ProductiveTime != 30*time.Minute {
		t.Errorf("expected productive time 30m, got %s", st.ProductiveTime)
	}
	if st.Date != "2025-06-02" {
		t.Errorf("expected date 2025-06-02, got %s", st.Date)
	}
}

func TestTimeWastingAtThresholdCountsDistraction(t *testing.T) {
	a := NewAnalyzer(15 * time.Minute)

	a.OnSessionClosed(closedSession("s1", category.Productive, baseTime, 30*time.Minute))
	a.OnSessionClosed(closedSession("s2", category.TimeWasting, baseTime.Add(30*time.Minute), 20*time.Minute))

	st := a.State()
	if st.CurrentStreak != 0 {
		t.Errorf("expected streak reset, got %s", st.CurrentStreak)
	}
	if st.Distractions != 1 {
		t.Errorf("expected 1 distraction, got %d", st.Distractions)
	}
	if st.TimeWastingTime != 20*time.Minute {
		t.Errorf("expected time-wasting 20m, got %s", st.TimeWastingTime)
	}
}

func TestShortTimeWastingResetsStreakWithoutDistraction(t *testing.T) {
	a := NewAnalyzer(15 * time.Minute)

	a.OnSessionClosed(closedSession("s1", category.Productive, baseTime, 30*time.Minute))
	a.OnSessionClosed(closedSession("s2", category.TimeWasting, baseTime.Add(30*time.Minute), time.Minute))
	a.OnSessionClosed(closedSession("s3", category.Productive, baseTime.Add(31*time.Minute), 10*time.Minute))

	st := a.State()
	if st.CurrentStreak != 10*time.Minute {
		t.Errorf("expected rebuilt streak 10m, got %s", st.CurrentStreak)
	}
	if st.LongestStreak != 30*time.Minute {
		t.Errorf("expected longest to stay 30m, got %s", st.LongestStreak)
	}
	if st.Distractions != 0 {
		t.Errorf("sub-threshold time-wasting must not count, got %d", st.Distractions)
	}
}

func TestNeutralSessionLeavesStreakAlone(t *testing.T) {
	a := NewAnalyzer(15 * time.Minute)

	a.OnSessionClosed(closedSession("s1", category.Productive, baseTime, 20*time.Minute))
	a.OnSessionClosed(closedSession("s2", category.Neutral, baseTime.Add(20*time.Minute), 10*time.Minute))

	st := a.State()
	if st.CurrentStreak != 20*time.Minute {
		t.Errorf("neutral must not change the streak, got %s", st.CurrentStreak)
	}
	if st.NeutralTime != 10*time.Minute {
		t.Errorf("expected neutral time 10m, got %s", st.NeutralTime)
	}
	if st.Distractions != 0 {
		t.Errorf("neutral must not count as distraction, got %d", st.Distractions)
	}
}

func TestTickCreditsOpenSessionOnce(t *testing.T) {
	a := NewAnalyzer(15 * time.Minute)

	open := &Session{
		ID:        "s1",
		App:       "vscode",
		Category:  category.Productive,
		StartedAt: baseTime,
		LastSeen:  baseTime,
	}

	// Ticks while the session grows
	for i := 1; i <= 10; i++ {
		open.LastSeen = baseTime.Add(time.Duration(i) * time.Minute)
		a.OnTick(open, open.LastSeen)
	}
	if st := a.State(); st.CurrentStreak != 10*time.Minute {
		t.Fatalf("expected streak 10m after ticks, got %s", st.CurrentStreak)
	}

	// Closing the same session must not double-count the credited part
	open.EndedAt = baseTime.Add(12 * time.Minute)
	open.LastSeen = open.EndedAt
	a.OnSessionClosed(open)

	st := a.State()
	if st.CurrentStreak != 12*time.Minute {
		t.Errorf("expected streak 12m after close, got %s", st.CurrentStreak)
	}
	if st.ProductiveTime != 12*time.Minute {
		t.Errorf("expected productive time 12m, got %s", st.ProductiveTime)
	}
}

func TestDayRolloverArchivesAndResets(t *testing.T) {
	a := NewAnalyzer(15 * time.Minute)

	a.OnSessionClosed(closedSession("s1", category.Productive, baseTime, time.Hour))
	a.OnSessionClosed(closedSession("s2", category.TimeWasting, baseTime.Add(time.Hour), 20*time.Minute))

	nextDay := baseTime.AddDate(0, 0, 1)
	arch := a.OnTick(nil, nextDay)
	if arch == nil {
		t.Fatal("expected a day archive at rollover")
	}
	if arch.Date != "2025-06-02" {
		t.Errorf("expected archived date 2025-06-02, got %s", arch.Date)
	}
	if arch.LongestStreak != time.Hour {
		t.Errorf("expected archived longest 1h, got %s", arch.LongestStreak)
	}
	if arch.Distractions != 1 {
		t.Errorf("expected archived distractions 1, got %d", arch.Distractions)
	}
	if arch.ProductiveTime != time.Hour || arch.TimeWastingTime != 20*time.Minute {
		t.Errorf("unexpected archived totals: %+v", arch)
	}

	st := a.State()
	if st.Date != "2025-06-03" {
		t.Errorf("expected new date 2025-06-03, got %s", st.Date)
	}
	if st.CurrentStreak != 0 || st.LongestStreak != 0 || st.Distractions != 0 {
		t.Errorf("expected counters reset after rollover, got %+v", st)
	}

	// Same-day ticks never archive again
	if arch := a.OnTick(nil, nextDay.Add(time.Hour)); arch != nil {
		t.Errorf("expected no archive within the same day, got %+v", arch)
	}
}

func TestSessionSpanningMidnightCreditsNewDayOnly(t *testing.T) {
	a := NewAnalyzer(15 * time.Minute)

	evening := time.Date(2025, 6, 2, 23, 50, 0, 0, time.UTC)
	open := &Session{
		ID:        "s1",
		App:       "vscode",
		Category:  category.Productive,
		StartedAt: evening,
		LastSeen:  evening,
	}

	open.LastSeen = evening.Add(5 * time.Minute)
	a.OnTick(open, open.LastSeen)

	// Tick after midnight archives the old day; only the post-midnight
	// part of the still-open session reaches the new day's streak
	open.LastSeen = evening.Add(20 * time.Minute)
	arch := a.OnTick(open, open.LastSeen)
	if arch == nil {
		t.Fatal("expected rollover archive")
	}
	if arch.LongestStreak != 5*time.Minute {
		t.Errorf("expected old day longest 5m, got %s", arch.LongestStreak)
	}

	st := a.State()
	if st.CurrentStreak != 15*time.Minute {
		t.Errorf("expected new day streak 15m, got %s", st.CurrentStreak)
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	sessions := []*Session{
		closedSession("s1", category.Productive, baseTime, 30*time.Minute),
		closedSession("s2", category.TimeWasting, baseTime.Add(30*time.Minute), 20*time.Minute),
		closedSession("s3", category.Neutral, baseTime.Add(50*time.Minute), 10*time.Minute),
		closedSession("s4", category.Productive, baseTime.Add(time.Hour), 40*time.Minute),
	}

	a := NewAnalyzer(15 * time.Minute)
	b := NewAnalyzer(15 * time.Minute)
	for _, s := range sessions {
		a.OnSessionClosed(s)
		b.OnSessionClosed(s)
	}
	if a.State() != b.State() {
		t.Errorf("replay diverged: %+v vs %+v", a.State(), b.State())
	}
}
