package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/ari/focustrack/internal/category"
)

func testRules() category.Rules {
	return category.Rules{
		Productive: category.RuleSet{
			Apps:  []string{"vscode", "terminal"},
			Sites: []string{"github.com"},
		},
		TimeWasting: category.RuleSet{
			Apps:  []string{"steam"},
			Sites: []string{"youtube.com"},
		},
		Neutral: category.RuleSet{
			Apps: []string{"slack"},
		},
	}
}

func newTestTracker(timeout time.Duration) *SessionTracker {
	return NewSessionTracker(category.NewCategorizer(testRules()), timeout)
}

func obsAt(ts time.Time, app string) Observation {
	return Observation{Timestamp: ts, App: app, Title: app + " window"}
}

var baseTime = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func TestObserveOpensSession(t *testing.T) {
	tr := newTestTracker(25 * time.Second)

	closed, err := tr.Observe(obsAt(baseTime, "vscode"))
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if closed != nil {
		t.Errorf("expected no closed session, got %v", closed)
	}

	cur, ok := tr.Current()
	if !ok {
		t.Fatal("expected an open session")
	}
	if cur.App != "vscode" {
		t.Errorf("expected app vscode, got %s", cur.App)
	}
	if cur.Category != category.Productive {
		t.Errorf("expected productive category, got %s", cur.Category)
	}
	if cur.ID == "" {
		t.Error("expected a session ID")
	}
	if !cur.Open() {
		t.Error("expected session to be open")
	}
}

func TestContinuousRunExtendsSession(t *testing.T) {
	tr := newTestTracker(25 * time.Second)

	for i := 0; i <= 300; i += 5 {
		closed, err := tr.Observe(obsAt(baseTime.Add(time.Duration(i)*time.Second), "vscode"))
		if err != nil {
			t.Fatalf("Observe at +%ds failed: %v", i, err)
		}
		if closed != nil {
			t.Fatalf("unexpected session close at +%ds", i)
		}
	}

	cur, ok := tr.Current()
	if !ok {
		t.Fatal("expected an open session")
	}
	if cur.Duration() != 300*time.Second {
		t.Errorf("expected duration 300s, got %s", cur.Duration())
	}
	if !cur.StartedAt.Equal(baseTime) {
		t.Errorf("expected start %s, got %s", baseTime, cur.StartedAt)
	}
}

func TestAppSwitchClosesAtPriorLastSeen(t *testing.T) {
	tr := newTestTracker(25 * time.Second)

	mustObserve(t, tr, obsAt(baseTime, "vscode"))
	mustObserve(t, tr, obsAt(baseTime.Add(5*time.Second), "vscode"))

	closed, err := tr.Observe(obsAt(baseTime.Add(10*time.Second), "steam"))
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if closed == nil {
		t.Fatal("expected the vscode session to close")
	}
	if closed.App != "vscode" {
		t.Errorf("expected closed app vscode, got %s", closed.App)
	}
	// The gap between last-seen and the switch belongs to neither session
	if !closed.EndedAt.Equal(baseTime.Add(5 * time.Second)) {
		t.Errorf("expected end at last-seen +5s, got %s", closed.EndedAt)
	}

	cur, ok := tr.Current()
	if !ok {
		t.Fatal("expected a new open session")
	}
	if cur.App != "steam" || cur.Category != category.TimeWasting {
		t.Errorf("expected open time-wasting steam session, got %s/%s", cur.App, cur.Category)
	}
	if !cur.StartedAt.Equal(baseTime.Add(10 * time.Second)) {
		t.Errorf("expected new session start at +10s, got %s", cur.StartedAt)
	}
	if closed.EndedAt.After(cur.StartedAt) {
		t.Error("closed session overlaps the new one")
	}
}

func TestCategoryChangeSameAppSplitsSession(t *testing.T) {
	tr := newTestTracker(25 * time.Second)

	mustObserve(t, tr, Observation{Timestamp: baseTime, App: "firefox", Site: "github.com"})
	closed, err := tr.Observe(Observation{Timestamp: baseTime.Add(5 * time.Second), App: "firefox", Site: "youtube.com"})
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if closed == nil {
		t.Fatal("expected category change to close the session")
	}
	if closed.Category != category.Productive {
		t.Errorf("expected closed productive session, got %s", closed.Category)
	}
	cur, _ := tr.Current()
	if cur.Category != category.TimeWasting {
		t.Errorf("expected open time-wasting session, got %s", cur.Category)
	}
}

func TestInactivityGapSplitsSession(t *testing.T) {
	tr := newTestTracker(25 * time.Second)

	mustObserve(t, tr, obsAt(baseTime, "vscode"))
	closed, err := tr.Observe(obsAt(baseTime.Add(26*time.Second), "vscode"))
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if closed == nil {
		t.Fatal("expected the gap to close the session")
	}
	if !closed.EndedAt.Equal(baseTime) {
		t.Errorf("expected end at the last observation, got %s", closed.EndedAt)
	}
}

func TestTickClosesIdleSession(t *testing.T) {
	tr := newTestTracker(25 * time.Second)
	mustObserve(t, tr, obsAt(baseTime, "vscode"))

	if closed := tr.Tick(baseTime.Add(10 * time.Second)); closed != nil {
		t.Errorf("tick within timeout should not close, got %v", closed)
	}

	closed := tr.Tick(baseTime.Add(25 * time.Second))
	if closed == nil {
		t.Fatal("expected tick at timeout to close the session")
	}
	if !closed.EndedAt.Equal(closed.StartedAt) {
		t.Errorf("single-observation session should end at its start, got %s", closed.EndedAt)
	}
	if closed.Duration() != 0 {
		t.Errorf("expected zero duration, got %s", closed.Duration())
	}
	if _, ok := tr.Current(); ok {
		t.Error("expected tracker to be idle after timeout close")
	}
	// The idle gap produces nothing further
	if closed := tr.Tick(baseTime.Add(60 * time.Second)); closed != nil {
		t.Errorf("idle tick should be a no-op, got %v", closed)
	}
}

func TestOutOfOrderObservationRejected(t *testing.T) {
	tr := newTestTracker(25 * time.Second)
	mustObserve(t, tr, obsAt(baseTime, "vscode"))
	mustObserve(t, tr, obsAt(baseTime.Add(10*time.Second), "vscode"))

	_, err := tr.Observe(obsAt(baseTime.Add(5*time.Second), "steam"))
	if !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}

	// The rejected observation leaves the open session intact
	cur, ok := tr.Current()
	if !ok || cur.App != "vscode" {
		t.Errorf("expected vscode session to survive the rejected observation")
	}
	if !cur.LastSeen.Equal(baseTime.Add(10 * time.Second)) {
		t.Errorf("expected last-seen unchanged, got %s", cur.LastSeen)
	}
}

func TestMalformedObservationRejected(t *testing.T) {
	tr := newTestTracker(25 * time.Second)

	cases := []struct {
		name string
		obs  Observation
	}{
		{"zero timestamp", Observation{App: "vscode"}},
		{"empty app", Observation{Timestamp: baseTime}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tr.Observe(tc.obs)
			if !errors.Is(err, ErrMalformedObservation) {
				t.Errorf("expected ErrMalformedObservation, got %v", err)
			}
		})
	}
	if _, ok := tr.Current(); ok {
		t.Error("rejected observations must not open a session")
	}
}

func TestSessionDurationNeverNegative(t *testing.T) {
	s := Session{
		StartedAt: baseTime,
		LastSeen:  baseTime.Add(-time.Second),
	}
	if d := s.Duration(); d != 0 {
		t.Errorf("expected clamped duration 0, got %s", d)
	}
}

func mustObserve(t *testing.T, tr *SessionTracker, obs Observation) {
	t.Helper()
	if _, err := tr.Observe(obs); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
}
