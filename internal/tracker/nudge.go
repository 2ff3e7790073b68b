package tracker

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ari/focustrack/internal/category"
)

// NudgeKind identifies a nudge rule. Cooldowns apply per kind.
type NudgeKind string

const (
	NudgeWarning       NudgeKind = "warning"
	NudgeBreak         NudgeKind = "break"
	NudgeEncouragement NudgeKind = "encouragement"
	NudgeTip           NudgeKind = "tip"
)

// Nudge is a single behavioral prompt. It is transient; the core never
// persists it.
type Nudge struct {
	Kind            NudgeKind
	Title           string
	Message         string
	SuggestedAction string
	EmittedAt       time.Time
}

// NudgeConfig holds the rule thresholds and the tip list
type NudgeConfig struct {
	TimeWastingThreshold  time.Duration
	BreakReminderInterval time.Duration
	FocusSessionMin       time.Duration
	Cooldown              time.Duration
	TipInterval           time.Duration
	Tips                  []string
}

var warningTemplates = []string{
	"You've been on %s for %s. Ready to get back to work?",
	"Time flies! %s has had your attention for %s. Let's refocus?",
	"%s again? That's %s now. How about switching to something productive?",
}

var breakTemplates = []string{
	"You've been working for %s. Time for a quick break!",
	"Great focus! %s of solid work. Take a 5-minute break to recharge.",
	"Your eyes need rest after %s. Look away from the screen for a few minutes.",
}

var encouragementTemplates = []string{
	"Amazing focus session! You've been productive for %s. Keep it up!",
	"You've been in the zone for %s. Keep that momentum going!",
	"%s of continuous focus. You're on fire!",
}

// NudgeEngine evaluates the current state against the nudge rules and emits
// at most one nudge per evaluation, highest priority first. The only state
// it keeps across ticks is the per-kind last-emitted timestamp for cooldown
// suppression and the last encouragement milestone.
type NudgeEngine struct {
	cfg           NudgeConfig
	rng           *rand.Rand
	lastEmitted   map[NudgeKind]time.Time
	lastMilestone int
}

// NewNudgeEngine creates an engine. rng selects tips and message templates;
// pass a seeded source for deterministic tests, or nil for a time-seeded
// one.
func NewNudgeEngine(cfg NudgeConfig, rng *rand.Rand) *NudgeEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &NudgeEngine{
		cfg:         cfg,
		rng:         rng,
		lastEmitted: make(map[NudgeKind]time.Time),
	}
}

// Evaluate applies the rules in priority order: time-check warning, break
// reminder, encouragement, focus tip. Returns nil when no rule fires, which
// is the normal outcome for most ticks.
func (e *NudgeEngine) Evaluate(now time.Time, open *Session, streak StreakState) *Nudge {
	if n := e.checkWarning(now, open); n != nil {
		return n
	}
	if n := e.checkBreak(now, open); n != nil {
		return n
	}
	if n := e.checkEncouragement(now, streak); n != nil {
		return n
	}
	return e.checkTip(now)
}

func (e *NudgeEngine) checkWarning(now time.Time, open *Session) *Nudge {
	if open == nil || open.Category != category.TimeWasting {
		return nil
	}
	if open.Duration() < e.cfg.TimeWastingThreshold || !e.ready(NudgeWarning, now) {
		return nil
	}
	tmpl := warningTemplates[e.rng.Intn(len(warningTemplates))]
	return e.emit(NudgeWarning, now, &Nudge{
		Kind:            NudgeWarning,
		Title:           "Time Check",
		Message:         fmt.Sprintf(tmpl, open.App, formatDuration(open.Duration())),
		SuggestedAction: "focus_mode",
	})
}

func (e *NudgeEngine) checkBreak(now time.Time, open *Session) *Nudge {
	if open == nil || open.Category != category.Productive {
		return nil
	}
	if open.Duration() < e.cfg.BreakReminderInterval || !e.ready(NudgeBreak, now) {
		return nil
	}
	tmpl := breakTemplates[e.rng.Intn(len(breakTemplates))]
	return e.emit(NudgeBreak, now, &Nudge{
		Kind:            NudgeBreak,
		Title:           "Break Reminder",
		Message:         fmt.Sprintf(tmpl, formatDuration(open.Duration())),
		SuggestedAction: "take_break",
	})
}

func (e *NudgeEngine) checkEncouragement(now time.Time, streak StreakState) *Nudge {
	if e.cfg.FocusSessionMin <= 0 {
		return nil
	}
	milestone := int(streak.CurrentStreak / e.cfg.FocusSessionMin)
	if milestone < e.lastMilestone {
		// Streak was reset; future crossings fire again
		e.lastMilestone = milestone
	}
	if milestone <= e.lastMilestone || !e.ready(NudgeEncouragement, now) {
		return nil
	}
	e.lastMilestone = milestone
	tmpl := encouragementTemplates[e.rng.Intn(len(encouragementTemplates))]
	return e.emit(NudgeEncouragement, now, &Nudge{
		Kind:    NudgeEncouragement,
		Title:   "Focus Milestone",
		Message: fmt.Sprintf(tmpl, formatDuration(streak.CurrentStreak)),
	})
}

func (e *NudgeEngine) checkTip(now time.Time) *Nudge {
	if len(e.cfg.Tips) == 0 {
		return nil
	}
	last, ok := e.lastEmitted[NudgeTip]
	if ok && now.Sub(last) < e.cfg.TipInterval {
		return nil
	}
	return e.emit(NudgeTip, now, &Nudge{
		Kind:    NudgeTip,
		Title:   "Focus Tip",
		Message: e.cfg.Tips[e.rng.Intn(len(e.cfg.Tips))],
	})
}

// ready reports whether the per-kind cooldown has elapsed
func (e *NudgeEngine) ready(kind NudgeKind, now time.Time) bool {
	last, ok := e.lastEmitted[kind]
	return !ok || now.Sub(last) >= e.cfg.Cooldown
}

func (e *NudgeEngine) emit(kind NudgeKind, now time.Time, n *Nudge) *Nudge {
	e.lastEmitted[kind] = now
	n.EmittedAt = now
	return n
}

// formatDuration renders a duration for nudge messages
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%d minutes", m)
}
