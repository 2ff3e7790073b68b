package tracker

import (
	"math"
	"time"

	"github.com/ari/focustrack/internal/category"
)

// DefaultScore is reported for a window with no recorded time. 50 avoids a
// division by zero and avoids falsely reporting 0 when there is simply no
// data.
const DefaultScore = 50

// categoryWeight maps a category to its score weight
func categoryWeight(c category.Category) float64 {
	switch c {
	case category.Productive:
		return 100
	case category.TimeWasting:
		return 0
	default:
		return 50
	}
}

// TrendPoint is one day in a score trend
type TrendPoint struct {
	Date  string
	Score int
}

// Trend direction labels
const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

// Comparison relates today's score to yesterday's
type Comparison struct {
	Today     int
	Yesterday int
	Diff      int
	Trend     string
}

// Scorer computes the 0-100 focus score. Recent sessions get a recency
// boost that decays exponentially with the configured half-life; the boost
// scales a session's share of the weighted average, so the output range
// stays 0-100 regardless of the curve.
type Scorer struct {
	halfLife time.Duration
	flatBand int
}

// NewScorer creates a scorer. flatBand is the |diff| below which a
// day-over-day comparison reads as flat.
func NewScorer(halfLife time.Duration, flatBand int) *Scorer {
	return &Scorer{halfLife: halfLife, flatBand: flatBand}
}

// Score computes the weighted score for a window of sessions evaluated at
// now. An empty or zero-duration window yields DefaultScore.
func (sc *Scorer) Score(sessions []Session, now time.Time) int {
	var num, den float64
	for i := range sessions {
		s := &sessions[i]
		d := s.Duration().Seconds()
		if d <= 0 {
			continue
		}
		boost := sc.recencyBoost(s, now)
		num += categoryWeight(s.Category) * d * boost
		den += d * boost
	}
	if den == 0 {
		return DefaultScore
	}
	return clampScore(int(math.Round(num / den)))
}

// recencyBoost returns the influence multiplier for a session, 2.0 at zero
// age decaying toward 1.0. Monotonic non-increasing with age.
func (sc *Scorer) recencyBoost(s *Session, now time.Time) float64 {
	end := s.EndedAt
	if s.Open() {
		end = s.LastSeen
	}
	age := now.Sub(end)
	if age < 0 {
		age = 0
	}
	return 1 + math.Exp2(-age.Hours()/sc.halfLife.Hours())
}

// ScoreFromTotals computes a plain (non-recency-weighted) score from daily
// per-category totals, as stored in score samples.
func ScoreFromTotals(productive, neutral, timeWasting time.Duration) int {
	p := productive.Seconds()
	n := neutral.Seconds()
	w := timeWasting.Seconds()
	total := p + n + w
	if total <= 0 {
		return DefaultScore
	}
	return clampScore(int(math.Round((100*p + 50*n + 0*w) / total)))
}

// Compare relates today's score to yesterday's with the flat band applied
func (sc *Scorer) Compare(today, yesterday int) Comparison {
	diff := today - yesterday
	trend := TrendFlat
	switch {
	case diff >= sc.flatBand && diff != 0:
		trend = TrendUp
	case -diff >= sc.flatBand && diff != 0:
		trend = TrendDown
	}
	return Comparison{Today: today, Yesterday: yesterday, Diff: diff, Trend: trend}
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
