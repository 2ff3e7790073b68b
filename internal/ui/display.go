package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ari/focustrack/internal/category"
	"github.com/ari/focustrack/internal/tracker"
)

// ANSI color codes
const (
	ColorReset   = "\033[0m"
	ColorRed     = "\033[31m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorBlue    = "\033[34m"
	ColorCyan    = "\033[36m"
	ColorMagenta = "\033[35m"
	ColorBold    = "\033[1m"
)

// FormatDuration formats seconds into a human-readable duration
func FormatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	d := time.Duration(seconds) * time.Second
	h := d.Hours()
	if h >= 1 {
		return fmt.Sprintf("%.1fh", h)
	}
	m := d.Minutes()
	return fmt.Sprintf("%.1fm", m)
}

// FormatDateTime formats a Unix timestamp into a human-readable datetime
func FormatDateTime(timestamp int64) string {
	if timestamp == 0 {
		return "-"
	}
	t := time.Unix(timestamp, 0)
	return t.Format("2006-01-02 15:04")
}

// FormatScore renders a focus score with a color keyed to its range
func FormatScore(score int) string {
	color := ColorYellow
	switch {
	case score >= 70:
		color = ColorGreen
	case score < 40:
		color = ColorRed
	}
	return fmt.Sprintf("%s%s%d/100%s", ColorBold, color, score, ColorReset)
}

// FormatCategory renders a category label with its color
func FormatCategory(c category.Category) string {
	switch c {
	case category.Productive:
		return ColorGreen + "productive" + ColorReset
	case category.TimeWasting:
		return ColorRed + "time-wasting" + ColorReset
	default:
		return ColorYellow + "neutral" + ColorReset
	}
}

// TrendArrow maps a trend label to its display arrow
func TrendArrow(trend string) string {
	switch trend {
	case tracker.TrendUp:
		return ColorGreen + "↑" + ColorReset
	case tracker.TrendDown:
		return ColorRed + "↓" + ColorReset
	default:
		return "→"
	}
}

// DisplayTodayStats displays the current day's focus summary
func DisplayTodayStats(stats tracker.TodayStats, current *tracker.Session) {
	fmt.Printf("\n%sFocus Statistics - %s%s\n", ColorBold, stats.Date, ColorReset)
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n%s%sFocus Score%s\n", ColorBold, ColorBlue, ColorReset)
	fmt.Printf("  Score:          %s\n", FormatScore(stats.Score))
	fmt.Printf("  Current Streak: %s\n", FormatDuration(int64(stats.CurrentStreak.Seconds())))
	fmt.Printf("  Longest Streak: %s\n", FormatDuration(int64(stats.LongestStreak.Seconds())))
	fmt.Printf("  Distractions:   %d\n", stats.Distractions)

	fmt.Printf("\n%s%sTime Breakdown%s\n", ColorBold, ColorMagenta, ColorReset)
	fmt.Printf("  Productive:     %s\n", FormatDuration(int64(stats.ProductiveTime.Seconds())))
	fmt.Printf("  Neutral:        %s\n", FormatDuration(int64(stats.NeutralTime.Seconds())))
	fmt.Printf("  Time-Wasting:   %s\n", FormatDuration(int64(stats.TimeWastingTime.Seconds())))
	fmt.Printf("  Total Active:   %s\n", FormatDuration(int64(stats.TotalActive.Seconds())))
	fmt.Printf("  Sessions:       %d\n", stats.Sessions)

	fmt.Printf("\n%s%sCurrent Session%s\n", ColorBold, ColorCyan, ColorReset)
	if current != nil {
		fmt.Printf("  App:      %s\n", current.App)
		if current.Site != "" {
			fmt.Printf("  Site:     %s\n", current.Site)
		}
		fmt.Printf("  Category: %s\n", FormatCategory(current.Category))
		fmt.Printf("  Duration: %s\n", FormatDuration(int64(current.Duration().Seconds())))
	} else {
		fmt.Printf("  %sNo active session%s\n", ColorYellow, ColorReset)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

// DisplayTrend displays the score trend with a bar per day
func DisplayTrend(points []tracker.TrendPoint, cmp tracker.Comparison) {
	fmt.Printf("\n%sFocus Score Trend (last %d days)%s\n", ColorBold, len(points), ColorReset)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println()

	for _, p := range points {
		bar := strings.Repeat("█", p.Score/4)
		color := ColorYellow
		switch {
		case p.Score >= 70:
			color = ColorGreen
		case p.Score < 40:
			color = ColorRed
		}
		fmt.Printf("  %-12s %s%-25s%s %3d\n", p.Date, color, bar, ColorReset, p.Score)
	}

	fmt.Printf("\n  Today vs yesterday: %d vs %d %s (%+d)\n",
		cmp.Today, cmp.Yesterday, TrendArrow(cmp.Trend), cmp.Diff)
	fmt.Println("\n" + strings.Repeat("=", 60))
}

// DisplaySessions displays recorded sessions, newest first
func DisplaySessions(sessions []tracker.SessionRow) {
	fmt.Printf("\n%sRecorded Sessions%s\n", ColorBold, ColorReset)
	fmt.Println(strings.Repeat("=", 60))

	if len(sessions) == 0 {
		fmt.Printf("\n  %sNo sessions recorded%s\n", ColorYellow, ColorReset)
		fmt.Println("\n" + strings.Repeat("=", 60))
		return
	}

	fmt.Printf("\n  %-17s %-20s %-22s %10s\n", "Start", "App", "Category", "Duration")
	fmt.Printf("  %s\n", strings.Repeat("-", 56))
	for _, s := range sessions {
		app := s.App
		if s.Site != "" {
			app = s.App + " (" + s.Site + ")"
		}
		if len(app) > 20 {
			app = app[:17] + "..."
		}
		fmt.Printf("  %-17s %-20s %-22s %10s\n",
			FormatDateTime(s.StartedAt),
			app,
			FormatCategory(category.Category(s.Category)),
			FormatDuration(s.DurationSeconds))
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}

// DisplayNudge prints a nudge to the terminal
func DisplayNudge(n *tracker.Nudge) {
	color := ColorCyan
	switch n.Kind {
	case tracker.NudgeWarning:
		color = ColorRed
	case tracker.NudgeBreak:
		color = ColorYellow
	case tracker.NudgeEncouragement:
		color = ColorGreen
	}
	fmt.Printf("\n%s%s[%s]%s %s\n", ColorBold, color, n.Title, ColorReset, n.Message)
	if n.SuggestedAction != "" {
		fmt.Printf("  suggested: %s\n", n.SuggestedAction)
	}
}

// DisplayDayReport prints the end-of-day summary emitted at rollover
func DisplayDayReport(arch tracker.DayArchive, score int) {
	fmt.Printf("\n%sDaily Report - %s%s\n", ColorBold, arch.Date, ColorReset)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  Final Score:    %s\n", FormatScore(score))
	fmt.Printf("  Longest Streak: %s\n", FormatDuration(int64(arch.LongestStreak.Seconds())))
	fmt.Printf("  Distractions:   %d\n", arch.Distractions)
	fmt.Printf("  Productive:     %s\n", FormatDuration(int64(arch.ProductiveTime.Seconds())))
	fmt.Printf("  Neutral:        %s\n", FormatDuration(int64(arch.NeutralTime.Seconds())))
	fmt.Printf("  Time-Wasting:   %s\n", FormatDuration(int64(arch.TimeWastingTime.Seconds())))
	fmt.Println(strings.Repeat("=", 60))
}

// Error displays an error message
func Error(msg string) {
	fmt.Fprintf(os.Stderr, "%sError: %s%s\n", ColorRed, msg, ColorReset)
}
