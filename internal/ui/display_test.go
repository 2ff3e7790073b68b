package ui

import (
	"strings"
	"testing"

	"github.com/ari/focustrack/internal/category"
	"github.com/ari/focustrack/internal/tracker"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0s"},
		{30, "30s"},
		{60, "1.0m"},
		{90, "1.5m"},
		{3600, "1.0h"},
		{3660, "1.0h"},
		{5400, "1.5h"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := FormatDuration(tt.input)
			if result != tt.expected {
				t.Errorf("FormatDuration(%d) = %s; want %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatDateTime(t *testing.T) {
	if result := FormatDateTime(0); result != "-" {
		t.Errorf("FormatDateTime(0) = %s; want -", result)
	}
	if result := FormatDateTime(1748857200); result == "-" {
		t.Errorf("expected a formatted datetime, got %s", result)
	}
}

func TestFormatScoreColors(t *testing.T) {
	tests := []struct {
		score int
		color string
	}{
		{85, ColorGreen},
		{50, ColorYellow},
		{20, ColorRed},
	}
	for _, tt := range tests {
		result := FormatScore(tt.score)
		if !strings.Contains(result, tt.color) {
			t.Errorf("FormatScore(%d) = %q; expected color %q", tt.score, result, tt.color)
		}
	}
}

func TestFormatCategory(t *testing.T) {
	tests := []struct {
		cat  category.Category
		want string
	}{
		{category.Productive, "productive"},
		{category.Neutral, "neutral"},
		{category.TimeWasting, "time-wasting"},
	}
	for _, tt := range tests {
		if result := FormatCategory(tt.cat); !strings.Contains(result, tt.want) {
			t.Errorf("FormatCategory(%s) = %q; expected %q", tt.cat, result, tt.want)
		}
	}
}

func TestTrendArrow(t *testing.T) {
	tests := []struct {
		trend string
		want  string
	}{
		{tracker.TrendUp, "↑"},
		{tracker.TrendDown, "↓"},
		{tracker.TrendFlat, "→"},
	}
	for _, tt := range tests {
		if result := TrendArrow(tt.trend); !strings.Contains(result, tt.want) {
			t.Errorf("TrendArrow(%s) = %q; expected %q", tt.trend, result, tt.want)
		}
	}
}
