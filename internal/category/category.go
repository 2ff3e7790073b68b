package category

import "strings"

// Category classifies a session by how the time was spent
type Category string

const (
	Productive  Category = "productive"
	Neutral     Category = "neutral"
	TimeWasting Category = "time_wasting"
)

// RuleSet holds the match patterns for one category. Patterns are matched
// case-insensitively; a pattern matches when it equals the field or is a
// substring of it.
type RuleSet struct {
	Sites  []string
	Apps   []string
	Titles []string
}

// Empty reports whether the rule set contains no patterns
func (r RuleSet) Empty() bool {
	return len(r.Sites) == 0 && len(r.Apps) == 0 && len(r.Titles) == 0
}

// Rules holds the rule sets for all three categories
type Rules struct {
	Productive  RuleSet
	Neutral     RuleSet
	TimeWasting RuleSet
}

// Empty reports whether no category has any patterns
func (r Rules) Empty() bool {
	return r.Productive.Empty() && r.Neutral.Empty() && r.TimeWasting.Empty()
}

// Activity is the subset of an observation the categorizer looks at
type Activity struct {
	App   string
	Title string
	Site  string
}

// Categorizer maps an activity to a category using configured rule sets.
// Matching is deterministic: site rules are checked first, then app rules,
// then window-title keywords, with productive rules winning over
// time-wasting and time-wasting over neutral within each stage. Anything
// unmatched is Neutral.
type Categorizer struct {
	rules Rules
}

// NewCategorizer creates a categorizer for the given rules
func NewCategorizer(rules Rules) *Categorizer {
	return &Categorizer{rules: rules}
}

// Categorize returns the category for an activity
func (c *Categorizer) Categorize(a Activity) Category {
	if a.Site != "" {
		if cat, ok := c.matchStage(a.Site, func(r RuleSet) []string { return r.Sites }); ok {
			return cat
		}
	}
	if cat, ok := c.matchStage(a.App, func(r RuleSet) []string { return r.Apps }); ok {
		return cat
	}
	if cat, ok := c.matchStage(a.Title, func(r RuleSet) []string { return r.Titles }); ok {
		return cat
	}
	return Neutral
}

// matchStage checks one field against the same pattern list of every
// category, in fixed priority order
func (c *Categorizer) matchStage(value string, patterns func(RuleSet) []string) (Category, bool) {
	if value == "" {
		return Neutral, false
	}
	ordered := []struct {
		cat   Category
		rules RuleSet
	}{
		{Productive, c.rules.Productive},
		{TimeWasting, c.rules.TimeWasting},
		{Neutral, c.rules.Neutral},
	}
	for _, entry := range ordered {
		if matchAny(patterns(entry.rules), value) {
			return entry.cat, true
		}
	}
	return Neutral, false
}

// matchAny reports whether any pattern matches the value, case-insensitively
func matchAny(patterns []string, value string) bool {
	lower := strings.ToLower(value)
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if p == lower || strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
