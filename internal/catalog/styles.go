package catalog

import "maps"

// DefaultFallbackStyle is used for categories without a configured style
const DefaultFallbackStyle = "var(--hover-bg)"

// defaultStyles maps category names to the CSS background of their card
var defaultStyles = map[string]string{
	"English": "linear-gradient(135deg, #6a5acd, #00bfff)",
	"Hindi":   "linear-gradient(45deg, #FFA726, #FB8C00)",
	"Tamil":   "#7E57C2",
	"Kannada": "#29B6F6",
	"Love":    "linear-gradient(to right, #cc2b5e, #753a88)",
	"Workout": "url(/static/images/workout-bg.jpg) center/cover",
}

// Styles resolves category names to display styles
type Styles struct {
	byName   map[string]string
	fallback string
}

// NewStyles layers overrides on top of the built-in table. An empty
// fallback selects DefaultFallbackStyle.
func NewStyles(overrides map[string]string, fallback string) *Styles {
	byName := maps.Clone(defaultStyles)
	maps.Copy(byName, overrides)
	if fallback == "" {
		fallback = DefaultFallbackStyle
	}
	return &Styles{byName: byName, fallback: fallback}
}

// For returns the style for a category name
func (s *Styles) For(name string) string {
	if style, ok := s.byName[name]; ok {
		return style
	}
	return s.fallback
}
