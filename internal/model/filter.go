package model

import (
	"strings"
	"time"
)

// FilterSpec is the sidebar selection: an inclusive date range plus platform
// and state multi-selects. Every field is optional; a nil or empty field means
// no restriction on that dimension.
type FilterSpec struct {
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	Platforms []string   `json:"platforms,omitempty"`
	States    []string   `json:"states,omitempty"`
}

// MatchDate reports whether d falls inside the inclusive [Start, End] range.
func (f FilterSpec) MatchDate(d time.Time) bool {
	if f.Start != nil && d.Before(Day(*f.Start)) {
		return false
	}
	if f.End != nil && d.After(Day(*f.End)) {
		return false
	}
	return true
}

// MatchPlatform reports whether platform is selected. Comparison is
// case-insensitive.
func (f FilterSpec) MatchPlatform(platform string) bool {
	return matchSet(f.Platforms, platform)
}

// MatchState reports whether state is selected. Comparison is case-insensitive.
func (f FilterSpec) MatchState(state string) bool {
	return matchSet(f.States, state)
}

func matchSet(selected []string, v string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
