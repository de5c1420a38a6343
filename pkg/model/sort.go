package model

import "strings"

// SortPreference decides the order tasks are presented in.
type SortPreference string

const (
	QuickFirst SortPreference = "quick-first"
	HardFirst  SortPreference = "hard-first"
)

// DefaultSortPreference is used when nothing was ever persisted.
const DefaultSortPreference = QuickFirst

// Label is the user-facing name of the preference.
func (p SortPreference) Label() string {
	switch p {
	case HardFirst:
		return "Hard Tasks First"
	default:
		return "Quick Tasks First"
	}
}

// Toggle returns the other preference.
func (p SortPreference) Toggle() SortPreference {
	if p == HardFirst {
		return QuickFirst
	}
	return HardFirst
}

// ParseSortPreference accepts the stored values as well as the short
// forms "quick" and "hard".
func ParseSortPreference(s string) (SortPreference, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(QuickFirst), "quick":
		return QuickFirst, true
	case string(HardFirst), "hard":
		return HardFirst, true
	}
	return DefaultSortPreference, false
}
