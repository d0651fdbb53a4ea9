package model

import "strings"

// Priority is the closed set of task priority levels.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every level from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// ParsePriority matches raw against the known levels, ignoring case and surrounding space.
func ParsePriority(raw string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	}
	return "", false
}

// NormalizePriority maps absent or unknown input to PriorityMedium.
func NormalizePriority(raw *string) Priority {
	if raw == nil {
		return PriorityMedium
	}
	if p, ok := ParsePriority(*raw); ok {
		return p
	}
	return PriorityMedium
}

// Valid reports whether p is one of the known levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Next cycles low -> medium -> high -> low.
func (p Priority) Next() Priority {
	for i, level := range Priorities {
		if level == p {
			return Priorities[(i+1)%len(Priorities)]
		}
	}
	return PriorityMedium
}
