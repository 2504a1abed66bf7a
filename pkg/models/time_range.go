package models

import "time"

// TimeRange is a closed interval [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r TimeRange) String() string {
	return r.Start.Format(time.RFC3339) + ".." + r.End.Format(time.RFC3339)
}

// Contains reports whether the validity window [start, end] lies entirely within r.
// Overlap is not enough, and an open (nil) bound is never contained.
func (r TimeRange) Contains(start, end *time.Time) bool {
	if start == nil || end == nil {
		return false
	}
	return !start.Before(r.Start) && !end.After(r.End)
}
