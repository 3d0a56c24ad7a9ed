package planner

import (
	"fmt"
	"roomres/pkg/model"
	"strings"
	"time"
)

type IntervalKind string

const (
	Day   IntervalKind = "day"
	Week  IntervalKind = "week"
	Month IntervalKind = "month"
)

// Offsets in days from the start date to the last day included. A month is a
// fixed 31-day window, not a calendar month.
var intervalOffsets = map[IntervalKind]int{
	Day:   0,
	Week:  6,
	Month: 30,
}

func ParseIntervalKind(s string) (IntervalKind, error) {
	kind := IntervalKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := intervalOffsets[kind]; !ok {
		return "", fmt.Errorf("unknown interval %q, expected one of: day, week, month", s)
	}
	return kind, nil
}

// EndDate returns the last day (inclusive) covered by kind starting at start.
func EndDate(start time.Time, kind IntervalKind) (time.Time, error) {
	offset, ok := intervalOffsets[kind]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown interval %q", kind)
	}
	return model.StartOfDay(start).AddDate(0, 0, offset), nil
}

// GroupByDay groups reservations by their day. Input order is kept within
// each day, so callers pass reservations already ordered by start time.
func GroupByDay(reservations []*model.Reservation) model.DaySchedule {
	schedule := make(model.DaySchedule)
	for _, r := range reservations {
		schedule[r.Day] = append(schedule[r.Day], r)
	}
	return schedule
}
