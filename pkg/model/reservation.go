package model

import "time"

// DateLayout is the calendar-day format used for Reservation.Day and as the
// key of a DaySchedule. Lexical order of formatted days equals chronological order.
const DateLayout = "2006-01-02"

const DefaultTitle = "Reserved"

type Reservation struct {
	ID          int64     `json:"id" bson:"_id"`
	Resource    string    `json:"resource" bson:"resource"`
	Day         string    `json:"day" bson:"day"`
	StartTime   time.Time `json:"start_time" bson:"start_time"`
	EndTime     time.Time `json:"end_time" bson:"end_time"`
	ReservedBy  string    `json:"reserved_by" bson:"reserved_by"`
	RequesterID string    `json:"requester_id" bson:"requester_id"`
	Title       string    `json:"title" bson:"title"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

func (r *Reservation) Interval() Interval {
	return Interval{Start: r.StartTime, End: r.EndTime}
}

// ReserveRequest is the inbound payload of a reservation. Start before end is
// checked by the admission worker and reported as INVALID_RANGE.
type ReserveRequest struct {
	Resource  string    `json:"-" validate:"required,resource_name"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	Title     string    `json:"title" validate:"omitempty,max=200"`
}

// DaySchedule groups reservations by calendar day (DateLayout keys). Each
// slice is ordered by start time.
type DaySchedule map[string][]*Reservation

type Interval struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the calendar day of t in UTC.
func DayOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// StartOfDay returns midnight UTC of the day containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// StoredTime returns t in UTC at the millisecond precision BSON dates keep.
func StoredTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// ParseDay parses a DateLayout string into midnight UTC.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
