package model

import "time"

// EventTime mirrors the calendar wire shape for an event boundary: either a
// concrete instant (DateTime) or a date-only value for all-day bookings.
// DateTime takes precedence when both are set.
type EventTime struct {
	DateTime time.Time `json:"dateTime,omitempty"`
	Date     string    `json:"date,omitempty"` // "2006-01-02"
}

// IsZero reports whether neither field is set.
func (t EventTime) IsZero() bool {
	return t.DateTime.IsZero() && t.Date == ""
}

// Resolve returns the best-available instant for this boundary in loc.
// Returns the zero time if neither field is set or the date is malformed.
func (t EventTime) Resolve(loc *time.Location) time.Time {
	if !t.DateTime.IsZero() {
		return t.DateTime
	}
	if t.Date == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation("2006-01-02", t.Date, loc)
	if err != nil {
		return time.Time{}
	}
	return d
}

// RawEvent is one calendar event as delivered by a calendar source.
// Immutable input; everything else in this module is derived from it.
type RawEvent struct {
	SourceID string    `json:"sourceId,omitempty"`
	Title    string    `json:"summary"`
	Start    EventTime `json:"start"`
	End      EventTime `json:"end"`
}

// Session is a RawEvent with its resolved start instant and duration attached.
type Session struct {
	Event         RawEvent  `json:"event"`
	Start         time.Time `json:"start"`
	DurationHours float64   `json:"duration"`
}

// Title returns the session's original event title.
func (s Session) Title() string {
	return s.Event.Title
}

// NewSession resolves the event's timestamps in loc and derives its duration.
// Duration is (end - start) in hours, 0 if either endpoint is absent.
// A negative duration from malformed input is surfaced as-is so it stays
// visible in reports.
func NewSession(ev RawEvent, loc *time.Location) Session {
	s := Session{Event: ev}
	s.Start = ev.Start.Resolve(loc)
	s.DurationHours = Duration(ev, loc)
	return s
}

// NewSessions converts a batch of raw events.
func NewSessions(events []RawEvent, loc *time.Location) []Session {
	out := make([]Session, 0, len(events))
	for _, ev := range events {
		out = append(out, NewSession(ev, loc))
	}
	return out
}

// Duration returns the event length in hours, 0 if either endpoint is absent.
func Duration(ev RawEvent, loc *time.Location) float64 {
	start := ev.Start.Resolve(loc)
	end := ev.End.Resolve(loc)
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start).Hours()
}
