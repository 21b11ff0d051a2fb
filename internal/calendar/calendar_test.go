package calendar

import (
	"strings"
	"testing"
	"time"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:single-1
SUMMARY:Maria - Pian Andrei
DTSTART:20260203T100000Z
DTEND:20260203T110000Z
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
SUMMARY:Sala repetitie - 2 ore for The Band
DTSTART:20260204T180000Z
DTEND:20260204T200000Z
RRULE:FREQ=WEEKLY;COUNT=4
END:VEVENT
END:VCALENDAR
`

func TestParseFeed(t *testing.T) {
	src := Source{ID: "room-a", URL: "https://example.com/a.ics"}

	events, err := parseFeed(src, []byte(sampleFeed))
	if err != nil {
		t.Fatalf("parseFeed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	single := events[0]
	if single.UID != "single-1" || single.Summary != "Maria - Pian Andrei" {
		t.Errorf("single event = %+v", single)
	}
	if single.AllDay {
		t.Error("timed event flagged all-day")
	}
	if single.RawRRule != "" {
		t.Errorf("single event RawRRule = %q, want empty", single.RawRRule)
	}

	recurring := events[1]
	if !strings.Contains(recurring.RawRRule, "FREQ=WEEKLY") {
		t.Errorf("recurring RawRRule = %q", recurring.RawRRule)
	}
}

func TestParseFeedEmptyBody(t *testing.T) {
	if _, err := parseFeed(Source{ID: "x"}, nil); err == nil {
		t.Fatal("empty body should fail")
	}
}

func TestParseICSTime(t *testing.T) {
	got, err := parseICSTime("20260203T100000Z")
	if err != nil {
		t.Fatalf("parseICSTime: %v", err)
	}
	want := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := parseICSTime(""); err == nil {
		t.Error("empty value should fail")
	}

	got, err = parseICSTime("20260203")
	if err != nil {
		t.Fatalf("date-only: %v", err)
	}
	if got.Year() != 2026 || got.Month() != 2 || got.Day() != 3 {
		t.Errorf("date-only parsed to %v", got)
	}
}

func TestExpandEventsRecurring(t *testing.T) {
	loc := time.UTC
	src := Source{ID: "room-a"}

	events, err := parseFeed(src, []byte(sampleFeed))
	if err != nil {
		t.Fatal(err)
	}

	rangeStart := time.Date(2026, 2, 1, 0, 0, 0, 0, loc)
	rangeEnd := time.Date(2026, 2, 28, 23, 59, 59, 0, loc)

	out := expandEvents(events, loc, rangeStart, rangeEnd)

	// 1 single + 4 weekly occurrences, all in February.
	if len(out) != 5 {
		t.Fatalf("got %d events, want 5", len(out))
	}
	if out[0].Title != "Maria - Pian Andrei" {
		t.Errorf("first event = %q", out[0].Title)
	}
	first := out[1].Start.Resolve(loc)
	last := out[4].Start.Resolve(loc)
	if !first.Equal(time.Date(2026, 2, 4, 18, 0, 0, 0, loc)) {
		t.Errorf("first occurrence = %v", first)
	}
	if !last.Equal(time.Date(2026, 2, 25, 18, 0, 0, 0, loc)) {
		t.Errorf("last occurrence = %v", last)
	}
	for _, ev := range out {
		if ev.SourceID != "room-a" {
			t.Errorf("SourceID = %q, want room-a", ev.SourceID)
		}
	}
}

func TestExpandEventsRangeFilter(t *testing.T) {
	loc := time.UTC
	events, err := parseFeed(Source{ID: "room-a"}, []byte(sampleFeed))
	if err != nil {
		t.Fatal(err)
	}

	// A March window: the single February event drops, the weekly rule has
	// no occurrences left (COUNT=4 ends in February).
	rangeStart := time.Date(2026, 3, 1, 0, 0, 0, 0, loc)
	rangeEnd := time.Date(2026, 3, 31, 23, 59, 59, 0, loc)

	out := expandEvents(events, loc, rangeStart, rangeEnd)
	if len(out) != 0 {
		t.Fatalf("got %d events, want 0 outside the window", len(out))
	}
}

func TestExpandEventsExDate(t *testing.T) {
	feed := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:weekly-2
SUMMARY:Sala repetitie - 2 ore for The Band
DTSTART:20260204T180000Z
DTEND:20260204T200000Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20260211T180000Z
END:VEVENT
END:VCALENDAR
`
	loc := time.UTC
	events, err := parseFeed(Source{ID: "room-a"}, []byte(feed))
	if err != nil {
		t.Fatal(err)
	}

	out := expandEvents(events, loc,
		time.Date(2026, 2, 1, 0, 0, 0, 0, loc),
		time.Date(2026, 2, 28, 23, 59, 59, 0, loc))

	if len(out) != 3 {
		t.Fatalf("got %d occurrences, want 3 after EXDATE", len(out))
	}
	excluded := time.Date(2026, 2, 11, 18, 0, 0, 0, loc)
	for _, ev := range out {
		if ev.Start.Resolve(loc).Equal(excluded) {
			t.Errorf("excluded occurrence %v still present", excluded)
		}
	}
}

func TestExpandEventsAllDay(t *testing.T) {
	feed := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//test//EN
BEGIN:VEVENT
UID:allday-1
SUMMARY:Ziua portilor deschise
DTSTART;VALUE=DATE:20260207
DTEND;VALUE=DATE:20260208
END:VEVENT
END:VCALENDAR
`
	loc := time.UTC
	events, err := parseFeed(Source{ID: "room-a"}, []byte(feed))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || !events[0].AllDay {
		t.Fatalf("all-day event not detected: %+v", events)
	}

	out := expandEvents(events, loc,
		time.Date(2026, 2, 1, 0, 0, 0, 0, loc),
		time.Date(2026, 2, 28, 23, 59, 59, 0, loc))

	if len(out) != 1 {
		t.Fatalf("got %d events, want 1", len(out))
	}
	if out[0].Start.Date != "2026-02-07" {
		t.Errorf("all-day start = %q, want date-only 2026-02-07", out[0].Start.Date)
	}
	if !out[0].Start.DateTime.IsZero() {
		t.Error("all-day event must not carry a DateTime")
	}
}
