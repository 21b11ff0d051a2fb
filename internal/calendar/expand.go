package calendar

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "lessoncal/internal/log"
	"lessoncal/internal/model"
)

// maxOccurrencesPerEvent caps recurrence expansion so a malformed RRULE
// cannot blow up a report request.
const maxOccurrencesPerEvent = 5000

// expandEvents turns parsed feed events into concrete RawEvents inside
// [rangeStart, rangeEnd], expanding RRULE recurrences, honoring EXDATE and
// RECURRENCE-ID overrides, and normalizing into loc.
func expandEvents(events []parsedEvent, loc *time.Location, rangeStart, rangeEnd time.Time) []model.RawEvent {
	if loc == nil {
		loc = time.Local
	}

	baseByUID := make(map[string][]parsedEvent)
	overridesByUID := make(map[string][]parsedEvent)
	uidOrder := make([]string, 0)

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uidOrder = append(uidOrder, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	out := make([]model.RawEvent, 0, len(events))
	for _, uid := range uidOrder {
		for _, ev := range baseByUID[uid] {
			out = append(out, expandOne(ev, overridesByUID[uid], loc, rangeStart, rangeEnd)...)
		}
	}
	return out
}

func expandOne(ev parsedEvent, overrides []parsedEvent, loc *time.Location, rangeStart, rangeEnd time.Time) []model.RawEvent {
	if ev.RawRRule == "" {
		if !rangesOverlap(ev.Start, ev.End, rangeStart, rangeEnd) {
			return nil
		}
		start, end := ev.Start, ev.End
		if o, ok := overrideForStart(overrides, start); ok {
			ev, start, end = o, o.Start, o.End
		}
		return []model.RawEvent{makeRawEvent(ev, start, end, loc)}
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("recurrence rule parse failed, skipping event", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	occTimes := set.Between(rangeStart.In(ev.Start.Location()), rangeEnd.In(ev.Start.Location()), true)
	if len(occTimes) > maxOccurrencesPerEvent {
		appLog.Error("recurrence expansion truncated", errors.New("max occurrences reached"), "uid", ev.UID, "cap", maxOccurrencesPerEvent)
		occTimes = occTimes[:maxOccurrencesPerEvent]
	}

	out := make([]model.RawEvent, 0, len(occTimes))
	dur := ev.End.Sub(ev.Start)
	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			occStart = date
			occEnd = date.Add(24 * time.Hour)
		} else {
			occEnd = occStart.Add(dur)
		}

		occEv := ev
		if o, ok := overrideForStart(overrides, occStart); ok {
			occEv, occStart, occEnd = o, o.Start, o.End
		}
		out = append(out, makeRawEvent(occEv, occStart, occEnd, loc))
	}
	return out
}

func overrideForStart(overrides []parsedEvent, baseStart time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(baseStart.Location()).Equal(baseStart) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

// makeRawEvent converts one occurrence into the wire-shaped RawEvent: all-day
// occurrences carry a date-only boundary, timed ones a concrete instant.
func makeRawEvent(ev parsedEvent, start, end time.Time, loc *time.Location) model.RawEvent {
	raw := model.RawEvent{
		SourceID: ev.Source.ID,
		Title:    ev.Summary,
	}
	if ev.AllDay {
		raw.Start = model.EventTime{Date: start.In(loc).Format("2006-01-02")}
		raw.End = model.EventTime{Date: end.In(loc).Format("2006-01-02")}
	} else {
		raw.Start = model.EventTime{DateTime: start.In(loc)}
		raw.End = model.EventTime{DateTime: end.In(loc)}
	}
	return raw
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
