// Package ledger reconstructs a student's pre-paid hour balance from the
// payment markers embedded in lesson titles. The computation is a pure
// function of the student's session history and a reference date, so the
// same inputs always produce the same view; both the report path and the
// "needs payment" view go through Compute.
package ledger

import (
	"sort"
	"time"

	"lessoncal/internal/report"
	"lessoncal/internal/title"
)

// View is the derived balance for one student as of a reference date.
//
// RemainingHours is nil when it cannot be trusted: either no payment was ever
// recorded (AbNotFound) or the last payment marker's number failed to parse
// (AbCalculationWarning). SpentHours is always reported.
type View struct {
	Bundles         []int      `json:"bundles"`
	LastPaymentDate *time.Time `json:"lastPaymentDate"`
	SpentHours      float64    `json:"spentHours"`
	RemainingHours  *float64   `json:"remainingHours"`
	IsLastHour      bool       `json:"isLastHour"`
	NeedsPayment    bool       `json:"needsPayment"`

	AbNotFound           bool `json:"abNotFound"`
	AbCalculationWarning bool `json:"abCalculationWarning"`

	// Window holds the sessions shown alongside the balance: from the last
	// payment marker (inclusive) through the reference date. The balance
	// itself is always derived from the full filtered history.
	Window []report.LessonSession `json:"sessions"`
}

// Compute derives the ledger view from one student's sessions.
//
// Sessions are filtered to the reporting year and to calendar days at or
// before referenceDate (local date, not instant), then sorted
// chronologically; the caller does not need to pre-sort.
func Compute(sessions []report.LessonSession, year int, referenceDate time.Time) View {
	loc := referenceDate.Location()

	hist := make([]report.LessonSession, 0, len(sessions))
	for _, s := range sessions {
		if s.Start.IsZero() || s.Start.Year() != year {
			continue
		}
		if dateOf(s.Start, loc).After(dateOf(referenceDate, loc)) {
			continue
		}
		hist = append(hist, s)
	}
	sort.SliceStable(hist, func(i, j int) bool { return hist[i].Start.Before(hist[j].Start) })

	var v View

	lastPayment := -1
	for i, s := range hist {
		if !title.HasPaymentMarker(s.Title()) {
			continue
		}
		lastPayment = i
		if n, ok := title.PaymentHours(s.Title()); ok {
			v.Bundles = appendUnique(v.Bundles, n)
		}
	}

	if lastPayment < 0 {
		// No payment ever recorded: report total consumption and flag it.
		v.AbNotFound = true
		for _, s := range hist {
			v.SpentHours += s.DurationHours
		}
		v.Window = hist
		return v
	}

	paid := hist[lastPayment]
	d := paid.Start
	v.LastPaymentDate = &d
	v.Window = hist[lastPayment:]

	for _, s := range v.Window {
		v.SpentHours += s.DurationHours
	}

	bundle, ok := title.PaymentHours(paid.Title())
	if !ok {
		// Marker present but its number does not parse; withhold the
		// balance rather than guessing.
		v.AbCalculationWarning = true
		return v
	}

	remaining := float64(bundle) - v.SpentHours
	v.RemainingHours = &remaining
	v.IsLastHour = remaining <= 1
	v.NeedsPayment = remaining < 0
	return v
}

// HasSessionOn reports whether the view's window holds a session on the given
// calendar day.
func (v View) HasSessionOn(day time.Time) bool {
	loc := day.Location()
	want := dateOf(day, loc)
	for _, s := range v.Window {
		if dateOf(s.Start, loc).Equal(want) {
			return true
		}
	}
	return false
}

func dateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func appendUnique(list []int, n int) []int {
	for _, v := range list {
		if v == n {
			return list
		}
	}
	return append(list, n)
}
