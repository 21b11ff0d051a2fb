package report

import (
	"testing"
	"time"

	"lessoncal/internal/model"
)

func TestBuildYearlyAggregate(t *testing.T) {
	loc := time.UTC
	feb := time.Date(2026, 2, 3, 10, 0, 0, 0, loc)
	mar := time.Date(2026, 3, 5, 18, 0, 0, 0, loc)

	teachers := []TeacherReport{{
		Teacher: "Maria",
		Students: []*StudentRecord{{
			Student:    "Andrei",
			Instrument: "Pian",
			Sessions: []LessonSession{
				{Session: session("Maria - Pian Andrei", feb, 1)},
				{Session: session("Maria - Pian Andrei", feb.AddDate(0, 0, 7), 1.5)},
				{Session: session("Maria - Pian Andrei", mar, 1)},
				// Wrong year, must be skipped.
				{Session: session("Maria - Pian Andrei", feb.AddDate(-1, 0, 0), 1)},
				// Unresolvable start, must be skipped.
				{Session: session("Maria - Pian Andrei", time.Time{}, 1)},
			},
		}},
	}}

	bands := []BandReport{{
		Band: "The Band",
		Events: []model.Session{
			session("Sală repetiție - 2 ore for The Band", mar, 2),
		},
	}}

	agg := BuildYearlyAggregate(2026, teachers, bands)

	if agg.Year != 2026 {
		t.Errorf("Year = %d", agg.Year)
	}
	if agg.SchoolHoursByMonth[1] != 2.5 {
		t.Errorf("February school hours = %v, want 2.5", agg.SchoolHoursByMonth[1])
	}
	if agg.SchoolHoursByMonth[2] != 1 {
		t.Errorf("March school hours = %v, want 1", agg.SchoolHoursByMonth[2])
	}
	if agg.RehearsalHoursByMonth[2] != 2 {
		t.Errorf("March rehearsal hours = %v, want 2", agg.RehearsalHoursByMonth[2])
	}
	var total float64
	for _, h := range agg.SchoolHoursByMonth {
		total += h
	}
	if total != 3.5 {
		t.Errorf("total school hours = %v, want 3.5 (skipped sessions excluded)", total)
	}
}
