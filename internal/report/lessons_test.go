package report

import (
	"testing"
	"time"

	"lessoncal/internal/model"
)

func session(title string, start time.Time, hours float64) model.Session {
	return model.Session{
		Event:         model.RawEvent{Title: title, Start: model.EventTime{DateTime: start}},
		Start:         start,
		DurationHours: hours,
	}
}

func TestAggregateLessons(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	sessions := []model.Session{
		session("Maria - Pian Andrei", base, 1),
		session("Maria - Pian Andrei (Ab. 4h)", base.AddDate(0, 0, 7), 1),
		session("Maria - Chitara Ioana", base.AddDate(0, 0, 1), 1.5),
		session("Ion - Tobe Vlad", base.AddDate(0, 0, 2), 1),
		session("Sală repetiție - 2 ore for The Band", base.AddDate(0, 0, 3), 2),
		session("not a lesson", base.AddDate(0, 0, 4), 1),
	}

	got := AggregateLessons(sessions, "sala repetitie")

	if len(got) != 2 {
		t.Fatalf("got %d teachers, want 2", len(got))
	}
	maria, ion := got[0], got[1]
	if maria.Teacher != "Maria" || ion.Teacher != "Ion" {
		t.Fatalf("teacher order = %q, %q; want Maria, Ion", maria.Teacher, ion.Teacher)
	}
	if maria.TotalHours != 3.5 {
		t.Errorf("Maria TotalHours = %v, want 3.5", maria.TotalHours)
	}
	if len(maria.Students) != 2 {
		t.Fatalf("Maria has %d students, want 2", len(maria.Students))
	}

	andrei := maria.Students[0]
	if andrei.Student != "Andrei" || andrei.Instrument != "Pian" {
		t.Errorf("first student = %q/%q, want Andrei/Pian", andrei.Student, andrei.Instrument)
	}
	if len(andrei.Sessions) != 2 {
		t.Errorf("Andrei has %d sessions, want 2", len(andrei.Sessions))
	}
	if len(andrei.PaymentHours) != 1 || andrei.PaymentHours[0] != 4 {
		t.Errorf("Andrei PaymentHours = %v, want [4]", andrei.PaymentHours)
	}
	if andrei.Sessions[0].PaymentHours != nil {
		t.Error("first session should carry no payment marker")
	}
	if andrei.Sessions[1].PaymentHours == nil || *andrei.Sessions[1].PaymentHours != 4 {
		t.Error("second session should carry the 4h marker")
	}
}

func TestAggregateLessonsMergesCaseVariants(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	sessions := []model.Session{
		session("Maria - Pian Andrei", base, 1),
		session("Maria - pian ANDREI", base.AddDate(0, 0, 7), 1),
	}

	got := AggregateLessons(sessions, "sala repetitie")
	if len(got) != 1 || len(got[0].Students) != 1 {
		t.Fatalf("case variants did not merge: %+v", got)
	}
	st := got[0].Students[0]
	if st.Student != "Andrei" || st.Instrument != "Pian" {
		t.Errorf("record keeps first-seen casing, got %q/%q", st.Student, st.Instrument)
	}
	if len(st.Sessions) != 2 {
		t.Errorf("merged record has %d sessions, want 2", len(st.Sessions))
	}
}

func TestAggregateLessonsIsIdempotent(t *testing.T) {
	base := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	sessions := []model.Session{
		session("Maria - Pian Andrei", base, 1),
		session("Ion - Tobe Vlad", base.AddDate(0, 0, 1), 1),
	}

	a := AggregateLessons(sessions, "")
	b := AggregateLessons(sessions, "")
	if len(a) != len(b) {
		t.Fatalf("repeated aggregation changed teacher count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Teacher != b[i].Teacher || a[i].TotalHours != b[i].TotalHours {
			t.Errorf("teacher %d differs between runs", i)
		}
	}
}

func TestMonthName(t *testing.T) {
	if got := MonthName(1); got != MonthNames[0] {
		t.Errorf("MonthName(1) = %q, want %q", got, MonthNames[0])
	}
	if got := MonthName(12); got != MonthNames[11] {
		t.Errorf("MonthName(12) = %q, want %q", got, MonthNames[11])
	}
}
