package ledger

import (
	"time"

	"lessoncal/internal/report"
)

// StudentDue is one student's ledger view inside the "needs payment" report.
type StudentDue struct {
	Student    string `json:"student"`
	Instrument string `json:"instrument"`
	View
}

// TeacherDue groups the students a teacher sees on the reference day.
// Warning is raised when any of them has run out of hours or never paid.
type TeacherDue struct {
	Teacher  string       `json:"teacher"`
	Students []StudentDue `json:"students"`
	Warning  bool         `json:"warning"`
}

// BuildDueReport derives the "who needs to pay today" view from a school
// report. A student appears only when they have a session on referenceDate's
// calendar day; the balance math still uses their entire history up to that
// date. Teachers with no students on the day are omitted.
//
// The teacher-level flag fires on AbNotFound or a trusted RemainingHours of
// zero or less; a calculation warning alone does not raise it.
func BuildDueReport(teachers []report.TeacherReport, year int, referenceDate time.Time) []TeacherDue {
	out := make([]TeacherDue, 0)

	for _, t := range teachers {
		due := TeacherDue{Teacher: t.Teacher}
		for _, st := range t.Students {
			v := Compute(st.Sessions, year, referenceDate)
			if !v.HasSessionOn(referenceDate) {
				continue
			}
			due.Students = append(due.Students, StudentDue{
				Student:    st.Student,
				Instrument: st.Instrument,
				View:       v,
			})
			if v.AbNotFound || (!v.AbCalculationWarning && v.RemainingHours != nil && *v.RemainingHours <= 0) {
				due.Warning = true
			}
		}
		if len(due.Students) > 0 {
			out = append(out, due)
		}
	}
	return out
}
