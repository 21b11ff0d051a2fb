// Package report turns duration-annotated calendar sessions into the
// teacher/student and band aggregations behind the school's billing reports.
package report

import (
	"strings"

	"lessoncal/internal/model"
	"lessoncal/internal/title"
)

// LessonSession is one lesson event inside a student record, annotated with
// the payment bundle its title declared (nil when none).
type LessonSession struct {
	model.Session
	PaymentHours *int `json:"paymentHours"`
}

// StudentRecord groups one student's lessons for one instrument under a
// teacher. Student and Instrument keep the casing of the first occurrence;
// later case variants merge into the same record.
type StudentRecord struct {
	Student      string          `json:"student"`
	Instrument   string          `json:"instrument"`
	PaymentHours []int           `json:"paymentHours"`
	Sessions     []LessonSession `json:"events"`
}

// TeacherReport is the per-teacher view of the school report.
type TeacherReport struct {
	Teacher    string           `json:"teacher"`
	TotalHours float64          `json:"totalHours"`
	Students   []*StudentRecord `json:"students"`
}

// AggregateLessons groups lesson sessions into teacher reports.
//
// Sessions whose folded title contains rehearsalMarker are rehearsal-room
// bookings and are dropped here even when they parse as lessons; sessions
// whose title does not match the lesson grammar are dropped as well (they
// surface through AggregateRehearsals instead). Output order is first-seen
// order of teachers and, within a teacher, of students.
func AggregateLessons(sessions []model.Session, rehearsalMarker string) []TeacherReport {
	byTeacher := make(map[string]*teacherAcc)
	order := make([]string, 0)

	for _, s := range sessions {
		if rehearsalMarker != "" && title.FoldedContains(s.Title(), rehearsalMarker) {
			continue
		}
		fact := title.Parse(s.Title())
		if fact == nil {
			continue
		}

		acc := byTeacher[fact.Teacher]
		if acc == nil {
			acc = &teacherAcc{
				report:   TeacherReport{Teacher: fact.Teacher},
				students: make(map[string]*StudentRecord),
			}
			byTeacher[fact.Teacher] = acc
			order = append(order, fact.Teacher)
		}
		acc.report.TotalHours += s.DurationHours

		// Case variants of the same student/instrument merge into one record.
		key := strings.ToLower(fact.Student) + "|" + strings.ToLower(fact.Instrument)
		rec := acc.students[key]
		if rec == nil {
			rec = &StudentRecord{Student: fact.Student, Instrument: fact.Instrument}
			acc.students[key] = rec
			acc.report.Students = append(acc.report.Students, rec)
		}
		if fact.PaymentHours != nil {
			rec.PaymentHours = append(rec.PaymentHours, *fact.PaymentHours)
		}
		rec.Sessions = append(rec.Sessions, LessonSession{
			Session:      s,
			PaymentHours: fact.PaymentHours,
		})
	}

	out := make([]TeacherReport, 0, len(order))
	for _, teacher := range order {
		out = append(out, byTeacher[teacher].report)
	}
	return out
}

type teacherAcc struct {
	report   TeacherReport
	students map[string]*StudentRecord
}
