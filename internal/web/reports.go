package web

import (
	"net/http"
	"time"

	"lessoncal/internal/ledger"
	appLog "lessoncal/internal/log"
	"lessoncal/internal/report"
)

// schoolResponse is the JSON shape of /api/reports/school.
type schoolResponse struct {
	Months     []int                  `json:"months"`
	MonthNames []string               `json:"monthNames"`
	Year       int                    `json:"year"`
	Teachers   []report.TeacherReport `json:"teachers"`
	// Errors lists calendar sources that could not be fetched; the report
	// is built from the sources that succeeded.
	Errors []string `json:"errors,omitempty"`
}

// GET /api/reports/school?month=1,2&year=2026
func (s *Server) handleSchoolReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	months, err := parseMonths(q.Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year := parseIntDefault(q.Get("year"), 0)
	if year == 0 {
		writeError(w, http.StatusBadRequest, "year is required")
		return
	}

	sessions, fetchErrs := s.FetchSessions(r.Context(), year, months)
	teachers := report.AggregateLessons(sessions, s.cfg.RehearsalMarker)

	appLog.Info("school report",
		"year", year,
		"months", len(months),
		"sessions", len(sessions),
		"teachers", len(teachers),
		"fetch_errors", len(fetchErrs),
	)

	writeJSON(w, http.StatusOK, schoolResponse{
		Months:     months,
		MonthNames: monthNames(months),
		Year:       year,
		Teachers:   teachers,
		Errors:     errorStrings(fetchErrs),
	})
}

// rehearsalsResponse is the JSON shape of /api/reports/rehearsals.
type rehearsalsResponse struct {
	Months     []int                `json:"months"`
	MonthNames []string             `json:"monthNames"`
	Year       int                  `json:"year"`
	Bands      []report.BandReport  `json:"bands"`
	Rentals    []report.RentalUsage `json:"rentals"`
	Errors     []string             `json:"errors,omitempty"`
}

// GET /api/reports/rehearsals?month=1,2&year=2026
func (s *Server) handleRehearsalsReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	months, err := parseMonths(q.Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year := parseIntDefault(q.Get("year"), 0)
	if year == 0 {
		writeError(w, http.StatusBadRequest, "year is required")
		return
	}

	sessions, fetchErrs := s.FetchSessions(r.Context(), year, months)
	res := report.AggregateRehearsals(sessions, s.RehearsalConfig())

	appLog.Info("rehearsals report",
		"year", year,
		"months", len(months),
		"sessions", len(sessions),
		"bands", len(res.Bands),
		"fetch_errors", len(fetchErrs),
	)

	writeJSON(w, http.StatusOK, rehearsalsResponse{
		Months:     months,
		MonthNames: monthNames(months),
		Year:       year,
		Bands:      res.Bands,
		Rentals:    res.Rentals,
		Errors:     errorStrings(fetchErrs),
	})
}

// duePaymentResponse is the JSON shape of /api/reports/needs-payment.
type duePaymentResponse struct {
	Date     string             `json:"date"`
	Year     int                `json:"year"`
	Teachers []ledger.TeacherDue `json:"teachers"`
	Errors   []string           `json:"errors,omitempty"`
}

// GET /api/reports/needs-payment?date=2026-05-01
//
// The ledger needs each student's full history for the year, so the whole
// year is fetched regardless of the reference date's month.
func (s *Server) handleNeedsPayment(w http.ResponseWriter, r *http.Request) {
	refDate := time.Now().In(s.loc)
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.ParseInLocation("2006-01-02", raw, s.loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		refDate = d
	}
	year := refDate.Year()

	sessions, fetchErrs := s.FetchSessions(r.Context(), year, allMonths())
	teachers := report.AggregateLessons(sessions, s.cfg.RehearsalMarker)
	due := ledger.BuildDueReport(teachers, year, refDate)

	appLog.Info("needs-payment report",
		"date", refDate.Format("2006-01-02"),
		"teachers_due", len(due),
		"fetch_errors", len(fetchErrs),
	)

	writeJSON(w, http.StatusOK, duePaymentResponse{
		Date:     refDate.Format("2006-01-02"),
		Year:     year,
		Teachers: due,
		Errors:   errorStrings(fetchErrs),
	})
}

type excludeWordsPayload struct {
	ExcludeWords []string `json:"excludeWords"`
}

// GET /api/reports/rehearsals/exclude-words
func (s *Server) handleGetExcludeWords(w http.ResponseWriter, _ *http.Request) {
	s.cfgMu.Lock()
	words := append([]string(nil), s.cfg.ExcludeWords...)
	s.cfgMu.Unlock()
	writeJSON(w, http.StatusOK, excludeWordsPayload{ExcludeWords: words})
}

// POST /api/reports/rehearsals/exclude-words
func (s *Server) handleSetExcludeWords(w http.ResponseWriter, r *http.Request) {
	var payload excludeWordsPayload
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "excludeWords must be an array of strings")
		return
	}
	if payload.ExcludeWords == nil {
		writeError(w, http.StatusBadRequest, "excludeWords is required")
		return
	}

	s.cfgMu.Lock()
	s.cfg.ExcludeWords = payload.ExcludeWords
	err := s.cfg.Save(s.cfgPath)
	s.cfgMu.Unlock()
	if err != nil {
		appLog.Error("failed to persist exclude words", err, "path", s.cfgPath)
		writeError(w, http.StatusInternalServerError, "failed to persist exclude words")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) RehearsalConfig() report.RehearsalConfig {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	return report.RehearsalConfig{
		RehearsalMarker:   s.cfg.RehearsalMarker,
		ExcludeWords:      append([]string(nil), s.cfg.ExcludeWords...),
		RentalInstruments: append([]string(nil), s.cfg.RentalInstruments...),
	}
}

func monthNames(months []int) []string {
	out := make([]string, 0, len(months))
	for _, m := range months {
		out = append(out, report.MonthName(m))
	}
	return out
}

func allMonths() []int {
	out := make([]int, 12)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
