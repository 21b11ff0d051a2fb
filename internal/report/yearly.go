package report

// YearlyAggregate is the cached per-year overview: total lesson and rehearsal
// hours per calendar month.
type YearlyAggregate struct {
	Year                  int         `json:"year"`
	SchoolHoursByMonth    [12]float64 `json:"school"`
	RehearsalHoursByMonth [12]float64 `json:"rehearsals"`
}

// BuildYearlyAggregate folds full-year school and rehearsal reports into the
// month-indexed totals stored by the aggregate cache. Sessions outside the
// given year (or with no resolvable start) are skipped.
func BuildYearlyAggregate(year int, teachers []TeacherReport, bands []BandReport) YearlyAggregate {
	agg := YearlyAggregate{Year: year}

	for _, t := range teachers {
		for _, st := range t.Students {
			for _, s := range st.Sessions {
				if s.Start.IsZero() || s.Start.Year() != year {
					continue
				}
				agg.SchoolHoursByMonth[int(s.Start.Month())-1] += s.DurationHours
			}
		}
	}

	for _, b := range bands {
		for _, s := range b.Events {
			if s.Start.IsZero() || s.Start.Year() != year {
				continue
			}
			agg.RehearsalHoursByMonth[int(s.Start.Month())-1] += s.DurationHours
		}
	}

	return agg
}
