package report

import (
	"strings"

	"lessoncal/internal/model"
	"lessoncal/internal/title"
)

// BandReport groups rehearsal events under one band. Band keeps the first-seen
// trimmed casing; grouping itself is case-insensitive.
type BandReport struct {
	Band       string          `json:"band"`
	TotalHours float64         `json:"totalHours"`
	Events     []model.Session `json:"events"`
}

// RentalEntry records one session that counted toward a rental instrument.
type RentalEntry struct {
	Band  string        `json:"band"`
	Hours float64       `json:"hours"`
	Event model.Session `json:"event"`
}

// RentalUsage accumulates billable usage for one configured rental-instrument
// keyword.
type RentalUsage struct {
	Instrument string        `json:"instrument"`
	TotalHours float64       `json:"totalHours"`
	Entries    []RentalEntry `json:"entries"`
}

// RehearsalConfig carries the caller-supplied configuration consumed by
// AggregateRehearsals. ExcludeWords and RentalInstruments are read-only
// inputs here; persistence is the caller's concern.
type RehearsalConfig struct {
	RehearsalMarker   string
	ExcludeWords      []string
	RentalInstruments []string
}

// RehearsalReport is the result of aggregating non-lesson events.
type RehearsalReport struct {
	Bands   []BandReport  `json:"bands"`
	Rentals []RentalUsage `json:"rentals"`
}

// AggregateRehearsals groups non-lesson sessions into band reports and
// derives rental-instrument usage.
//
// A session is a rehearsal candidate when its title does not match the lesson
// grammar, or when it does but starts with the rehearsal-room marker: a
// rehearsal-room booking that happens to look like a lesson is still a
// rehearsal. Candidates containing any exclude word (case-insensitive
// substring) are dropped entirely.
//
// A session counts toward every rental instrument whose keyword appears in
// its band name or title, so one event can bill several instruments at once.
func AggregateRehearsals(sessions []model.Session, cfg RehearsalConfig) RehearsalReport {
	byBand := make(map[string]*BandReport)
	order := make([]string, 0)

	for _, s := range sessions {
		t := s.Title()
		isLesson := title.Parse(t) != nil && !title.FoldedHasPrefix(t, cfg.RehearsalMarker)
		if isLesson {
			continue
		}
		if containsAnyFold(t, cfg.ExcludeWords) {
			continue
		}

		name := bandName(t, cfg.RehearsalMarker)
		key := strings.ToLower(strings.TrimSpace(name))
		br := byBand[key]
		if br == nil {
			br = &BandReport{Band: strings.TrimSpace(name)}
			byBand[key] = br
			order = append(order, key)
		}
		br.TotalHours += s.DurationHours
		br.Events = append(br.Events, s)
	}

	bands := make([]BandReport, 0, len(order))
	for _, key := range order {
		bands = append(bands, *byBand[key])
	}

	return RehearsalReport{
		Bands:   bands,
		Rentals: rentalUsage(bands, cfg.RentalInstruments),
	}
}

// bandName extracts the band name from a rehearsal title. The fixed booking
// pattern "<marker> - 2 ore for <Name>[ +N]" yields <Name> (the trailing
// headcount suffix is ignored); otherwise the name is the text before the
// first " - ", or the whole title when there is no separator.
func bandName(t, marker string) string {
	if marker != "" {
		prefix := title.Fold(marker) + " - 2 ore for "
		folded := title.Fold(t)
		if strings.HasPrefix(folded, prefix) {
			// Fold preserves rune count, so the rune offset maps back onto
			// the original string.
			name := string([]rune(t)[len([]rune(prefix)):])
			name = stripHeadcount(strings.TrimSpace(name))
			if name != "" {
				return name
			}
		}
	}

	name := t
	if i := strings.Index(t, " - "); i >= 0 {
		name = t[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(t)
	}
	if name == "" {
		name = "Unknown"
	}
	return name
}

// stripHeadcount removes a trailing " +N" suffix ("Band +3" -> "Band").
func stripHeadcount(s string) string {
	i := strings.LastIndex(s, " +")
	if i < 0 {
		return s
	}
	tail := s[i+2:]
	if tail == "" {
		return s
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return s
		}
	}
	return strings.TrimSpace(s[:i])
}

func containsAnyFold(t string, words []string) bool {
	lower := strings.ToLower(t)
	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// rentalUsage tallies hours per configured rental-instrument keyword. The
// double counting of one event across distinct matched keywords is
// deliberate: renting two instruments in one session bills both.
func rentalUsage(bands []BandReport, instruments []string) []RentalUsage {
	out := make([]RentalUsage, 0, len(instruments))
	for _, instr := range instruments {
		if instr == "" {
			continue
		}
		usage := RentalUsage{Instrument: instr}
		needle := strings.ToLower(instr)
		for _, band := range bands {
			bandMatch := strings.Contains(strings.ToLower(band.Band), needle)
			for _, ev := range band.Events {
				if bandMatch || strings.Contains(strings.ToLower(ev.Title()), needle) {
					usage.TotalHours += ev.DurationHours
					usage.Entries = append(usage.Entries, RentalEntry{
						Band:  band.Band,
						Hours: ev.DurationHours,
						Event: ev,
					})
				}
			}
		}
		out = append(out, usage)
	}
	return out
}
