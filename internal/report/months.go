package report

// MonthNames holds the display names used in report responses, indexed by
// month number minus one.
var MonthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the display name for a 1-based month number, or "" when
// out of range.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return MonthNames[m-1]
}
