package analytics

import "time"

// Period is an inclusive start/end date range over which raw records are
// aggregated. Both boundaries are treated as date-only values in UTC.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the inclusive length of the period in days.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// PreviousPeriod derives the window of identical length immediately
// preceding the given period: its end is the day before start, its length
// matches start..end. Callers must not pass an inverted range.
func PreviousPeriod(start, end time.Time) Period {
	length := end.Sub(start)
	prevEnd := start.AddDate(0, 0, -1)
	prevStart := prevEnd.Add(-length)
	return Period{Start: prevStart, End: prevEnd}
}
