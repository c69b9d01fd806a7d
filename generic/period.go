package generic

import "time"

// =============================================================================
// PERIOD - The pay period a calculation covers
// =============================================================================

// Period is an inclusive range of calendar days.
// It filters revenue records and stamps the resulting compensation.
//
// Examples:
//   - Monthly payroll: Mar 1 - Mar 31
//   - Mid-month cutoff: Mar 16 - Apr 15
type Period struct {
	Start Date `json:"period_start"`
	End   Date `json:"period_end"`
}

// MonthPeriod returns the calendar month as a period.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// Validate enforces Start <= End with both dates set.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return NewEngineError(KindInvalidPeriod, "period", "period_start and period_end are required")
	}
	if p.Start.After(p.End) {
		return NewEngineError(KindInvalidPeriod, "period",
			"period_start %s is after period_end %s", p.Start, p.End)
	}
	return nil
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return int(p.End.normalize().Sub(p.Start.normalize()).Hours()/24) + 1
}

// Equal compares both bounds by calendar day.
func (p Period) Equal(other Period) bool {
	return p.Start.Equal(other.Start) && p.End.Equal(other.End)
}

// Follows reports whether p starts the day after prev ends.
// Score history uses it to detect gaps between recorded periods.
func (p Period) Follows(prev Period) bool {
	return p.Start.Equal(prev.End.AddDays(1))
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
