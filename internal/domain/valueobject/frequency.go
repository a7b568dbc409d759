package valueobject

import (
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Frequency – immutable value object
// ---------------------------------------------------------------------------

// Frequency is the spacing between two consecutive schedule lines.
type Frequency struct {
	value          string
	periodsPerYear int
	months         int // 0 for day-based frequencies
	days           int
}

const (
	frequencyWeekly     = "WEEKLY"
	frequencyBiWeekly   = "BIWEEKLY"
	frequencyMonthly    = "MONTHLY"
	frequencyBiMonthly  = "BIMONTHLY"
	frequencyQuarterly  = "QUARTERLY"
	frequencySemiAnnual = "SEMI_ANNUAL"
	frequencyAnnual     = "ANNUAL"
)

var (
	FrequencyWeekly     = Frequency{value: frequencyWeekly, periodsPerYear: 52, days: 7}
	FrequencyBiWeekly   = Frequency{value: frequencyBiWeekly, periodsPerYear: 26, days: 14}
	FrequencyMonthly    = Frequency{value: frequencyMonthly, periodsPerYear: 12, months: 1}
	FrequencyBiMonthly  = Frequency{value: frequencyBiMonthly, periodsPerYear: 6, months: 2}
	FrequencyQuarterly  = Frequency{value: frequencyQuarterly, periodsPerYear: 4, months: 3}
	FrequencySemiAnnual = Frequency{value: frequencySemiAnnual, periodsPerYear: 2, months: 6}
	FrequencyAnnual     = Frequency{value: frequencyAnnual, periodsPerYear: 1, months: 12}
)

var validFrequencies = map[string]Frequency{
	frequencyWeekly:     FrequencyWeekly,
	frequencyBiWeekly:   FrequencyBiWeekly,
	frequencyMonthly:    FrequencyMonthly,
	frequencyBiMonthly:  FrequencyBiMonthly,
	frequencyQuarterly:  FrequencyQuarterly,
	frequencySemiAnnual: FrequencySemiAnnual,
	frequencyAnnual:     FrequencyAnnual,
}

// NewFrequency creates a Frequency from a raw string.
func NewFrequency(s string) (Frequency, error) {
	v, ok := validFrequencies[s]
	if !ok {
		return Frequency{}, fmt.Errorf("invalid frequency: %q", s)
	}
	return v, nil
}

// String returns the string representation of the frequency.
func (f Frequency) String() string { return f.value }

// IsZero returns true if the frequency has not been initialised.
func (f Frequency) IsZero() bool { return f.value == "" }

// Equal returns true when both frequencies carry the same value.
func (f Frequency) Equal(other Frequency) bool { return f.value == other.value }

// PeriodsPerYear returns how many periods of this frequency fit in a year.
func (f Frequency) PeriodsPerYear() int { return f.periodsPerYear }

// MonthsIn returns the number of whole months covered by n periods. Day-based
// frequencies round up to the next 30-day month.
func (f Frequency) MonthsIn(n int) int {
	if f.months > 0 {
		return n * f.months
	}
	return (n*f.days + 29) / 30
}

// DueDate returns the date of the period at index (0-based) counted from
// first. Month-based steps are computed from first, not chained, and clamp to
// the last day of shorter months: Jan 31 steps to Feb 28 (or 29), then Mar 31.
func (f Frequency) DueDate(first time.Time, index int) time.Time {
	if f.months == 0 {
		return first.AddDate(0, 0, index*f.days)
	}
	return AddMonthsClamped(first, index*f.months)
}

// AddMonthsClamped adds n months to t, clamping the day to the end of the target month.
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(target.Year(), target.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
