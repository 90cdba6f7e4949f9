package model

import "time"

// Timeframe identifies bar granularity.
type Timeframe string

const (
	Daily   Timeframe = "1D"
	Weekly  Timeframe = "1W"
	Monthly Timeframe = "1M"
)

// Valid reports whether tf is one of the supported granularities.
func (tf Timeframe) Valid() bool {
	return tf == Daily || tf == Weekly || tf == Monthly
}

// LookbackDays converts a number of periods at this granularity into the raw
// daily-bar window needed to aggregate that many periods, with a buffer for
// weekends and holidays.
func (tf Timeframe) LookbackDays(periods int) int {
	switch tf {
	case Weekly:
		return periods*7 + 14
	case Monthly:
		return periods*30 + 31
	default:
		return periods + 10
	}
}

// PeriodKey identifies one calendar period: (ISO year, ISO week) for weekly,
// (year, month) for monthly. Daily bars key on the date itself and never use
// period keys.
type PeriodKey struct {
	Year   int
	Period int
}

// PeriodKeyFor derives the period key of a date at the given granularity.
func PeriodKeyFor(tf Timeframe, t time.Time) PeriodKey {
	switch tf {
	case Weekly:
		y, w := t.ISOWeek()
		return PeriodKey{Year: y, Period: w}
	case Monthly:
		return PeriodKey{Year: t.Year(), Period: int(t.Month())}
	default:
		return PeriodKey{Year: t.Year(), Period: t.YearDay()}
	}
}
