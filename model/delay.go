package model

import "math"

// Delay is a propagation delay in picoseconds. All timing arithmetic in the
// engine happens in this unit; conversion to nanoseconds is for display only.
type Delay int64

// MaxDelay is the sentinel a budget is reset to before budgeting. Any real
// computed budget is strictly smaller, so min() always tightens it.
const MaxDelay = Delay(math.MaxInt64)

// Nanoseconds converts the delay to nanoseconds for reporting.
func (d Delay) Nanoseconds() float64 {
	return float64(d) / 1000.0
}

// PeriodFromMHz converts a target frequency in MHz to a clock period.
func PeriodFromMHz(mhz float64) Delay {
	return Delay(1.0e6 / mhz)
}

// MHzFromPeriod converts a clock period back to a frequency in MHz.
func MHzFromPeriod(period Delay) float64 {
	if period <= 0 {
		return math.Inf(1)
	}
	return 1.0e6 / float64(period)
}

// ClockID identifies a clock domain. The empty value means "not clocked".
type ClockID string
