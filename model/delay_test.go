package model

import (
	"math"
	"testing"
)

func TestPeriodFromMHz(t *testing.T) {
	cases := []struct {
		mhz  float64
		want Delay
	}{
		{50, 20000},
		{100, 10000},
		{333.3333333, 3000},
		{12.5, 80000},
	}
	for _, tc := range cases {
		if got := PeriodFromMHz(tc.mhz); got != tc.want {
			t.Errorf("PeriodFromMHz(%v) = %d, want %d", tc.mhz, got, tc.want)
		}
	}
}

func TestMHzFromPeriod(t *testing.T) {
	if got := MHzFromPeriod(20000); got != 50 {
		t.Errorf("MHzFromPeriod(20000) = %v, want 50", got)
	}
	if got := MHzFromPeriod(3000); math.Abs(got-333.333333) > 0.001 {
		t.Errorf("MHzFromPeriod(3000) = %v, want ~333.33", got)
	}
	if got := MHzFromPeriod(0); !math.IsInf(got, 1) {
		t.Errorf("MHzFromPeriod(0) = %v, want +Inf", got)
	}
	if got := MHzFromPeriod(-5); !math.IsInf(got, 1) {
		t.Errorf("MHzFromPeriod(-5) = %v, want +Inf", got)
	}
}

func TestDelay_Nanoseconds(t *testing.T) {
	if got := Delay(1500).Nanoseconds(); got != 1.5 {
		t.Errorf("Nanoseconds() = %v, want 1.5", got)
	}
}
