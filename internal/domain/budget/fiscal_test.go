package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		month   time.Month
		quarter int
	}{
		{time.January, 1},
		{time.February, 1},
		{time.March, 1},
		{time.April, 2},
		{time.May, 2},
		{time.June, 2},
		{time.July, 3},
		{time.August, 3},
		{time.September, 3},
		{time.October, 4},
		{time.November, 4},
		{time.December, 4},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			p := PeriodOf(time.Date(2026, tt.month, 15, 12, 0, 0, 0, time.UTC))

			assert.Equal(t, 2026, p.Year)
			assert.Equal(t, tt.quarter, p.Quarter)
		})
	}
}

func TestPeriodOf_UsesUTC(t *testing.T) {
	// 2026-12-31 23:00 in UTC-5 is already 2027-01-01 04:00 UTC
	loc := time.FixedZone("EST", -5*3600)
	p := PeriodOf(time.Date(2026, time.December, 31, 23, 0, 0, 0, loc))

	assert.Equal(t, 2027, p.Year)
	assert.Equal(t, 1, p.Quarter)
}

func TestCurrentPeriod(t *testing.T) {
	p := CurrentPeriod()

	assert.GreaterOrEqual(t, p.Quarter, 1)
	assert.LessOrEqual(t, p.Quarter, 4)
	assert.Equal(t, PeriodOf(time.Now()), p)
}
