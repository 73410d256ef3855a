package budget

import "time"

// FiscalPeriod identifies a fiscal year and quarter
type FiscalPeriod struct {
	Year    int
	Quarter int
}

// PeriodOf computes the fiscal period containing the given instant.
// Quarters follow the calendar in UTC: Q1 = Jan-Mar, Q2 = Apr-Jun,
// Q3 = Jul-Sep, Q4 = Oct-Dec
func PeriodOf(t time.Time) FiscalPeriod {
	u := t.UTC()
	return FiscalPeriod{
		Year:    u.Year(),
		Quarter: (int(u.Month())-1)/3 + 1,
	}
}

// CurrentPeriod returns the fiscal period for the current UTC time
func CurrentPeriod() FiscalPeriod {
	return PeriodOf(time.Now())
}
