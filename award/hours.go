/*
hours.go - HoursClassifier

PURPOSE:
  Splits a week of worked minutes into regular, daily overtime, weekly
  overtime and double time, then prices each bucket.

ALGORITHM (per day, chronological):
  hours ───┬── up to OvertimeThresholdDaily ........... tentatively regular
           ├── OvertimeThresholdDaily..MaxDailyHours .. daily overtime  (x1.5)
           └── beyond MaxDailyHours ................... double time     (x2)

  Week: the tentatively-regular hours accumulate; the part beyond
  OvertimeThresholdWeekly becomes weekly overtime (x1.5). Daily overtime and
  double time never join the accumulation, so no minute is counted twice.

  Regular = total - (daily OT + weekly OT + double time)

EXAMPLE:
  Thresholds 8h daily / 38h weekly, days 10,8,8,8,8 (42h):
    daily OT 2, accumulation 40 -> weekly OT 2, regular 38, double time 0.
*/
package award

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DayMinutes is the net worked minutes on one calendar day.
type DayMinutes struct {
	Date    time.Time
	Minutes int
}

type OvertimeCalculation struct {
	RegularHours        decimal.Decimal
	DailyOvertimeHours  decimal.Decimal
	WeeklyOvertimeHours decimal.Decimal
	DoubleTimeHours     decimal.Decimal
	TotalHours          decimal.Decimal

	RegularPay    decimal.Decimal
	OvertimePay   decimal.Decimal
	DoubleTimePay decimal.Decimal
	TotalPay      decimal.Decimal
}

// OvertimeHours is daily plus weekly overtime.
func (c OvertimeCalculation) OvertimeHours() decimal.Decimal {
	return c.DailyOvertimeHours.Add(c.WeeklyOvertimeHours)
}

// BucketSum adds the four hour buckets; it always equals TotalHours.
func (c OvertimeCalculation) BucketSum() decimal.Decimal {
	return c.RegularHours.Add(c.DailyOvertimeHours).Add(c.WeeklyOvertimeHours).Add(c.DoubleTimeHours)
}

// ClassifyHours classifies a week of worked minutes.
//
// weeklyTotalMinutes may exceed the sum of the itemized days; the difference is
// un-itemized ordinary time that only takes part in the weekly accumulation.
// A smaller (or zero) value is ignored and the itemized sum is used.
//
// A nil hourlyRate yields zero pay with the hour buckets still computed.
func ClassifyHours(days []DayMinutes, weeklyTotalMinutes int, hourlyRate *decimal.Decimal, t Thresholds) OvertimeCalculation {
	t = t.WithDefaults()

	sorted := make([]DayMinutes, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var (
		itemized    int
		dailyOT     = decimal.Zero
		doubleTime  = decimal.Zero
		accumulated = decimal.Zero
	)

	for _, d := range sorted {
		if d.Minutes <= 0 {
			continue
		}
		itemized += d.Minutes
		h := Hours(d.Minutes)

		doubleTime = doubleTime.Add(maxDec(h.Sub(t.MaxDailyHours), decimal.Zero))
		capped := minDec(h, t.MaxDailyHours)
		dailyOT = dailyOT.Add(maxDec(capped.Sub(t.OvertimeThresholdDaily), decimal.Zero))
		accumulated = accumulated.Add(minDec(capped, t.OvertimeThresholdDaily))
	}

	totalMinutes := itemized
	if weeklyTotalMinutes > itemized {
		accumulated = accumulated.Add(Hours(weeklyTotalMinutes - itemized))
		totalMinutes = weeklyTotalMinutes
	}

	weeklyOT := maxDec(accumulated.Sub(t.OvertimeThresholdWeekly), decimal.Zero)
	total := Hours(totalMinutes)

	calc := OvertimeCalculation{
		DailyOvertimeHours:  dailyOT,
		WeeklyOvertimeHours: weeklyOT,
		DoubleTimeHours:     doubleTime,
		TotalHours:          total,
		RegularHours:        total.Sub(dailyOT.Add(weeklyOT).Add(doubleTime)),
		RegularPay:          decimal.Zero,
		OvertimePay:         decimal.Zero,
		DoubleTimePay:       decimal.Zero,
		TotalPay:            decimal.Zero,
	}

	if hourlyRate == nil {
		return calc
	}

	rate := *hourlyRate
	calc.RegularPay = money(calc.RegularHours.Mul(rate))
	calc.OvertimePay = money(calc.OvertimeHours().Mul(t.OvertimeMultiplier).Mul(rate))
	calc.DoubleTimePay = money(calc.DoubleTimeHours.Mul(t.DoubleTimeMultiplier).Mul(rate))
	calc.TotalPay = calc.RegularPay.Add(calc.OvertimePay).Add(calc.DoubleTimePay)
	return calc
}

// ClassifyTimesheet is ClassifyHours over a timesheet's entries.
func ClassifyTimesheet(ts Timesheet, hourlyRate *decimal.Decimal, t Thresholds) OvertimeCalculation {
	return ClassifyHours(DailyMinutesFromEntries(ts.Entries), 0, hourlyRate, t)
}
