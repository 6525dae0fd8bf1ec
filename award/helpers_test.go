package award_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/warp/award-engine/award"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// monday is the first day of the test week.
var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return monday.AddDate(0, 0, offset)
}

func clock(d time.Time, hh, mm int) *time.Time {
	t := time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, time.UTC)
	return &t
}

func meal(d time.Time, fromH, fromM, toH, toM int) award.Break {
	return award.Break{Start: *clock(d, fromH, fromM), End: *clock(d, toH, toM), Type: award.BreakMeal}
}

// shift builds a worked day with a clock-in, clock-out and optional breaks.
func shift(offset, inH, inM, outH, outM int, breaks ...award.Break) award.TimeEntry {
	d := day(offset)
	return award.TimeEntry{
		Date:     d,
		ClockIn:  clock(d, inH, inM),
		ClockOut: clock(d, outH, outM),
		Breaks:   breaks,
	}
}

// standardDay is 09:00-17:00 with a 30 minute lunch: 7.5 net hours.
func standardDay(offset int) award.TimeEntry {
	d := day(offset)
	e := shift(offset, 9, 0, 17, 0, meal(d, 12, 0, 12, 30))
	e.ScheduledStart = clock(d, 9, 0)
	e.ScheduledEnd = clock(d, 17, 0)
	return e
}

func timesheet(entries ...award.TimeEntry) award.Timesheet {
	return award.Timesheet{
		ID:         "ts-1",
		EmployeeID: "emp-1",
		WeekStart:  monday,
		Entries:    entries,
		Status:     award.TimesheetPending,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "expected %s, got %s %v", want, got.String(), msgAndArgs)
}

func flagTypes(v award.ComplianceValidation) []award.FlagType {
	out := make([]award.FlagType, 0, len(v.Flags))
	for _, f := range v.Flags {
		out = append(out, f.Type)
	}
	return out
}

func findFlag(v award.ComplianceValidation, ft award.FlagType) (award.ComplianceFlag, bool) {
	for _, f := range v.Flags {
		if f.Type == ft {
			return f, true
		}
	}
	return award.ComplianceFlag{}, false
}

func stepTiers(c award.ApprovalChain) []award.Tier {
	out := make([]award.Tier, 0, len(c.Steps))
	for _, s := range c.Steps {
		out = append(out, s.Tier)
	}
	return out
}
