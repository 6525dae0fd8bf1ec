/*
Package award provides the award compliance and pay resolution engine.

PURPOSE:
  Turns raw clock/shift data into classified hours and pay, compliance flags,
  a tiered approval routing decision, and a deterministic resolution of which
  on-call allowances are payable when several allowance rules apply to the
  same shift.

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeEntry / Break: one calendar day of clocked work and its breaks
  - Timesheet: one employee-week of entries plus status and allowances
  - Identifiers: type-safe ids for employees, timesheets and allowances

DESIGN PRINCIPLES:
  1. Pure functions: every component reads only its explicit inputs and
     returns freshly allocated results. Nothing here does I/O or holds state.
  2. Precision: hours and money use decimal.Decimal.
  3. Closed variants: severities, tiers, trigger types and statuses are named
     types with exhaustive switches; unknown strings are rejected at parse time.
  4. Never fail the read path: data-quality problems become compliance flags
     or zero/default results, not errors.

PIPELINE:
  entries ──▶ ClassifyHours ───────────────┐
          └─▶ ValidateCompliance ──▶ DetermineApprovalChain ──▶ Evaluation
  allowance rules + shift ──▶ ResolveAllowances ┘

SEE ALSO:
  - hours.go:      HoursClassifier
  - compliance.go: ComplianceValidator
  - approval.go:   ApprovalRouter state machine
  - allowance.go:  AllowanceResolver
  - evaluate.go:   Runs all four over one snapshot
*/
package award

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type TimesheetID string
type AllowanceID string
type FlagID string

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var sixty = decimal.NewFromInt(60)

// Hours converts whole minutes to decimal hours.
func Hours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(sixty)
}

// Dec is shorthand for decimal.NewFromFloat, mostly for presets and tests.
func Dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// DecPtr returns a pointer to a decimal, for optional rates.
func DecPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func money(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

func minDec(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func maxDec(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// =============================================================================
// BREAK
// =============================================================================

type BreakType string

const (
	BreakMeal  BreakType = "meal"
	BreakShort BreakType = "short"
	BreakOther BreakType = "other"
)

func (t BreakType) Valid() bool {
	switch t {
	case BreakMeal, BreakShort, BreakOther:
		return true
	}
	return false
}

// Break is a rest period inside a TimeEntry.
type Break struct {
	Start time.Time
	End   time.Time
	Type  BreakType
}

// DurationMinutes returns the break length, or 0 when End is not after Start.
func (b Break) DurationMinutes() int {
	if !b.End.After(b.Start) {
		return 0
	}
	return int(b.End.Sub(b.Start).Minutes())
}

// =============================================================================
// TIME ENTRY - One calendar day of work
// =============================================================================

// OnCallShift records on-call context for the day, used to resolve allowances.
type OnCallShift struct {
	WasCalledBack bool
	CallbackHours decimal.Decimal
}

// TimeEntry is one calendar day of work. Created on submission, immutable once
// the owning timesheet is approved.
type TimeEntry struct {
	Date           time.Time
	ClockIn        *time.Time
	ClockOut       *time.Time
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	Breaks         []Break
	Notes          string
	OnCall         *OnCallShift
}

// HasCompletePunch reports whether both clock-in and clock-out are present and ordered.
func (e TimeEntry) HasCompletePunch() bool {
	return e.ClockIn != nil && e.ClockOut != nil && e.ClockOut.After(*e.ClockIn)
}

// GrossMinutes is clock-out minus clock-in, or 0 without a complete punch.
func (e TimeEntry) GrossMinutes() int {
	if !e.HasCompletePunch() {
		return 0
	}
	return int(e.ClockOut.Sub(*e.ClockIn).Minutes())
}

func (e TimeEntry) BreakMinutes() int {
	total := 0
	for _, b := range e.Breaks {
		total += b.DurationMinutes()
	}
	return total
}

// NetMinutes is gross minus breaks, never negative.
func (e TimeEntry) NetMinutes() int {
	net := e.GrossMinutes() - e.BreakMinutes()
	if net < 0 {
		return 0
	}
	return net
}

// OvertimeMinutes is net time beyond the daily overtime threshold.
func (e TimeEntry) OvertimeMinutes(t Thresholds) int {
	t = t.WithDefaults()
	limit := t.OvertimeThresholdDaily.Mul(sixty).IntPart()
	over := int64(e.NetMinutes()) - limit
	if over < 0 {
		return 0
	}
	return int(over)
}

// Day returns the entry's calendar date as midnight UTC.
func (e TimeEntry) Day() time.Time {
	return truncateDay(e.Date)
}

// CalendarDay returns t's calendar date in its own location as midnight UTC,
// so a Monday in Sydney stays a Monday.
func CalendarDay(t time.Time) time.Time {
	return truncateDay(t)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// TIMESHEET - One employee-week
// =============================================================================

type TimesheetStatus string

const (
	TimesheetPending  TimesheetStatus = "pending"
	TimesheetApproved TimesheetStatus = "approved"
	TimesheetRejected TimesheetStatus = "rejected"
)

func (s TimesheetStatus) Valid() bool {
	switch s {
	case TimesheetPending, TimesheetApproved, TimesheetRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further approval action may change the status.
func (s TimesheetStatus) IsTerminal() bool {
	switch s {
	case TimesheetApproved, TimesheetRejected:
		return true
	default:
		return false
	}
}

// StartTimeBaseline is the employee's historical clock-in pattern, expressed in
// minutes after midnight. Supplied by the caller; used for pattern drift.
type StartTimeBaseline struct {
	MeanStartMinute float64
	StdDevMinutes   float64
}

type Timesheet struct {
	ID             TimesheetID
	EmployeeID     EmployeeID
	WeekStart      time.Time
	Entries        []TimeEntry
	Status         TimesheetStatus
	Allowances     []AppliedAllowance
	Classification string
	Baseline       *StartTimeBaseline
	SubmittedAt    time.Time
}

// WeekWindow returns the half-open [start, end) range of calendar days the
// timesheet covers, on the same scale as TimeEntry.Day.
func (ts Timesheet) WeekWindow() (time.Time, time.Time) {
	start := truncateDay(ts.WeekStart)
	return start, start.AddDate(0, 0, 7)
}

// SortedEntries returns a copy of the entries in date order.
func (ts Timesheet) SortedEntries() []TimeEntry {
	entries := make([]TimeEntry, len(ts.Entries))
	copy(entries, ts.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}

// TotalNetMinutes sums net minutes across all entries.
func (ts Timesheet) TotalNetMinutes() int {
	total := 0
	for _, e := range ts.Entries {
		total += e.NetMinutes()
	}
	return total
}

// DailyMinutesFromEntries builds HoursClassifier input from entries. Entries on
// the same calendar day are summed.
func DailyMinutesFromEntries(entries []TimeEntry) []DayMinutes {
	byDay := make(map[time.Time]int)
	var order []time.Time
	for _, e := range entries {
		d := e.Day()
		if _, ok := byDay[d]; !ok {
			order = append(order, d)
		}
		byDay[d] += e.NetMinutes()
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	out := make([]DayMinutes, len(order))
	for i, d := range order {
		out[i] = DayMinutes{Date: d, Minutes: byDay[d]}
	}
	return out
}
