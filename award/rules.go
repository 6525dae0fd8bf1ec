/*
rules.go - Jurisdiction rule configuration

PURPOSE:
  The externally configured thresholds every component reads: overtime
  thresholds, the double-time ceiling, break requirements, clock tolerance
  and pattern drift sensitivity.

CONFIGURATION GAPS:
  A zero value means "not configured". WithDefaults() fills every gap with the
  documented default below, so a missing threshold is never an error.

  OvertimeThresholdDaily   8h     MaxDailyHours        12h
  OvertimeThresholdWeekly  38h    MaxWeeklyHours       50h
  OvertimeMultiplier       1.5    DoubleTimeMultiplier 2
  MaxBreakMinutes          60     ClockToleranceMinutes 15
  PatternDriftInfoMinutes  30     PatternDriftWarningMinutes 60
  BreakRequirements        >5h: 30 min, >10h: 60 min
*/
package award

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Thresholds drive the HoursClassifier.
type Thresholds struct {
	MaxDailyHours           decimal.Decimal // double time beyond this
	OvertimeThresholdDaily  decimal.Decimal
	MaxWeeklyHours          decimal.Decimal
	OvertimeThresholdWeekly decimal.Decimal
	OvertimeMultiplier      decimal.Decimal
	DoubleTimeMultiplier    decimal.Decimal
}

var (
	DefaultMaxDailyHours           = decimal.NewFromInt(12)
	DefaultOvertimeThresholdDaily  = decimal.NewFromInt(8)
	DefaultMaxWeeklyHours          = decimal.NewFromInt(50)
	DefaultOvertimeThresholdWeekly = decimal.NewFromInt(38)
	DefaultOvertimeMultiplier      = decimal.NewFromFloat(1.5)
	DefaultDoubleTimeMultiplier    = decimal.NewFromInt(2)
)

// WithDefaults fills unset thresholds and clamps MaxDailyHours so it is never
// below the daily overtime threshold.
func (t Thresholds) WithDefaults() Thresholds {
	if !t.OvertimeThresholdDaily.IsPositive() {
		t.OvertimeThresholdDaily = DefaultOvertimeThresholdDaily
	}
	if !t.MaxDailyHours.IsPositive() {
		t.MaxDailyHours = DefaultMaxDailyHours
	}
	if t.MaxDailyHours.LessThan(t.OvertimeThresholdDaily) {
		t.MaxDailyHours = t.OvertimeThresholdDaily
	}
	if !t.OvertimeThresholdWeekly.IsPositive() {
		t.OvertimeThresholdWeekly = DefaultOvertimeThresholdWeekly
	}
	if !t.MaxWeeklyHours.IsPositive() {
		t.MaxWeeklyHours = DefaultMaxWeeklyHours
	}
	if !t.OvertimeMultiplier.IsPositive() {
		t.OvertimeMultiplier = DefaultOvertimeMultiplier
	}
	if !t.DoubleTimeMultiplier.IsPositive() {
		t.DoubleTimeMultiplier = DefaultDoubleTimeMultiplier
	}
	return t
}

// BreakRequirement: shifts longer than ShiftOverHours need at least
// MinBreakMinutes of total break.
type BreakRequirement struct {
	ShiftOverHours  decimal.Decimal
	MinBreakMinutes int
}

// JurisdictionRules is the full rule set for one jurisdiction/award.
type JurisdictionRules struct {
	Thresholds

	BreakRequirements          []BreakRequirement
	MaxBreakMinutes            int
	ClockToleranceMinutes      int
	PatternDriftInfoMinutes    int
	PatternDriftWarningMinutes int
}

func defaultBreakRequirements() []BreakRequirement {
	return []BreakRequirement{
		{ShiftOverHours: decimal.NewFromInt(5), MinBreakMinutes: 30},
		{ShiftOverHours: decimal.NewFromInt(10), MinBreakMinutes: 60},
	}
}

// WithDefaults returns a copy with every configuration gap filled.
func (r JurisdictionRules) WithDefaults() JurisdictionRules {
	r.Thresholds = r.Thresholds.WithDefaults()
	if len(r.BreakRequirements) == 0 {
		r.BreakRequirements = defaultBreakRequirements()
	} else {
		reqs := make([]BreakRequirement, len(r.BreakRequirements))
		copy(reqs, r.BreakRequirements)
		r.BreakRequirements = reqs
	}
	sort.SliceStable(r.BreakRequirements, func(i, j int) bool {
		return r.BreakRequirements[i].ShiftOverHours.LessThan(r.BreakRequirements[j].ShiftOverHours)
	})
	if r.MaxBreakMinutes <= 0 {
		r.MaxBreakMinutes = 60
	}
	if r.ClockToleranceMinutes <= 0 {
		r.ClockToleranceMinutes = 15
	}
	if r.PatternDriftInfoMinutes <= 0 {
		r.PatternDriftInfoMinutes = 30
	}
	if r.PatternDriftWarningMinutes <= 0 {
		r.PatternDriftWarningMinutes = 60
	}
	if r.PatternDriftWarningMinutes < r.PatternDriftInfoMinutes {
		r.PatternDriftWarningMinutes = r.PatternDriftInfoMinutes
	}
	return r
}

// RequiredBreakMinutes returns the minimum total break for a shift of the
// given gross length: the largest requirement whose threshold is exceeded.
func (r JurisdictionRules) RequiredBreakMinutes(grossMinutes int) int {
	shift := Hours(grossMinutes)
	required := 0
	for _, req := range r.BreakRequirements {
		if shift.GreaterThan(req.ShiftOverHours) && req.MinBreakMinutes > required {
			required = req.MinBreakMinutes
		}
	}
	return required
}
