/*
compliance.go - ComplianceValidator

PURPOSE:
  Inspects clock and break data against jurisdiction rules and produces
  severity-tagged flags plus an overall verdict. Flags are recomputed from
  scratch on every call; the only memory is the optional previous validation
  passed to RevalidateCompliance, used to keep corrected flags for audit.

PER-ENTRY CHECKS (each yields at most one flag, in this order):
  missing_clock_out   critical  clock-in without clock-out
  irregular_punch     critical  out-of-order punches, zero net time, stray breaks
  max_daily_hours     critical  net hours beyond MaxDailyHours
  early_clock_in      warning   clock-in before schedule minus tolerance
  late_clock_out      warning   clock-out after schedule plus tolerance
  missed_break        warning   total break below the requirement for the shift
  exceeded_break      warning   a single break above MaxBreakMinutes

WHOLE-TIMESHEET CHECKS:
  max_weekly_hours    critical  total beyond MaxWeeklyHours
  overtime_threshold  warning   total beyond OvertimeThresholdWeekly
  pattern_drift       info/warning, never blocking

VERDICT:
  IsCompliant    <=> no flag has severity critical
  BlockingIssues  =  descriptions of the critical flags, in flag order
*/
package award

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SEVERITY & FLAG TYPE
// =============================================================================

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Rank orders severities: info < warning < critical.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

type FlagType string

const (
	FlagMissingClockOut   FlagType = "missing_clock_out"
	FlagIrregularPunch    FlagType = "irregular_punch"
	FlagMaxDailyHours     FlagType = "max_daily_hours"
	FlagEarlyClockIn      FlagType = "early_clock_in"
	FlagLateClockOut      FlagType = "late_clock_out"
	FlagMissedBreak       FlagType = "missed_break"
	FlagExceededBreak     FlagType = "exceeded_break"
	FlagMaxWeeklyHours    FlagType = "max_weekly_hours"
	FlagOvertimeThreshold FlagType = "overtime_threshold"
	FlagPatternDrift      FlagType = "pattern_drift"
)

func (t FlagType) Valid() bool {
	switch t {
	case FlagMissingClockOut, FlagIrregularPunch, FlagMaxDailyHours,
		FlagEarlyClockIn, FlagLateClockOut, FlagMissedBreak, FlagExceededBreak,
		FlagMaxWeeklyHours, FlagOvertimeThreshold, FlagPatternDrift:
		return true
	}
	return false
}

// =============================================================================
// FLAG & VALIDATION
// =============================================================================

type ComplianceFlag struct {
	ID          FlagID
	Type        FlagType
	Severity    Severity
	Title       string
	Description string
	EntryDate   *time.Time

	// AutoResolved flags were raised by a previous validation but their
	// condition no longer holds. They are kept as info for audit display and
	// OriginalSeverity records what they were raised as.
	AutoResolved     bool
	OriginalSeverity Severity
}

type ComplianceValidation struct {
	IsCompliant    bool
	Flags          []ComplianceFlag
	BlockingIssues []string
}

// CountBySeverity counts flags with the given severity.
func (v ComplianceValidation) CountBySeverity(s Severity) int {
	n := 0
	for _, f := range v.Flags {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// WorstSeverity returns the highest severity present, or "" with no flags.
func (v ComplianceValidation) WorstSeverity() Severity {
	var worst Severity
	for _, f := range v.Flags {
		if worst == "" || f.Severity.Rank() > worst.Rank() {
			worst = f.Severity
		}
	}
	return worst
}

// flagNamespace scopes deterministic flag ids.
var flagNamespace = uuid.MustParse("6f1c0b1e-3d52-4a8e-9a0b-5d6f8e2c7a41")

func flagID(t FlagType, date *time.Time) FlagID {
	key := string(t)
	if date != nil {
		key += "|" + date.Format("2006-01-02")
	}
	return FlagID(uuid.NewSHA1(flagNamespace, []byte(key)).String())
}

func newFlag(t FlagType, sev Severity, date *time.Time, title, description string) ComplianceFlag {
	return ComplianceFlag{
		ID:               flagID(t, date),
		Type:             t,
		Severity:         sev,
		Title:            title,
		Description:      description,
		EntryDate:        date,
		OriginalSeverity: sev,
	}
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidateCompliance validates a timesheet against jurisdiction rules.
func ValidateCompliance(ts Timesheet, rules JurisdictionRules) ComplianceValidation {
	return RevalidateCompliance(ts, rules, nil)
}

// RevalidateCompliance validates like ValidateCompliance and additionally
// carries over flags from previous whose condition has since been corrected,
// marked AutoResolved.
func RevalidateCompliance(ts Timesheet, rules JurisdictionRules, previous *ComplianceValidation) ComplianceValidation {
	rules = rules.WithDefaults()

	var flags []ComplianceFlag
	for _, e := range ts.SortedEntries() {
		flags = append(flags, checkEntry(e, rules)...)
	}
	flags = append(flags, checkWeek(ts, rules)...)

	if previous != nil {
		raised := make(map[FlagID]bool, len(flags))
		for _, f := range flags {
			raised[f.ID] = true
		}
		for _, old := range previous.Flags {
			if raised[old.ID] {
				continue
			}
			resolved := old
			if !resolved.AutoResolved {
				resolved.OriginalSeverity = old.Severity
			}
			resolved.AutoResolved = true
			resolved.Severity = SeverityInfo
			flags = append(flags, resolved)
		}
	}

	return buildValidation(flags)
}

func buildValidation(flags []ComplianceFlag) ComplianceValidation {
	v := ComplianceValidation{IsCompliant: true, Flags: flags, BlockingIssues: []string{}}
	if v.Flags == nil {
		v.Flags = []ComplianceFlag{}
	}
	for _, f := range v.Flags {
		if f.Severity == SeverityCritical {
			v.IsCompliant = false
			v.BlockingIssues = append(v.BlockingIssues, f.Description)
		}
	}
	return v
}

// =============================================================================
// PER-ENTRY CHECKS
// =============================================================================

func checkEntry(e TimeEntry, rules JurisdictionRules) []ComplianceFlag {
	day := e.Day()
	date := &day
	label := day.Format("Mon 2 Jan")

	if e.ClockIn == nil && e.ClockOut == nil {
		return nil
	}

	if e.ClockIn != nil && e.ClockOut == nil {
		return []ComplianceFlag{newFlag(FlagMissingClockOut, SeverityCritical, date,
			"Missing clock-out",
			fmt.Sprintf("%s: clocked in at %s with no clock-out recorded", label, e.ClockIn.Format("15:04")))}
	}

	if reason := irregularPunch(e); reason != "" {
		return []ComplianceFlag{newFlag(FlagIrregularPunch, SeverityCritical, date,
			"Irregular punch pattern", fmt.Sprintf("%s: %s", label, reason))}
	}

	var flags []ComplianceFlag
	net := Hours(e.NetMinutes())
	if net.GreaterThan(rules.MaxDailyHours) {
		flags = append(flags, newFlag(FlagMaxDailyHours, SeverityCritical, date,
			"Maximum daily hours exceeded",
			fmt.Sprintf("%s: %s net hours exceeds the daily maximum of %s", label, net.StringFixed(2), rules.MaxDailyHours.String())))
	}

	tolerance := time.Duration(rules.ClockToleranceMinutes) * time.Minute
	if e.ScheduledStart != nil && e.ClockIn.Before(e.ScheduledStart.Add(-tolerance)) {
		early := int(e.ScheduledStart.Sub(*e.ClockIn).Minutes())
		flags = append(flags, newFlag(FlagEarlyClockIn, SeverityWarning, date,
			"Early clock-in",
			fmt.Sprintf("%s: clocked in %d minutes before the scheduled start %s", label, early, e.ScheduledStart.Format("15:04"))))
	}
	if e.ScheduledEnd != nil && e.ClockOut.After(e.ScheduledEnd.Add(tolerance)) {
		late := int(e.ClockOut.Sub(*e.ScheduledEnd).Minutes())
		flags = append(flags, newFlag(FlagLateClockOut, SeverityWarning, date,
			"Late clock-out",
			fmt.Sprintf("%s: clocked out %d minutes after the scheduled end %s", label, late, e.ScheduledEnd.Format("15:04"))))
	}

	if required := rules.RequiredBreakMinutes(e.GrossMinutes()); e.BreakMinutes() < required {
		flags = append(flags, newFlag(FlagMissedBreak, SeverityWarning, date,
			"Insufficient break",
			fmt.Sprintf("%s: %d minutes of break taken, %d required for a %s hour shift",
				label, e.BreakMinutes(), required, Hours(e.GrossMinutes()).StringFixed(2))))
	}

	for _, b := range e.Breaks {
		if b.DurationMinutes() > rules.MaxBreakMinutes {
			flags = append(flags, newFlag(FlagExceededBreak, SeverityWarning, date,
				"Break too long",
				fmt.Sprintf("%s: %s break of %d minutes exceeds the %d minute maximum",
					label, b.Type, b.DurationMinutes(), rules.MaxBreakMinutes)))
			break
		}
	}

	return flags
}

// irregularPunch returns a reason when the punches cannot describe real work.
func irregularPunch(e TimeEntry) string {
	if e.ClockIn == nil {
		return "clock-out recorded without a clock-in"
	}
	if !e.ClockOut.After(*e.ClockIn) {
		return fmt.Sprintf("clock-out %s is not after clock-in %s", e.ClockOut.Format("15:04"), e.ClockIn.Format("15:04"))
	}
	for _, b := range e.Breaks {
		if !b.End.After(b.Start) {
			return fmt.Sprintf("break starting %s ends before it starts", b.Start.Format("15:04"))
		}
		if b.Start.Before(*e.ClockIn) || b.End.After(*e.ClockOut) {
			return fmt.Sprintf("break %s-%s falls outside the shift", b.Start.Format("15:04"), b.End.Format("15:04"))
		}
	}
	if e.NetMinutes() == 0 {
		return "zero net hours despite a recorded clock-in"
	}
	return ""
}

// =============================================================================
// WHOLE-TIMESHEET CHECKS
// =============================================================================

func checkWeek(ts Timesheet, rules JurisdictionRules) []ComplianceFlag {
	var flags []ComplianceFlag

	total := Hours(ts.TotalNetMinutes())
	switch {
	case total.GreaterThan(rules.MaxWeeklyHours):
		flags = append(flags, newFlag(FlagMaxWeeklyHours, SeverityCritical, nil,
			"Maximum weekly hours exceeded",
			fmt.Sprintf("%s hours worked exceeds the weekly maximum of %s", total.StringFixed(2), rules.MaxWeeklyHours.String())))
	case total.GreaterThan(rules.OvertimeThresholdWeekly):
		flags = append(flags, newFlag(FlagOvertimeThreshold, SeverityWarning, nil,
			"Weekly overtime",
			fmt.Sprintf("%s hours worked exceeds the weekly overtime threshold of %s", total.StringFixed(2), rules.OvertimeThresholdWeekly.String())))
	}

	if f, ok := patternDrift(ts, rules); ok {
		flags = append(flags, f)
	}
	return flags
}

// patternDrift compares this week's clock-in times with the employee baseline.
// Drift is the larger of the mean shift and the growth in spread.
func patternDrift(ts Timesheet, rules JurisdictionRules) (ComplianceFlag, bool) {
	if ts.Baseline == nil {
		return ComplianceFlag{}, false
	}

	var starts []float64
	for _, e := range ts.Entries {
		if e.ClockIn == nil {
			continue
		}
		starts = append(starts, float64(e.ClockIn.Hour()*60+e.ClockIn.Minute()))
	}
	if len(starts) < 2 {
		return ComplianceFlag{}, false
	}

	mean, std := meanStdDev(starts)
	drift := math.Max(math.Abs(mean-ts.Baseline.MeanStartMinute), std-ts.Baseline.StdDevMinutes)

	var sev Severity
	switch {
	case drift > float64(rules.PatternDriftWarningMinutes):
		sev = SeverityWarning
	case drift > float64(rules.PatternDriftInfoMinutes):
		sev = SeverityInfo
	default:
		return ComplianceFlag{}, false
	}

	return newFlag(FlagPatternDrift, sev, nil, "Start time pattern drift",
		fmt.Sprintf("start times drift %.0f minutes from the usual pattern (mean %s, spread %.0f min)",
			drift, minuteOfDay(mean), std)), true
}

func meanStdDev(xs []float64) (float64, float64) {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

func minuteOfDay(m float64) string {
	total := int(math.Round(m))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
