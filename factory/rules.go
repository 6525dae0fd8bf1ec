/*
Package factory provides JSON to Go award rule conversion.

PURPOSE:
  Converts JSON rule definitions into award.AllowanceRule and
  award.JurisdictionRules values. Payroll administrators configure allowances
  and jurisdiction thresholds in JSON (admin API, seed files) and the factory
  creates the engine structs.

JSON SCHEMA (allowance rule):
  {
    "id": "callback",
    "name": "Callback Allowance",
    "trigger_type": "callback",
    "rate": "52.50",
    "stackable": true,
    "excludes_with": ["recall"],
    "priority": 2,
    "callback_minimum_hours": 2,
    "is_active": true
  }

JSON SCHEMA (jurisdiction):
  {
    "max_daily_hours": 12,
    "overtime_threshold_daily": 8,
    "max_weekly_hours": 50,
    "overtime_threshold_weekly": 38,
    "overtime_multiplier": 1.5,
    "double_time_multiplier": 2,
    "break_requirements": [{"shift_over_hours": 5, "min_break_minutes": 30}],
    "max_break_minutes": 60,
    "clock_tolerance_minutes": 15,
    "pattern_drift_info_minutes": 30,
    "pattern_drift_warning_minutes": 60
  }

  Amounts accept JSON numbers or strings. Missing fields are configuration
  gaps and fall back to the engine defaults.

USAGE:
  f := factory.NewRuleFactory()
  rules, err := f.ParseAllowanceRules(jsonString)
  jurisdiction, err := f.ParseJurisdiction(jsonString)

SEE ALSO:
  - award/allowance.go: AllowanceRule definition
  - award/rules.go: JurisdictionRules and its defaults
  - award/presets.go: Go-based preset rule sets
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// AllowanceRuleJSON is the JSON representation of an allowance rule.
type AllowanceRuleJSON struct {
	ID                      string           `json:"id"`
	Name                    string           `json:"name"`
	TriggerType             string           `json:"trigger_type"`
	Rate                    decimal.Decimal  `json:"rate"`
	WeekendRate             *decimal.Decimal `json:"weekend_rate,omitempty"`
	PublicHolidayMultiplier *decimal.Decimal `json:"public_holiday_multiplier,omitempty"`
	Stackable               bool             `json:"stackable"`
	ExcludesWith            []string         `json:"excludes_with,omitempty"`
	Priority                int              `json:"priority"`
	CallbackMinimumHours    *decimal.Decimal `json:"callback_minimum_hours,omitempty"`
	CallbackRateMultiplier  *decimal.Decimal `json:"callback_rate_multiplier,omitempty"`
	IsActive                *bool            `json:"is_active,omitempty"` // default true
}

// JurisdictionJSON is the JSON representation of jurisdiction rules.
type JurisdictionJSON struct {
	MaxDailyHours              *decimal.Decimal       `json:"max_daily_hours,omitempty"`
	OvertimeThresholdDaily     *decimal.Decimal       `json:"overtime_threshold_daily,omitempty"`
	MaxWeeklyHours             *decimal.Decimal       `json:"max_weekly_hours,omitempty"`
	OvertimeThresholdWeekly    *decimal.Decimal       `json:"overtime_threshold_weekly,omitempty"`
	OvertimeMultiplier         *decimal.Decimal       `json:"overtime_multiplier,omitempty"`
	DoubleTimeMultiplier       *decimal.Decimal       `json:"double_time_multiplier,omitempty"`
	BreakRequirements          []BreakRequirementJSON `json:"break_requirements,omitempty"`
	MaxBreakMinutes            int                    `json:"max_break_minutes,omitempty"`
	ClockToleranceMinutes      int                    `json:"clock_tolerance_minutes,omitempty"`
	PatternDriftInfoMinutes    int                    `json:"pattern_drift_info_minutes,omitempty"`
	PatternDriftWarningMinutes int                    `json:"pattern_drift_warning_minutes,omitempty"`
}

// BreakRequirementJSON represents one break requirement tier.
type BreakRequirementJSON struct {
	ShiftOverHours  decimal.Decimal `json:"shift_over_hours"`
	MinBreakMinutes int             `json:"min_break_minutes"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts JSON rule definitions to engine structs.
type RuleFactory struct{}

// NewRuleFactory creates a new rule factory.
func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

// ParseAllowanceRule parses a single JSON allowance rule.
func (f *RuleFactory) ParseAllowanceRule(jsonStr string) (award.AllowanceRule, error) {
	var rj AllowanceRuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return award.AllowanceRule{}, fmt.Errorf("failed to parse allowance rule JSON: %w", err)
	}
	return f.AllowanceRuleFromJSON(rj)
}

// ParseAllowanceRules parses a JSON array of allowance rules.
func (f *RuleFactory) ParseAllowanceRules(jsonStr string) ([]award.AllowanceRule, error) {
	var rjs []AllowanceRuleJSON
	if err := json.Unmarshal([]byte(jsonStr), &rjs); err != nil {
		return nil, fmt.Errorf("failed to parse allowance rules JSON: %w", err)
	}

	rules := make([]award.AllowanceRule, 0, len(rjs))
	for i, rj := range rjs {
		rule, err := f.AllowanceRuleFromJSON(rj)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// AllowanceRuleFromJSON converts AllowanceRuleJSON to an award.AllowanceRule.
func (f *RuleFactory) AllowanceRuleFromJSON(rj AllowanceRuleJSON) (award.AllowanceRule, error) {
	if strings.TrimSpace(rj.ID) == "" {
		return award.AllowanceRule{}, fmt.Errorf("allowance rule requires id")
	}
	trigger, err := award.ParseTriggerType(rj.TriggerType)
	if err != nil {
		return award.AllowanceRule{}, err
	}

	rule := award.AllowanceRule{
		ID:                      award.AllowanceID(rj.ID),
		Name:                    rj.Name,
		TriggerType:             trigger,
		Rate:                    rj.Rate,
		WeekendRate:             rj.WeekendRate,
		PublicHolidayMultiplier: rj.PublicHolidayMultiplier,
		Stackable:               rj.Stackable,
		Priority:                rj.Priority,
		CallbackMinimumHours:    rj.CallbackMinimumHours,
		CallbackRateMultiplier:  rj.CallbackRateMultiplier,
		IsActive:                rj.IsActive == nil || *rj.IsActive,
	}
	if rule.Name == "" {
		rule.Name = rj.ID
	}
	for _, id := range rj.ExcludesWith {
		rule.ExcludesWith = append(rule.ExcludesWith, award.AllowanceID(id))
	}
	return rule, nil
}

// AllowanceRuleToJSON converts an award.AllowanceRule to AllowanceRuleJSON.
func (f *RuleFactory) AllowanceRuleToJSON(rule award.AllowanceRule) AllowanceRuleJSON {
	active := rule.IsActive
	rj := AllowanceRuleJSON{
		ID:                      string(rule.ID),
		Name:                    rule.Name,
		TriggerType:             string(rule.TriggerType),
		Rate:                    rule.Rate,
		WeekendRate:             rule.WeekendRate,
		PublicHolidayMultiplier: rule.PublicHolidayMultiplier,
		Stackable:               rule.Stackable,
		Priority:                rule.Priority,
		CallbackMinimumHours:    rule.CallbackMinimumHours,
		CallbackRateMultiplier:  rule.CallbackRateMultiplier,
		IsActive:                &active,
	}
	for _, id := range rule.ExcludesWith {
		rj.ExcludesWith = append(rj.ExcludesWith, string(id))
	}
	return rj
}

// ParseJurisdiction parses JSON jurisdiction rules. Gaps are filled with the
// engine defaults.
func (f *RuleFactory) ParseJurisdiction(jsonStr string) (award.JurisdictionRules, error) {
	var jj JurisdictionJSON
	if err := json.Unmarshal([]byte(jsonStr), &jj); err != nil {
		return award.JurisdictionRules{}, fmt.Errorf("failed to parse jurisdiction JSON: %w", err)
	}
	return f.JurisdictionFromJSON(jj), nil
}

// JurisdictionFromJSON converts JurisdictionJSON to award.JurisdictionRules.
func (f *RuleFactory) JurisdictionFromJSON(jj JurisdictionJSON) award.JurisdictionRules {
	r := award.JurisdictionRules{
		Thresholds: award.Thresholds{
			MaxDailyHours:           valueOrZero(jj.MaxDailyHours),
			OvertimeThresholdDaily:  valueOrZero(jj.OvertimeThresholdDaily),
			MaxWeeklyHours:          valueOrZero(jj.MaxWeeklyHours),
			OvertimeThresholdWeekly: valueOrZero(jj.OvertimeThresholdWeekly),
			OvertimeMultiplier:      valueOrZero(jj.OvertimeMultiplier),
			DoubleTimeMultiplier:    valueOrZero(jj.DoubleTimeMultiplier),
		},
		MaxBreakMinutes:            jj.MaxBreakMinutes,
		ClockToleranceMinutes:      jj.ClockToleranceMinutes,
		PatternDriftInfoMinutes:    jj.PatternDriftInfoMinutes,
		PatternDriftWarningMinutes: jj.PatternDriftWarningMinutes,
	}
	for _, b := range jj.BreakRequirements {
		r.BreakRequirements = append(r.BreakRequirements, award.BreakRequirement{
			ShiftOverHours:  b.ShiftOverHours,
			MinBreakMinutes: b.MinBreakMinutes,
		})
	}
	return r.WithDefaults()
}

// JurisdictionToJSON converts award.JurisdictionRules to JurisdictionJSON with
// every default made explicit.
func (f *RuleFactory) JurisdictionToJSON(r award.JurisdictionRules) JurisdictionJSON {
	r = r.WithDefaults()
	jj := JurisdictionJSON{
		MaxDailyHours:              &r.MaxDailyHours,
		OvertimeThresholdDaily:     &r.OvertimeThresholdDaily,
		MaxWeeklyHours:             &r.MaxWeeklyHours,
		OvertimeThresholdWeekly:    &r.OvertimeThresholdWeekly,
		OvertimeMultiplier:         &r.OvertimeMultiplier,
		DoubleTimeMultiplier:       &r.DoubleTimeMultiplier,
		MaxBreakMinutes:            r.MaxBreakMinutes,
		ClockToleranceMinutes:      r.ClockToleranceMinutes,
		PatternDriftInfoMinutes:    r.PatternDriftInfoMinutes,
		PatternDriftWarningMinutes: r.PatternDriftWarningMinutes,
	}
	for _, b := range r.BreakRequirements {
		jj.BreakRequirements = append(jj.BreakRequirements, BreakRequirementJSON{
			ShiftOverHours:  b.ShiftOverHours,
			MinBreakMinutes: b.MinBreakMinutes,
		})
	}
	return jj
}

// =============================================================================
// PRESETS AS JSON
// =============================================================================

// StandardOnCallAllowancesJSON returns award.StandardOnCallAllowances as a
// JSON array, ready to seed a store or edit by hand.
func StandardOnCallAllowancesJSON(standbyRate, callbackRate, recallRate decimal.Decimal) string {
	f := NewRuleFactory()
	rules := award.StandardOnCallAllowances(standbyRate, callbackRate, recallRate)
	out := make([]AllowanceRuleJSON, len(rules))
	for i, r := range rules {
		out[i] = f.AllowanceRuleToJSON(r)
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	return string(b)
}

// StandardJurisdictionJSON returns award.StandardJurisdiction as JSON.
func StandardJurisdictionJSON() string {
	b, _ := json.MarshalIndent(NewRuleFactory().JurisdictionToJSON(award.StandardJurisdiction()), "", "  ")
	return string(b)
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
