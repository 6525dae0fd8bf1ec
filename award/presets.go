/*
presets.go - Pre-built award configurations

PURPOSE:
  Ready-to-use jurisdiction rules and on-call allowance sets for the common
  shift-work award pattern. Starting points only; real awards override rates
  and thresholds through factory/ JSON or config.

AVAILABLE PRESETS:
  StandardJurisdiction:     8h/38h overtime, 12h/50h ceilings, 30/60 min breaks
  StandardOnCallAllowances: standby + callback + recall + emergency

EXAMPLE:
  rules := award.StandardJurisdiction()
  allowances := award.StandardOnCallAllowances(award.Dec(15.42), award.Dec(52.50), award.Dec(70))
  res := award.ResolveAllowances(allowances, award.ShiftContext{WasCalledBack: true, CallbackHours: award.Dec(1.5)})

SEE ALSO:
  - factory/rules.go: JSON-based rule creation
*/
package award

import "github.com/shopspring/decimal"

// StandardJurisdiction returns the default rule set with every value explicit.
func StandardJurisdiction() JurisdictionRules {
	return JurisdictionRules{
		Thresholds: Thresholds{
			MaxDailyHours:           DefaultMaxDailyHours,
			OvertimeThresholdDaily:  DefaultOvertimeThresholdDaily,
			MaxWeeklyHours:          DefaultMaxWeeklyHours,
			OvertimeThresholdWeekly: DefaultOvertimeThresholdWeekly,
			OvertimeMultiplier:      DefaultOvertimeMultiplier,
			DoubleTimeMultiplier:    DefaultDoubleTimeMultiplier,
		},
		BreakRequirements:          defaultBreakRequirements(),
		MaxBreakMinutes:            60,
		ClockToleranceMinutes:      15,
		PatternDriftInfoMinutes:    30,
		PatternDriftWarningMinutes: 60,
	}
}

// StandardOnCallAllowances returns the four standard on-call allowances.
//
//	standby    p1 stackable, weekend 1.5x, public holiday 2x
//	callback   p2 stackable, excludes recall, 2h minimum
//	recall     p3 non-stackable, excludes callback, 3h minimum
//	emergency  p4 stackable, 4h minimum, 1.5x rate, inactive until enabled
func StandardOnCallAllowances(standbyRate, callbackRate, recallRate decimal.Decimal) []AllowanceRule {
	weekend := standbyRate.Mul(decimal.NewFromFloat(1.5))
	phMultiplier := decimal.NewFromInt(2)
	callbackMin := decimal.NewFromInt(2)
	recallMin := decimal.NewFromInt(3)
	emergencyMin := decimal.NewFromInt(4)
	emergencyMultiplier := decimal.NewFromFloat(1.5)

	return []AllowanceRule{
		{
			ID:                      "standby",
			Name:                    "Standby Allowance",
			TriggerType:             TriggerStandby,
			Rate:                    standbyRate,
			WeekendRate:             &weekend,
			PublicHolidayMultiplier: &phMultiplier,
			Stackable:               true,
			Priority:                1,
			IsActive:                true,
		},
		{
			ID:                   "callback",
			Name:                 "Callback Allowance",
			TriggerType:          TriggerCallback,
			Rate:                 callbackRate,
			Stackable:            true,
			ExcludesWith:         []AllowanceID{"recall"},
			Priority:             2,
			CallbackMinimumHours: &callbackMin,
			IsActive:             true,
		},
		{
			ID:                   "recall",
			Name:                 "Recall to Duty",
			TriggerType:          TriggerRecall,
			Rate:                 recallRate,
			Stackable:            false,
			ExcludesWith:         []AllowanceID{"callback"},
			Priority:             3,
			CallbackMinimumHours: &recallMin,
			IsActive:             true,
		},
		{
			ID:                     "emergency",
			Name:                   "Emergency Callout",
			TriggerType:            TriggerEmergency,
			Rate:                   recallRate,
			Stackable:              true,
			Priority:               4,
			CallbackMinimumHours:   &emergencyMin,
			CallbackRateMultiplier: &emergencyMultiplier,
			IsActive:               false,
		},
	}
}
