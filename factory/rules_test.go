package factory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
)

func TestParseAllowanceRule(t *testing.T) {
	f := NewRuleFactory()

	// GIVEN: A callback rule with string and number amounts
	rule, err := f.ParseAllowanceRule(`{
		"id": "callback",
		"name": "Callback Allowance",
		"trigger_type": "callback",
		"rate": "52.50",
		"stackable": true,
		"excludes_with": ["recall"],
		"priority": 2,
		"callback_minimum_hours": 1
	}`)

	// THEN: Converted with is_active defaulting to true
	require.NoError(t, err)
	assert.Equal(t, award.AllowanceID("callback"), rule.ID)
	assert.Equal(t, award.TriggerCallback, rule.TriggerType)
	assert.True(t, rule.Rate.Equal(decimal.RequireFromString("52.50")))
	assert.True(t, rule.Stackable)
	assert.Equal(t, []award.AllowanceID{"recall"}, rule.ExcludesWith)
	assert.Equal(t, 2, rule.Priority)
	require.NotNil(t, rule.CallbackMinimumHours)
	assert.True(t, rule.CallbackMinimumHours.Equal(decimal.NewFromInt(1)))
	assert.Nil(t, rule.WeekendRate)
	assert.True(t, rule.IsActive)
}

func TestParseAllowanceRule_Errors(t *testing.T) {
	f := NewRuleFactory()

	tests := []struct {
		name string
		json string
	}{
		{"malformed", `{"id": `},
		{"missing id", `{"trigger_type": "standby", "rate": 10}`},
		{"unknown trigger", `{"id": "x", "trigger_type": "pager", "rate": 10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseAllowanceRule(tt.json)
			assert.Error(t, err)
		})
	}

	_, err := f.ParseAllowanceRule(`{"id": "x", "trigger_type": "pager"}`)
	assert.True(t, award.IsClientError(err))
}

func TestParseAllowanceRules_ExplicitInactive(t *testing.T) {
	f := NewRuleFactory()

	rules, err := f.ParseAllowanceRules(`[
		{"id": "standby", "trigger_type": "standby", "rate": 25},
		{"id": "emergency", "trigger_type": "emergency", "rate": 80, "is_active": false}
	]`)

	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.True(t, rules[0].IsActive)
	assert.Equal(t, "standby", rules[0].Name, "name defaults to id")
	assert.False(t, rules[1].IsActive)
}

func TestParseAllowanceRules_ReportsIndex(t *testing.T) {
	f := NewRuleFactory()

	_, err := f.ParseAllowanceRules(`[{"id": "a", "trigger_type": "standby"}, {"id": "b", "trigger_type": "nope"}]`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 1")
}

func TestStandardOnCallAllowancesJSON_RoundTrips(t *testing.T) {
	f := NewRuleFactory()
	want := award.StandardOnCallAllowances(decimal.NewFromInt(20), decimal.RequireFromString("52.50"), decimal.NewFromInt(60))

	// WHEN: The preset is rendered as JSON and parsed back
	got, err := f.ParseAllowanceRules(StandardOnCallAllowancesJSON(decimal.NewFromInt(20), decimal.RequireFromString("52.50"), decimal.NewFromInt(60)))

	// THEN: Resolution is identical for every context
	require.NoError(t, err)
	require.Len(t, got, len(want))
	contexts := []award.ShiftContext{
		{},
		{IsWeekend: true},
		{IsPublicHoliday: true, WasCalledBack: true, CallbackHours: decimal.NewFromFloat(1.5)},
		{WasCalledBack: true, CallbackHours: decimal.NewFromInt(5)},
	}
	for _, ctx := range contexts {
		a := award.ResolveAllowances(want, ctx)
		b := award.ResolveAllowances(got, ctx)
		assert.True(t, a.TotalPay.Equal(b.TotalPay), "ctx %+v: %s vs %s", ctx, a.TotalPay, b.TotalPay)
	}
}

func TestParseJurisdiction_FillsGaps(t *testing.T) {
	f := NewRuleFactory()

	// GIVEN: Only the daily threshold and one break tier configured
	rules, err := f.ParseJurisdiction(`{
		"overtime_threshold_daily": "7.6",
		"break_requirements": [{"shift_over_hours": 6, "min_break_minutes": 45}]
	}`)

	require.NoError(t, err)
	assert.True(t, rules.OvertimeThresholdDaily.Equal(decimal.RequireFromString("7.6")))
	assert.True(t, rules.MaxDailyHours.Equal(award.DefaultMaxDailyHours))
	assert.True(t, rules.OvertimeThresholdWeekly.Equal(award.DefaultOvertimeThresholdWeekly))
	assert.Equal(t, 15, rules.ClockToleranceMinutes)
	require.Len(t, rules.BreakRequirements, 1)
	assert.Equal(t, 45, rules.RequiredBreakMinutes(7*60))
}

func TestStandardJurisdictionJSON_RoundTrips(t *testing.T) {
	f := NewRuleFactory()

	rules, err := f.ParseJurisdiction(StandardJurisdictionJSON())

	require.NoError(t, err)
	want := award.StandardJurisdiction()
	assert.True(t, rules.MaxWeeklyHours.Equal(want.MaxWeeklyHours))
	assert.True(t, rules.OvertimeMultiplier.Equal(want.OvertimeMultiplier))
	assert.Equal(t, want.PatternDriftWarningMinutes, rules.PatternDriftWarningMinutes)
	assert.Len(t, rules.BreakRequirements, len(want.BreakRequirements))
}
