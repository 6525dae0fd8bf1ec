package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "./data/awards.db", cfg.Database.Path)
	assert.Nil(t, cfg.Award.MaxDailyHours)
	assert.True(t, cfg.Award.DefaultStandbyRate.Equal(decimal.NewFromInt(25)))
	assert.Equal(t, 24*time.Hour, cfg.Award.SLA[award.TierManager])
	assert.Equal(t, 48*time.Hour, cfg.Award.SLA[award.TierSeniorManager])
	assert.Equal(t, 15*time.Minute, cfg.Award.SLACheckInterval)

	// Gaps resolve to the engine defaults
	rules, err := cfg.Jurisdiction()
	require.NoError(t, err)
	assert.True(t, rules.MaxDailyHours.Equal(award.DefaultMaxDailyHours))
	assert.True(t, rules.OvertimeThresholdWeekly.Equal(award.DefaultOvertimeThresholdWeekly))
}

func TestLoad_EnvOverrides(t *testing.T) {
	// GIVEN: Thresholds, rates and an SLA set in the environment
	t.Setenv("APP_PORT", "9090")
	t.Setenv("MAX_DAILY_HOURS", "11")
	t.Setenv("OVERTIME_THRESHOLD_DAILY", "7.6")
	t.Setenv("CALLBACK_MINIMUM_HOURS", "3")
	t.Setenv("DEFAULT_STANDBY_RATE", "30")
	t.Setenv("SLA_MANAGER_HOURS", "8")
	t.Setenv("DIRECTOR_PAY_THRESHOLD", "5000")

	cfg, err := Load()
	require.NoError(t, err)

	// THEN: They flow into the engine rules
	assert.Equal(t, 9090, cfg.App.Port)
	rules, err := cfg.Jurisdiction()
	require.NoError(t, err)
	assert.True(t, rules.MaxDailyHours.Equal(decimal.NewFromInt(11)))
	assert.True(t, rules.OvertimeThresholdDaily.Equal(decimal.RequireFromString("7.6")))

	assert.Equal(t, 8*time.Hour, cfg.SLAPolicy().For(award.TierManager))
	assert.Equal(t, 72*time.Hour, cfg.SLAPolicy().For(award.TierHR))
	require.NotNil(t, cfg.Award.DirectorPayThreshold)
	assert.True(t, cfg.Award.DirectorPayThreshold.Equal(decimal.NewFromInt(5000)))

	allowances, err := cfg.Allowances()
	require.NoError(t, err)
	for _, r := range allowances {
		switch r.ID {
		case "standby":
			assert.True(t, r.Rate.Equal(decimal.NewFromInt(30)))
		case "callback":
			require.NotNil(t, r.CallbackMinimumHours)
			assert.True(t, r.CallbackMinimumHours.Equal(decimal.NewFromInt(3)))
		}
	}
}

func TestSLAPolicy_IndependentOfCheckInterval(t *testing.T) {
	// GIVEN: The monitor switched off and one tier overridden
	t.Setenv("SLA_CHECK_INTERVAL", "0")
	t.Setenv("SLA_SENIOR_MANAGER_HOURS", "12")

	cfg, err := Load()
	require.NoError(t, err)

	// THEN: The policy still carries every tier
	policy := cfg.SLAPolicy()
	assert.Equal(t, time.Duration(0), cfg.Award.SLACheckInterval)
	assert.Equal(t, 24*time.Hour, policy.For(award.TierManager))
	assert.Equal(t, 12*time.Hour, policy.For(award.TierSeniorManager))
	assert.Equal(t, 72*time.Hour, policy.For(award.TierDirector))
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"APP_PORT", "http"},
		{"APP_PORT", "70000"},
		{"MAX_WEEKLY_HOURS", "lots"},
		{"MAX_WEEKLY_HOURS", "-1"},
		{"DEFAULT_RECALL_RATE", "-5"},
		{"SLA_HR_HOURS", "0"},
		{"SLA_DIRECTOR_HOURS", "soon"},
		{"SLA_CHECK_INTERVAL", "hourly"},
		{"SLA_CHECK_INTERVAL", "-5m"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			assert.Error(t, err)
		})
	}
}

func TestJurisdiction_RulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"overtime_threshold_weekly": 40, "max_break_minutes": 45}`), 0o644))
	t.Setenv("AWARD_RULES_FILE", path)
	t.Setenv("OVERTIME_THRESHOLD_WEEKLY", "36")

	cfg, err := Load()
	require.NoError(t, err)
	rules, err := cfg.Jurisdiction()

	// THEN: The file wins over env thresholds
	require.NoError(t, err)
	assert.True(t, rules.OvertimeThresholdWeekly.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 45, rules.MaxBreakMinutes)
}

func TestAllowances_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowances.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "standby", "trigger_type": "standby", "rate": 18}]`), 0o644))
	t.Setenv("ALLOWANCES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	rules, err := cfg.Allowances()

	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].Rate.Equal(decimal.NewFromInt(18)))
}

func TestAllowances_MissingFile(t *testing.T) {
	t.Setenv("ALLOWANCES_FILE", filepath.Join(t.TempDir(), "nope.json"))

	cfg, err := Load()
	require.NoError(t, err)
	_, err = cfg.Allowances()

	assert.Error(t, err)
}
