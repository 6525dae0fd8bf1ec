// Package config loads process configuration from the environment.
//
// Values come from a .env file when present, then the process environment.
// Award thresholds left unset fall back to the engine defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/factory"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Award    AwardConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Version  string
}

type DatabaseConfig struct {
	Path string
}

// AwardConfig is the jurisdiction and allowance source. Nil thresholds are
// configuration gaps.
type AwardConfig struct {
	MaxDailyHours           *decimal.Decimal
	MaxWeeklyHours          *decimal.Decimal
	OvertimeThresholdDaily  *decimal.Decimal
	OvertimeThresholdWeekly *decimal.Decimal

	DefaultStandbyRate   decimal.Decimal
	DefaultCallbackRate  decimal.Decimal
	DefaultRecallRate    decimal.Decimal
	CallbackMinimumHours *decimal.Decimal

	SLA                  map[award.Tier]time.Duration
	DirectorPayThreshold *decimal.Decimal

	// SLACheckInterval is how often overdue approvals are reported. Zero
	// disables the monitor.
	SLACheckInterval time.Duration

	// RulesFile, when set, replaces the env thresholds with a JSON
	// jurisdiction definition.
	RulesFile string

	// AllowancesFile seeds allowance rules at startup. Without it, the
	// standard on-call set is seeded when the store has no rules.
	AllowancesFile string
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Version:  getEnv("APP_VERSION", "dev"),
	}

	config.Database = DatabaseConfig{
		Path: getEnv("DB_PATH", "./data/awards.db"),
	}

	awardCfg, err := loadAward()
	if err != nil {
		return nil, err
	}
	config.Award = awardCfg

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadAward() (AwardConfig, error) {
	var (
		c   AwardConfig
		err error
	)

	optional := []struct {
		key  string
		dest **decimal.Decimal
	}{
		{"MAX_DAILY_HOURS", &c.MaxDailyHours},
		{"MAX_WEEKLY_HOURS", &c.MaxWeeklyHours},
		{"OVERTIME_THRESHOLD_DAILY", &c.OvertimeThresholdDaily},
		{"OVERTIME_THRESHOLD_WEEKLY", &c.OvertimeThresholdWeekly},
		{"CALLBACK_MINIMUM_HOURS", &c.CallbackMinimumHours},
		{"DIRECTOR_PAY_THRESHOLD", &c.DirectorPayThreshold},
	}
	for _, o := range optional {
		if *o.dest, err = getEnvDecimalPtr(o.key); err != nil {
			return c, err
		}
	}

	if c.DefaultStandbyRate, err = getEnvDecimal("DEFAULT_STANDBY_RATE", "25"); err != nil {
		return c, err
	}
	if c.DefaultCallbackRate, err = getEnvDecimal("DEFAULT_CALLBACK_RATE", "52.50"); err != nil {
		return c, err
	}
	if c.DefaultRecallRate, err = getEnvDecimal("DEFAULT_RECALL_RATE", "60"); err != nil {
		return c, err
	}

	c.SLA = make(map[award.Tier]time.Duration)
	defaults := award.DefaultSLAPolicy()
	for _, tier := range []award.Tier{award.TierManager, award.TierSeniorManager, award.TierDirector, award.TierHR} {
		key := "SLA_" + strings.ToUpper(string(tier)) + "_HOURS"
		hours, err := strconv.Atoi(getEnv(key, strconv.Itoa(int(defaults[tier].Hours()))))
		if err != nil {
			return c, fmt.Errorf("invalid %s: %w", key, err)
		}
		c.SLA[tier] = time.Duration(hours) * time.Hour
	}

	if c.SLACheckInterval, err = time.ParseDuration(getEnv("SLA_CHECK_INTERVAL", "15m")); err != nil {
		return c, fmt.Errorf("invalid SLA_CHECK_INTERVAL: %w", err)
	}

	c.RulesFile = getEnv("AWARD_RULES_FILE", "")
	c.AllowancesFile = getEnv("ALLOWANCES_FILE", "")
	return c, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}

	positive := map[string]*decimal.Decimal{
		"MAX_DAILY_HOURS":           c.Award.MaxDailyHours,
		"MAX_WEEKLY_HOURS":          c.Award.MaxWeeklyHours,
		"OVERTIME_THRESHOLD_DAILY":  c.Award.OvertimeThresholdDaily,
		"OVERTIME_THRESHOLD_WEEKLY": c.Award.OvertimeThresholdWeekly,
	}
	for key, v := range positive {
		if v != nil && !v.IsPositive() {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	if c.Award.CallbackMinimumHours != nil && c.Award.CallbackMinimumHours.IsNegative() {
		return fmt.Errorf("CALLBACK_MINIMUM_HOURS must not be negative")
	}
	if c.Award.DefaultStandbyRate.IsNegative() || c.Award.DefaultCallbackRate.IsNegative() || c.Award.DefaultRecallRate.IsNegative() {
		return fmt.Errorf("allowance rates must not be negative")
	}
	if c.Award.SLACheckInterval < 0 {
		return fmt.Errorf("SLA_CHECK_INTERVAL must not be negative")
	}
	for tier, d := range c.Award.SLA {
		if d <= 0 {
			return fmt.Errorf("SLA for %s must be positive", tier)
		}
	}
	return nil
}

// IsDevelopment reports whether the app runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// =============================================================================
// AWARD RULES
// =============================================================================

// Jurisdiction builds the jurisdiction rules: the JSON rules file when
// configured, else the env thresholds over the engine defaults.
func (c *Config) Jurisdiction() (award.JurisdictionRules, error) {
	f := factory.NewRuleFactory()
	if c.Award.RulesFile != "" {
		b, err := os.ReadFile(c.Award.RulesFile)
		if err != nil {
			return award.JurisdictionRules{}, fmt.Errorf("failed to read AWARD_RULES_FILE: %w", err)
		}
		return f.ParseJurisdiction(string(b))
	}

	return f.JurisdictionFromJSON(factory.JurisdictionJSON{
		MaxDailyHours:           c.Award.MaxDailyHours,
		MaxWeeklyHours:          c.Award.MaxWeeklyHours,
		OvertimeThresholdDaily:  c.Award.OvertimeThresholdDaily,
		OvertimeThresholdWeekly: c.Award.OvertimeThresholdWeekly,
	}), nil
}

// SLAPolicy returns the default tier SLAs with the configured overrides.
func (c *Config) SLAPolicy() award.SLAPolicy {
	p := award.DefaultSLAPolicy()
	for tier, d := range c.Award.SLA {
		p[tier] = d
	}
	return p
}

// Allowances returns the allowance rules to seed: the JSON allowances file
// when configured, else the standard on-call set at the configured rates.
func (c *Config) Allowances() ([]award.AllowanceRule, error) {
	if c.Award.AllowancesFile != "" {
		b, err := os.ReadFile(c.Award.AllowancesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read ALLOWANCES_FILE: %w", err)
		}
		return factory.NewRuleFactory().ParseAllowanceRules(string(b))
	}

	rules := award.StandardOnCallAllowances(c.Award.DefaultStandbyRate, c.Award.DefaultCallbackRate, c.Award.DefaultRecallRate)
	if c.Award.CallbackMinimumHours != nil {
		for i := range rules {
			if rules[i].TriggerType == award.TriggerCallback {
				min := *c.Award.CallbackMinimumHours
				rules[i].CallbackMinimumHours = &min
			}
		}
	}
	return rules, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDecimal(key, fallback string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getEnv(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvDecimalPtr(key string) (*decimal.Decimal, error) {
	value := getEnv(key, "")
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &d, nil
}
