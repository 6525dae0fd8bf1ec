/*
allowance.go - AllowanceResolver

PURPOSE:
  Decides which on-call allowances are payable for one shift when several
  configured rules apply, honoring stackability and declared mutual
  exclusions, and computes the amounts.

ORDERING (first-class contract, not input order):
  Active rules are sorted by Priority descending, then by ID ascending.
  The ID tie-break makes results independent of how the caller ordered the
  rules.

PASS 1 - EXCLUSION:
  Walk the sorted rules. A rule is triggered when it is standby, or when it
  is callback/recall/emergency and the employee was called back. For each
  triggered rule R not already excluded:
    - R non-stackable: every triggered lower-priority O is excluded by R when
      O is non-stackable too, or O lists R in ExcludesWith.
    - Every triggered O listed in R.ExcludesWith with lower priority is
      excluded by R.
  Exclusion only ever flows to strictly lower priority, and an excluded rule
  excludes nothing because it is skipped when visited.

PASS 2 - AMOUNTS (every rule, excluded ones included for audit):
  standby:   PH multiplier x rate on public holidays, weekend rate on
             weekends, otherwise rate.
  callbacks: 0 unless called back; else max(hours, minimum|2) x rate
             x multiplier|1.

  Applied = triggered and not excluded
  TotalPay             = sum over applied steps
  PayWithoutExclusions = sum over triggered steps  (>= TotalPay)

EXAMPLE:
  standby p1 stackable $15.42; callback p2 stackable excludes recall;
  recall p3 non-stackable $70/h min 3h excludes callback. Called back 1.5h:
    recall applied $210, callback excluded by recall, standby applied $15.42
    TotalPay $225.42
*/
package award

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultCallbackMinimumHours applies when a callback-type rule has no minimum.
var DefaultCallbackMinimumHours = decimal.NewFromInt(2)

// =============================================================================
// TRIGGER TYPE
// =============================================================================

type TriggerType string

const (
	TriggerStandby   TriggerType = "standby"
	TriggerCallback  TriggerType = "callback"
	TriggerRecall    TriggerType = "recall"
	TriggerEmergency TriggerType = "emergency"
)

func (t TriggerType) Valid() bool {
	switch t {
	case TriggerStandby, TriggerCallback, TriggerRecall, TriggerEmergency:
		return true
	}
	return false
}

// RequiresCallback reports whether the allowance is only payable when the
// employee is actually summoned to work.
func (t TriggerType) RequiresCallback() bool {
	switch t {
	case TriggerCallback, TriggerRecall, TriggerEmergency:
		return true
	default:
		return false
	}
}

func ParseTriggerType(s string) (TriggerType, error) {
	t := TriggerType(s)
	if !t.Valid() {
		return "", &ParseError{Kind: "trigger type", Value: s}
	}
	return t, nil
}

// =============================================================================
// RULES, CONTEXT, RESULT
// =============================================================================

type AllowanceRule struct {
	ID                      AllowanceID
	Name                    string
	TriggerType             TriggerType
	Rate                    decimal.Decimal
	WeekendRate             *decimal.Decimal
	PublicHolidayMultiplier *decimal.Decimal
	Stackable               bool
	ExcludesWith            []AllowanceID
	Priority                int
	CallbackMinimumHours    *decimal.Decimal
	CallbackRateMultiplier  *decimal.Decimal
	IsActive                bool
}

func (r AllowanceRule) excludes(id AllowanceID) bool {
	for _, x := range r.ExcludesWith {
		if x == id {
			return true
		}
	}
	return false
}

// ShiftContext is the shift being resolved.
type ShiftContext struct {
	IsWeekend       bool
	IsPublicHoliday bool
	WasCalledBack   bool
	CallbackHours   decimal.Decimal
}

type AppliedAllowance struct {
	AllowanceID AllowanceID
	Name        string
	TriggerType TriggerType
	Amount      decimal.Decimal
	PaidHours   decimal.Decimal
	Applied     bool
	Triggered   bool
	Reason      string
	IsExcluded  bool
	ExcludedBy  *AllowanceID
}

type Resolution struct {
	Steps                []AppliedAllowance
	TotalPay             decimal.Decimal
	PayWithoutExclusions decimal.Decimal

	// Warnings lists configuration inconsistencies that were ignored.
	Warnings []string
}

// =============================================================================
// RESOLVER
// =============================================================================

// SortAllowanceRules returns the active rules in resolution order: priority
// descending, then ID ascending. Only the first definition of an ID counts,
// so an inactive first definition disables later ones.
func SortAllowanceRules(rules []AllowanceRule) []AllowanceRule {
	seen := make(map[AllowanceID]bool, len(rules))
	active := make([]AllowanceRule, 0, len(rules))
	for _, r := range rules {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		if r.IsActive {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Priority != active[j].Priority {
			return active[i].Priority > active[j].Priority
		}
		return active[i].ID < active[j].ID
	})
	return active
}

func isTriggered(r AllowanceRule, ctx ShiftContext) bool {
	switch r.TriggerType {
	case TriggerStandby:
		return true
	case TriggerCallback, TriggerRecall, TriggerEmergency:
		return ctx.WasCalledBack
	default:
		return false
	}
}

// ResolveAllowances resolves which allowances are payable for a shift.
// An empty or all-inactive rule set yields zero pay and no steps.
func ResolveAllowances(rules []AllowanceRule, ctx ShiftContext) Resolution {
	res := Resolution{
		Steps:                []AppliedAllowance{},
		TotalPay:             decimal.Zero,
		PayWithoutExclusions: decimal.Zero,
		Warnings:             ValidateAllowanceRules(rules),
	}

	sorted := SortAllowanceRules(rules)
	if len(sorted) == 0 {
		return res
	}

	index := make(map[AllowanceID]int, len(sorted))
	triggered := make([]bool, len(sorted))
	for i, r := range sorted {
		index[r.ID] = i
		triggered[i] = isTriggered(r, ctx)
	}

	// Pass 1: exclusion, highest priority first.
	excludedBy := make([]*AllowanceID, len(sorted))
	exclude := func(target, by int) {
		if excludedBy[target] == nil && sorted[target].Priority < sorted[by].Priority {
			id := sorted[by].ID
			excludedBy[target] = &id
		}
	}
	for i, r := range sorted {
		if !triggered[i] || excludedBy[i] != nil {
			continue
		}
		if !r.Stackable {
			for j, o := range sorted {
				if j == i {
					continue
				}
				if !o.Stackable || o.excludes(r.ID) {
					exclude(j, i)
				}
			}
		}
		for _, id := range r.ExcludesWith {
			if j, ok := index[id]; ok && j != i {
				exclude(j, i)
			}
		}
	}

	// Pass 2: amounts for every rule.
	for i, r := range sorted {
		amount, hours := allowanceAmount(r, ctx)
		step := AppliedAllowance{
			AllowanceID: r.ID,
			Name:        r.Name,
			TriggerType: r.TriggerType,
			Amount:      amount,
			PaidHours:   hours,
			Triggered:   triggered[i],
			IsExcluded:  excludedBy[i] != nil,
			ExcludedBy:  excludedBy[i],
		}
		step.Applied = step.Triggered && !step.IsExcluded

		switch {
		case !step.Triggered:
			step.Reason = "not triggered: employee was not called back"
		case step.IsExcluded:
			by := sorted[index[*step.ExcludedBy]]
			step.Reason = fmt.Sprintf("excluded by %s (priority %d)", by.ID, by.Priority)
		default:
			step.Reason = appliedReason(r, ctx, hours)
		}

		if step.Triggered {
			res.PayWithoutExclusions = res.PayWithoutExclusions.Add(amount)
		}
		if step.Applied {
			res.TotalPay = res.TotalPay.Add(amount)
		}
		res.Steps = append(res.Steps, step)
	}

	return res
}

// allowanceAmount returns the amount and, for callback types, the paid hours.
func allowanceAmount(r AllowanceRule, ctx ShiftContext) (decimal.Decimal, decimal.Decimal) {
	switch r.TriggerType {
	case TriggerStandby:
		return money(standbyRate(r, ctx)), decimal.Zero
	case TriggerCallback, TriggerRecall, TriggerEmergency:
		if !ctx.WasCalledBack {
			return decimal.Zero, decimal.Zero
		}
		minimum := DefaultCallbackMinimumHours
		if r.CallbackMinimumHours != nil {
			minimum = *r.CallbackMinimumHours
		}
		hours := maxDec(ctx.CallbackHours, minimum)
		amount := hours.Mul(r.Rate)
		if r.CallbackRateMultiplier != nil && r.CallbackRateMultiplier.IsPositive() {
			amount = amount.Mul(*r.CallbackRateMultiplier)
		}
		return money(amount), hours
	default:
		return decimal.Zero, decimal.Zero
	}
}

func standbyRate(r AllowanceRule, ctx ShiftContext) decimal.Decimal {
	if ctx.IsPublicHoliday && r.PublicHolidayMultiplier != nil {
		return r.PublicHolidayMultiplier.Mul(r.Rate)
	}
	if ctx.IsWeekend && r.WeekendRate != nil {
		return *r.WeekendRate
	}
	return r.Rate
}

func appliedReason(r AllowanceRule, ctx ShiftContext, hours decimal.Decimal) string {
	if r.TriggerType.RequiresCallback() {
		return fmt.Sprintf("called back: %s hours paid at %s", hours.String(), r.Rate.StringFixed(2))
	}
	switch {
	case ctx.IsPublicHoliday && r.PublicHolidayMultiplier != nil:
		return "standby: public holiday rate"
	case ctx.IsWeekend && r.WeekendRate != nil:
		return "standby: weekend rate"
	default:
		return "standby: base rate"
	}
}

// ValidateAllowanceRules reports configuration inconsistencies that the
// resolver tolerates as no-ops: unknown trigger types, self-exclusion,
// exclusions of unknown ids, and duplicate ids.
func ValidateAllowanceRules(rules []AllowanceRule) []string {
	var issues []string
	known := make(map[AllowanceID]bool, len(rules))
	for _, r := range rules {
		if known[r.ID] {
			issues = append(issues, fmt.Sprintf("allowance %s is defined more than once; later definitions are ignored", r.ID))
		}
		known[r.ID] = true
	}
	for _, r := range rules {
		if !r.TriggerType.Valid() {
			issues = append(issues, fmt.Sprintf("allowance %s has unknown trigger type %q and is never triggered", r.ID, r.TriggerType))
		}
		for _, id := range r.ExcludesWith {
			switch {
			case id == r.ID:
				issues = append(issues, fmt.Sprintf("allowance %s excludes itself; ignored", r.ID))
			case !known[id]:
				issues = append(issues, fmt.Sprintf("allowance %s excludes unknown allowance %s; ignored", r.ID, id))
			}
		}
	}
	return issues
}
