/*
evaluate.go - Pay summary pipeline

PURPOSE:
  Runs the four components over one timesheet snapshot so the classified
  hours, compliance verdict, approval chain and allowances always come from
  the same inputs. Callers persist the Evaluation as a whole.

FLOW:
  Timesheet ──▶ ClassifyTimesheet ─────────────┐
            ├─▶ RevalidateCompliance ──▶ DetermineApprovalChain
            └─▶ per on-call entry: ShiftContextFor ──▶ ResolveAllowances
                                                  │
  GrossPay = Overtime.TotalPay + AllowanceTotal ◀─┘

  Only entries carrying OnCall are resolved; a day that was not rostered
  on-call earns no allowance.
*/
package award

import (
	"time"

	"github.com/shopspring/decimal"
)

type EvaluationInput struct {
	Timesheet  Timesheet
	HourlyRate *decimal.Decimal
	Rules      JurisdictionRules
	Allowances []AllowanceRule

	Calendar  HolidayCalendar
	CompanyID string

	// Previous validation of the same timesheet, for auto-resolved flags.
	Previous *ComplianceValidation

	Now                  time.Time
	SLA                  SLAPolicy
	DirectorPayThreshold *decimal.Decimal
}

// ShiftAllowances is the allowance resolution for one on-call day.
type ShiftAllowances struct {
	Date       time.Time
	Context    ShiftContext
	Resolution Resolution
}

type Evaluation struct {
	Overtime       OvertimeCalculation
	Compliance     ComplianceValidation
	Chain          ApprovalChain
	Shifts         []ShiftAllowances
	AllowanceTotal decimal.Decimal
	GrossPay       decimal.Decimal
}

// Applied flattens the applied allowances across every shift.
func (e Evaluation) Applied() []AppliedAllowance {
	var out []AppliedAllowance
	for _, s := range e.Shifts {
		for _, step := range s.Resolution.Steps {
			if step.Applied {
				out = append(out, step)
			}
		}
	}
	return out
}

// Warnings collects distinct allowance configuration warnings.
func (e Evaluation) Warnings() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range e.Shifts {
		for _, w := range s.Resolution.Warnings {
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}
	return out
}

// Evaluate runs the full pipeline.
func Evaluate(in EvaluationInput) Evaluation {
	rules := in.Rules.WithDefaults()
	ts := in.Timesheet

	overtime := ClassifyTimesheet(ts, in.HourlyRate, rules.Thresholds)
	compliance := RevalidateCompliance(ts, rules, in.Previous)

	var shifts []ShiftAllowances
	total := decimal.Zero
	for _, e := range ts.SortedEntries() {
		if e.OnCall == nil {
			continue
		}
		ctx := ShiftContextFor(e, in.Calendar, in.CompanyID)
		res := ResolveAllowances(in.Allowances, ctx)
		total = total.Add(res.TotalPay)
		shifts = append(shifts, ShiftAllowances{Date: e.Day(), Context: ctx, Resolution: res})
	}

	gross := overtime.TotalPay.Add(total)
	chain := DetermineApprovalChain(compliance, RoutingOptions{
		Now:                  in.Now,
		SLA:                  in.SLA,
		TotalPay:             &gross,
		DirectorPayThreshold: in.DirectorPayThreshold,
	})

	return Evaluation{
		Overtime:       overtime,
		Compliance:     compliance,
		Chain:          chain,
		Shifts:         shifts,
		AllowanceTotal: total,
		GrossPay:       gross,
	}
}
