/*
Package roster orchestrates the award engine for submitted timesheets.

PURPOSE:
  The award package computes; this package decides when to compute and what
  to keep. It evaluates submissions over one consistent snapshot of rules,
  persists the timesheet with its approval chain, applies approval actions
  atomically, keeps the audit trail and dispatches notifications.

LIFECYCLE:
  Submit ──▶ Evaluate ──▶ chain auto-approved? ──yes──▶ approved (locked)
                                  │no
                                  ▼
               pending ──Approve(last)──▶ approved (locked)
                  │  └──Reject──────────▶ rejected (may be resubmitted)
                  └──Escalate──▶ pending at a higher tier

  Resubmitting a pending or rejected timesheet re-evaluates it against the
  previous validation (corrected flags become auto-resolved) and replaces the
  chain. Approved timesheets are immutable.

CONCURRENCY:
  Approval actions load, transition and save inside one store transaction,
  so two approvers racing on the same step cannot both succeed.

SEE ALSO:
  - store.go: Persistence interfaces
  - award/evaluate.go: The pipeline every submission runs
*/
package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store    TxStore
	Notifier Notifier // optional
	Logger   *slog.Logger

	Jurisdiction         award.JurisdictionRules
	SLA                  award.SLAPolicy
	DirectorPayThreshold *decimal.Decimal

	Now   func() time.Time
	NewID func() string
}

// NewService returns a service with the standard jurisdiction, default SLAs
// and a log-backed notifier.
func NewService(store TxStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		Store:        store,
		Notifier:     LogNotifier{Logger: logger},
		Logger:       logger,
		Jurisdiction: award.StandardJurisdiction(),
		SLA:          award.DefaultSLAPolicy(),
		Now:          func() time.Time { return time.Now().UTC() },
		NewID:        uuid.NewString,
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) notify(ctx context.Context, n Notification) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Notify(ctx, n); err != nil {
		s.Logger.WarnContext(ctx, "notification failed",
			"event", n.Event, "timesheet_id", n.TimesheetID, "error", err)
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

type SubmitInput struct {
	Timesheet  award.Timesheet
	CompanyID  string
	HourlyRate *decimal.Decimal
	Actor      string
}

type Submission struct {
	Record     Record
	Chain      award.ApprovalChain
	Evaluation award.Evaluation
}

// Preview evaluates a timesheet without persisting anything. When a
// timesheet with the same ID exists, its validation is used as the previous
// one, exactly as a resubmission would.
func (s *Service) Preview(ctx context.Context, in SubmitInput) (award.Evaluation, error) {
	if err := validateSubmission(in); err != nil {
		return award.Evaluation{}, err
	}

	var previous *award.ComplianceValidation
	if in.Timesheet.ID != "" {
		existing, err := s.Store.GetTimesheet(ctx, in.Timesheet.ID)
		switch {
		case err == nil:
			previous = &existing.Compliance
		case !errors.Is(err, ErrTimesheetNotFound):
			return award.Evaluation{}, err
		}
	}
	return s.evaluate(ctx, in, previous)
}

// Submit evaluates, routes and persists a timesheet.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Submission, error) {
	if in.Timesheet.ID == "" {
		in.Timesheet.ID = award.TimesheetID(s.newID())
	}
	if err := validateSubmission(in); err != nil {
		return nil, err
	}
	ts := in.Timesheet

	existing, err := s.Store.GetTimesheet(ctx, ts.ID)
	if err != nil && !errors.Is(err, ErrTimesheetNotFound) {
		return nil, err
	}
	var previous *award.ComplianceValidation
	if existing != nil {
		if existing.Timesheet.Status == award.TimesheetApproved {
			return nil, &LockedError{TimesheetID: ts.ID}
		}
		previous = &existing.Compliance
	}

	eval, err := s.evaluate(ctx, in, previous)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ts.Status = eval.Chain.Outcome()
	ts.Allowances = eval.Applied()
	ts.SubmittedAt = now

	rec := Record{
		Timesheet:      ts,
		CompanyID:      in.CompanyID,
		HourlyRate:     in.HourlyRate,
		Overtime:       eval.Overtime,
		Compliance:     eval.Compliance,
		AllowanceTotal: eval.AllowanceTotal,
		GrossPay:       eval.GrossPay,
		UpdatedAt:      now,
	}

	action := AuditTimesheetSubmitted
	if existing != nil {
		action = AuditTimesheetResubmitted
	}

	err = s.Store.WithTx(ctx, func(tx Store) error {
		// An approval may have landed since the first read.
		current, err := tx.GetTimesheet(ctx, ts.ID)
		switch {
		case err == nil && current.Timesheet.Status == award.TimesheetApproved:
			return &LockedError{TimesheetID: ts.ID}
		case err != nil && !errors.Is(err, ErrTimesheetNotFound):
			return err
		}

		if err := tx.SaveTimesheet(ctx, rec); err != nil {
			return fmt.Errorf("failed to save timesheet: %w", err)
		}
		if err := tx.SaveChain(ctx, ts.ID, eval.Chain); err != nil {
			return fmt.Errorf("failed to save approval chain: %w", err)
		}
		return tx.AppendAudit(ctx, AuditEntry{
			ID:          s.newID(),
			Timestamp:   now,
			ActorID:     in.Actor,
			Action:      action,
			TimesheetID: ts.ID,
			EmployeeID:  ts.EmployeeID,
			Payload: map[string]any{
				"status":        string(ts.Status),
				"is_compliant":  eval.Compliance.IsCompliant,
				"flags":         len(eval.Compliance.Flags),
				"auto_approved": eval.Chain.AutoApproved,
				"final_tier":    string(eval.Chain.FinalTier()),
				"gross_pay":     eval.GrossPay.StringFixed(2),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "timesheet submitted",
		"timesheet_id", ts.ID,
		"employee_id", ts.EmployeeID,
		"status", ts.Status,
		"flags", len(eval.Compliance.Flags),
		"auto_approved", eval.Chain.AutoApproved,
		"gross_pay", eval.GrossPay.StringFixed(2),
		"resubmitted", existing != nil,
	)
	for _, w := range eval.Warnings() {
		s.Logger.WarnContext(ctx, "allowance configuration", "timesheet_id", ts.ID, "warning", w)
	}

	n := notificationFor(rec, eval.Chain)
	n.Actor = in.Actor
	s.notify(ctx, n)

	return &Submission{Record: rec, Chain: eval.Chain, Evaluation: eval}, nil
}

func (s *Service) evaluate(ctx context.Context, in SubmitInput, previous *award.ComplianceValidation) (award.Evaluation, error) {
	rules, err := s.Store.ListAllowanceRules(ctx)
	if err != nil {
		return award.Evaluation{}, fmt.Errorf("failed to load allowance rules: %w", err)
	}
	return award.Evaluate(award.EvaluationInput{
		Timesheet:            in.Timesheet,
		HourlyRate:           in.HourlyRate,
		Rules:                s.Jurisdiction,
		Allowances:           rules,
		Calendar:             s.Store,
		CompanyID:            in.CompanyID,
		Previous:             previous,
		Now:                  s.now(),
		SLA:                  s.SLA,
		DirectorPayThreshold: s.DirectorPayThreshold,
	}), nil
}

// validateSubmission rejects submissions that cannot be attributed or dated.
// Punch quality is not checked here; that is what compliance flags are for.
func validateSubmission(in SubmitInput) error {
	ts := in.Timesheet
	invalid := func(field, msg string) error {
		return &ValidationError{Field: field, Message: msg, Err: ErrInvalidTimesheet}
	}

	if strings.TrimSpace(string(ts.EmployeeID)) == "" {
		return invalid("employee_id", "is required")
	}
	if ts.WeekStart.IsZero() {
		return invalid("week_start", "is required")
	}
	if in.HourlyRate != nil && in.HourlyRate.IsNegative() {
		return invalid("hourly_rate", "must not be negative")
	}

	weekStart, weekEnd := ts.WeekWindow()
	for i, e := range ts.Entries {
		field := fmt.Sprintf("entries[%d]", i)
		if e.Date.IsZero() {
			return invalid(field+".date", "is required")
		}
		if d := e.Day(); d.Before(weekStart) || !d.Before(weekEnd) {
			return invalid(field+".date", fmt.Sprintf("%s is outside the week starting %s",
				d.Format("2006-01-02"), weekStart.Format("2006-01-02")))
		}
		for j, b := range e.Breaks {
			if b.Type != "" && !b.Type.Valid() {
				return invalid(fmt.Sprintf("%s.breaks[%d].type", field, j), fmt.Sprintf("unknown break type %q", b.Type))
			}
		}
		if e.OnCall != nil && e.OnCall.CallbackHours.IsNegative() {
			return invalid(field+".on_call.callback_hours", "must not be negative")
		}
	}
	return nil
}

// =============================================================================
// APPROVAL ACTIONS
// =============================================================================

type Decision struct {
	Record Record
	Chain  award.ApprovalChain
}

// Approve approves the given step of a timesheet's chain.
func (s *Service) Approve(ctx context.Context, id award.TimesheetID, step int, actor, notes string) (*Decision, error) {
	return s.transition(ctx, id, step, actor, notes, AuditStepApproved,
		func(c award.ApprovalChain, at time.Time) (award.ApprovalChain, error) {
			return award.Approve(c, step, actor, notes, at)
		})
}

// Reject rejects the given step. Rejection ends the chain.
func (s *Service) Reject(ctx context.Context, id award.TimesheetID, step int, actor, notes string) (*Decision, error) {
	return s.transition(ctx, id, step, actor, notes, AuditStepRejected,
		func(c award.ApprovalChain, at time.Time) (award.ApprovalChain, error) {
			return award.Reject(c, step, actor, notes, at)
		})
}

// Escalate moves the given step to the next higher tier.
func (s *Service) Escalate(ctx context.Context, id award.TimesheetID, step int, actor, notes string) (*Decision, error) {
	return s.transition(ctx, id, step, actor, notes, AuditStepEscalated,
		func(c award.ApprovalChain, at time.Time) (award.ApprovalChain, error) {
			return award.Escalate(c, step, actor, at, s.SLA)
		})
}

var actionMessages = map[AuditAction]string{
	AuditStepApproved:  "step approved",
	AuditStepRejected:  "step rejected",
	AuditStepEscalated: "step escalated",
}

type transitionFunc func(award.ApprovalChain, time.Time) (award.ApprovalChain, error)

func (s *Service) transition(ctx context.Context, id award.TimesheetID, step int, actor, notes string, action AuditAction, apply transitionFunc) (*Decision, error) {
	if strings.TrimSpace(actor) == "" {
		return nil, &ValidationError{Field: "actor", Message: "is required", Err: ErrInvalidTimesheet}
	}

	at := s.now()
	var (
		out      Decision
		fromTier award.Tier
	)

	err := s.Store.WithTx(ctx, func(tx Store) error {
		rec, err := tx.GetTimesheet(ctx, id)
		if err != nil {
			return err
		}
		chain, err := tx.GetChain(ctx, id)
		if err != nil {
			return err
		}

		next, err := apply(*chain, at)
		if err != nil {
			return err
		}
		fromTier = chain.Steps[step].Tier

		rec.Timesheet.Status = next.Outcome()
		rec.UpdatedAt = at
		if err := tx.SaveChain(ctx, id, next); err != nil {
			return fmt.Errorf("failed to save approval chain: %w", err)
		}
		if err := tx.SaveTimesheet(ctx, *rec); err != nil {
			return fmt.Errorf("failed to save timesheet: %w", err)
		}

		toTier := next.Steps[step].Tier
		if cur, ok := next.CurrentStep(); ok && action == AuditStepEscalated {
			toTier = cur.Tier
		}

		out = Decision{Record: *rec, Chain: next}
		return tx.AppendAudit(ctx, AuditEntry{
			ID:          s.newID(),
			Timestamp:   at,
			ActorID:     actor,
			Action:      action,
			TimesheetID: id,
			EmployeeID:  rec.Timesheet.EmployeeID,
			Payload: map[string]any{
				"step":      step,
				"tier":      string(fromTier),
				"to_tier":   string(toTier),
				"status":    string(rec.Timesheet.Status),
				"notes":     notes,
				"completed": next.IsComplete,
			},
		})
	})
	if err != nil {
		if award.IsTransitionError(err) {
			s.Logger.WarnContext(ctx, "approval action rejected",
				"timesheet_id", id, "action", action, "step", step, "actor", actor, "error", err)
		}
		return nil, err
	}

	s.Logger.InfoContext(ctx, actionMessages[action],
		"timesheet_id", id,
		"step", step,
		"tier", fromTier,
		"actor", actor,
		"status", out.Record.Timesheet.Status,
	)

	n := notificationFor(out.Record, out.Chain)
	if action == AuditStepEscalated {
		n.Event = EventStepEscalated
	}
	n.Actor = actor
	n.Notes = notes
	s.notify(ctx, n)

	return &out, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Timesheet returns a record with its chain.
func (s *Service) Timesheet(ctx context.Context, id award.TimesheetID) (*Decision, error) {
	rec, err := s.Store.GetTimesheet(ctx, id)
	if err != nil {
		return nil, err
	}
	chain, err := s.Store.GetChain(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Decision{Record: *rec, Chain: *chain}, nil
}

func (s *Service) Timesheets(ctx context.Context, filter TimesheetFilter) ([]Record, error) {
	return s.Store.ListTimesheets(ctx, filter)
}

// OverdueApproval is a pending step past its SLA deadline.
type OverdueApproval struct {
	TimesheetID award.TimesheetID
	EmployeeID  award.EmployeeID
	Step        int
	Tier        award.Tier
	Deadline    time.Time
	Overdue     time.Duration
}

// OverdueApprovals lists pending steps past their SLA deadline. Nothing is
// escalated automatically.
func (s *Service) OverdueApprovals(ctx context.Context) ([]OverdueApproval, error) {
	pending := award.TimesheetPending
	recs, err := s.Store.ListTimesheets(ctx, TimesheetFilter{Status: &pending})
	if err != nil {
		return nil, err
	}

	now := s.now()
	var out []OverdueApproval
	for _, rec := range recs {
		chain, err := s.Store.GetChain(ctx, rec.Timesheet.ID)
		if err != nil {
			if errors.Is(err, ErrChainNotFound) {
				continue
			}
			return nil, err
		}
		for _, i := range chain.OverdueSteps(now) {
			step := chain.Steps[i]
			out = append(out, OverdueApproval{
				TimesheetID: rec.Timesheet.ID,
				EmployeeID:  rec.Timesheet.EmployeeID,
				Step:        i,
				Tier:        step.Tier,
				Deadline:    *step.SLADeadline,
				Overdue:     now.Sub(*step.SLADeadline),
			})
		}
	}
	return out, nil
}

func (s *Service) Audit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	return s.Store.QueryAudit(ctx, filter)
}

// =============================================================================
// ALLOWANCE RULES
// =============================================================================

// AllowanceRules returns every configured rule, ordered by ID.
func (s *Service) AllowanceRules(ctx context.Context) ([]award.AllowanceRule, error) {
	return s.Store.ListAllowanceRules(ctx)
}

// SaveAllowanceRule stores a rule and returns the configuration warnings of
// the resulting rule set.
func (s *Service) SaveAllowanceRule(ctx context.Context, rule award.AllowanceRule, actor string) ([]string, error) {
	if err := validateAllowanceRule(rule); err != nil {
		return nil, err
	}

	var warnings []string
	err := s.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.SaveAllowanceRule(ctx, rule); err != nil {
			return fmt.Errorf("failed to save allowance rule: %w", err)
		}
		all, err := tx.ListAllowanceRules(ctx)
		if err != nil {
			return err
		}
		warnings = award.ValidateAllowanceRules(all)
		return tx.AppendAudit(ctx, AuditEntry{
			ID:        s.newID(),
			Timestamp: s.now(),
			ActorID:   actor,
			Action:    AuditAllowanceRuleSaved,
			Payload: map[string]any{
				"allowance_id": string(rule.ID),
				"trigger_type": string(rule.TriggerType),
				"priority":     rule.Priority,
				"is_active":    rule.IsActive,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.Logger.InfoContext(ctx, "allowance rule saved", "allowance_id", rule.ID, "actor", actor, "warnings", len(warnings))
	return warnings, nil
}

func (s *Service) DeleteAllowanceRule(ctx context.Context, id award.AllowanceID, actor string) error {
	err := s.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.DeleteAllowanceRule(ctx, id); err != nil {
			return err
		}
		return tx.AppendAudit(ctx, AuditEntry{
			ID:        s.newID(),
			Timestamp: s.now(),
			ActorID:   actor,
			Action:    AuditAllowanceRuleDeleted,
			Payload:   map[string]any{"allowance_id": string(id)},
		})
	})
	if err != nil {
		return err
	}
	s.Logger.InfoContext(ctx, "allowance rule deleted", "allowance_id", id, "actor", actor)
	return nil
}

// ResolveAllowances resolves the stored rules for one shift.
func (s *Service) ResolveAllowances(ctx context.Context, shift award.ShiftContext) (award.Resolution, error) {
	rules, err := s.Store.ListAllowanceRules(ctx)
	if err != nil {
		return award.Resolution{}, err
	}
	return award.ResolveAllowances(rules, shift), nil
}

func validateAllowanceRule(r award.AllowanceRule) error {
	invalid := func(field, msg string) error {
		return &ValidationError{Field: field, Message: msg, Err: ErrInvalidAllowanceRule}
	}

	if strings.TrimSpace(string(r.ID)) == "" {
		return invalid("id", "is required")
	}
	if !r.TriggerType.Valid() {
		return invalid("trigger_type", fmt.Sprintf("unknown trigger type %q", r.TriggerType))
	}
	if r.Rate.IsNegative() {
		return invalid("rate", "must not be negative")
	}
	optional := map[string]*decimal.Decimal{
		"weekend_rate":              r.WeekendRate,
		"public_holiday_multiplier": r.PublicHolidayMultiplier,
		"callback_minimum_hours":    r.CallbackMinimumHours,
		"callback_rate_multiplier":  r.CallbackRateMultiplier,
	}
	for field, v := range optional {
		if v != nil && v.IsNegative() {
			return invalid(field, "must not be negative")
		}
	}
	return nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Service) SaveHoliday(ctx context.Context, h award.Holiday) (award.Holiday, error) {
	if strings.TrimSpace(h.Name) == "" {
		return h, &ValidationError{Field: "name", Message: "is required", Err: ErrInvalidHoliday}
	}
	if h.Date.IsZero() {
		return h, &ValidationError{Field: "date", Message: "is required", Err: ErrInvalidHoliday}
	}
	if h.ID == "" {
		h.ID = s.newID()
	}
	if err := s.Store.SaveHoliday(ctx, h); err != nil {
		return h, fmt.Errorf("failed to save holiday: %w", err)
	}
	s.Logger.InfoContext(ctx, "holiday saved", "holiday_id", h.ID, "company_id", h.CompanyID, "date", h.Date.Format("2006-01-02"))
	return h, nil
}

func (s *Service) Holidays(ctx context.Context, companyID string) ([]award.Holiday, error) {
	return s.Store.ListHolidays(ctx, companyID)
}
