/*
approval.go - ApprovalRouter state machine

PURPOSE:
  Derives a tiered approval chain from a compliance validation and applies
  approve / reject / escalate transitions. Transitions are pure: they return
  a new chain and leave the input untouched. Persisting the result is the
  caller's job.

STATES:
  ┌──────────────┐
  │ auto-approved│  no critical and no warning flags: complete, zero steps
  └──────────────┘
  ┌─────────────────────────────────────────────────────────────────┐
  │ manager ──▶ [senior_manager] ──▶ [director] ──▶ [hr]            │
  │  each step: pending ──approve──▶ approved                       │
  │                     ──reject───▶ rejected (later steps skipped) │
  │                     ──escalate─▶ next tier, fresh SLA deadline  │
  └─────────────────────────────────────────────────────────────────┘

INVARIANTS:
  - Steps are ordered by non-decreasing tier severity.
  - CurrentStepIndex is the first pending step, or len(Steps) when complete.
  - AutoApproved implies IsComplete and zero steps.

SLA:
  Each step gets CreatedAt + SLAPolicy[tier] as its deadline. A later step's
  clock restarts when the chain advances to it, so only the current step can
  be overdue. An elapsed deadline is reported by IsOverdue/OverdueSteps only;
  escalation is always an explicit Escalate call.
*/
package award

import (
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER & STEP STATUS
// =============================================================================

type Tier string

const (
	TierAuto          Tier = "auto"
	TierManager       Tier = "manager"
	TierSeniorManager Tier = "senior_manager"
	TierDirector      Tier = "director"
	TierHR            Tier = "hr"
)

// Tiers lists every tier in ascending authority.
var Tiers = []Tier{TierAuto, TierManager, TierSeniorManager, TierDirector, TierHR}

// Rank orders tiers by authority; unknown tiers rank -1.
func (t Tier) Rank() int {
	switch t {
	case TierAuto:
		return 0
	case TierManager:
		return 1
	case TierSeniorManager:
		return 2
	case TierDirector:
		return 3
	case TierHR:
		return 4
	default:
		return -1
	}
}

func (t Tier) Valid() bool { return t.Rank() >= 0 }

// Next returns the next higher human tier.
func (t Tier) Next() (Tier, bool) {
	r := t.Rank()
	if r < 0 || r+1 >= len(Tiers) {
		return "", false
	}
	return Tiers[r+1], true
}

func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", &ParseError{Kind: "tier", Value: s}
	}
	return t, nil
}

type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
	StepSkipped  StepStatus = "skipped"
)

func (s StepStatus) Valid() bool {
	switch s {
	case StepPending, StepApproved, StepRejected, StepSkipped:
		return true
	}
	return false
}

// =============================================================================
// SLA POLICY
// =============================================================================

// SLAPolicy is the time allowed per tier to action a pending step.
type SLAPolicy map[Tier]time.Duration

// DefaultSLAPolicy returns the default per-tier allowances.
func DefaultSLAPolicy() SLAPolicy {
	return SLAPolicy{
		TierManager:       24 * time.Hour,
		TierSeniorManager: 48 * time.Hour,
		TierDirector:      72 * time.Hour,
		TierHR:            72 * time.Hour,
	}
}

// For returns the allowance for a tier, falling back to the default policy.
func (p SLAPolicy) For(t Tier) time.Duration {
	if d, ok := p[t]; ok && d > 0 {
		return d
	}
	if d, ok := DefaultSLAPolicy()[t]; ok {
		return d
	}
	return 24 * time.Hour
}

// =============================================================================
// CHAIN
// =============================================================================

type ApprovalStep struct {
	Tier         Tier
	Status       StepStatus
	ApproverName string
	Timestamp    *time.Time
	Notes        string
	IsEscalated  bool
	SLADeadline  *time.Time
	CreatedAt    time.Time
}

// IsOverdue reports whether a pending step's SLA deadline has passed.
func (s ApprovalStep) IsOverdue(now time.Time) bool {
	return s.Status == StepPending && s.SLADeadline != nil && now.After(*s.SLADeadline)
}

type ApprovalChain struct {
	AutoApproved     bool
	Steps            []ApprovalStep
	CurrentStepIndex int
	IsComplete       bool
	CreatedAt        time.Time
}

// CurrentStep returns the pending step being waited on, if any.
func (c ApprovalChain) CurrentStep() (ApprovalStep, bool) {
	if c.IsComplete || c.CurrentStepIndex < 0 || c.CurrentStepIndex >= len(c.Steps) {
		return ApprovalStep{}, false
	}
	return c.Steps[c.CurrentStepIndex], true
}

// OverdueSteps returns the index of the current step when it is past its
// deadline. Later steps are not waited on yet and are never reported.
func (c ApprovalChain) OverdueSteps(now time.Time) []int {
	step, ok := c.CurrentStep()
	if !ok || !step.IsOverdue(now) {
		return nil
	}
	return []int{c.CurrentStepIndex}
}

// restartClock moves a step's SLA window to begin at the given time, keeping
// its allowance.
func (s *ApprovalStep) restartClock(at time.Time) {
	if s.SLADeadline != nil {
		deadline := at.Add(s.SLADeadline.Sub(s.CreatedAt))
		s.SLADeadline = &deadline
	}
	s.CreatedAt = at
}

// FinalTier is the tier the chain terminates at (TierAuto when auto-approved).
func (c ApprovalChain) FinalTier() Tier {
	if len(c.Steps) == 0 {
		return TierAuto
	}
	return c.Steps[len(c.Steps)-1].Tier
}

// Outcome maps the chain to the owning timesheet's status.
func (c ApprovalChain) Outcome() TimesheetStatus {
	if c.AutoApproved {
		return TimesheetApproved
	}
	for _, s := range c.Steps {
		if s.Status == StepRejected {
			return TimesheetRejected
		}
	}
	if c.IsComplete {
		return TimesheetApproved
	}
	return TimesheetPending
}

func (c ApprovalChain) clone() ApprovalChain {
	out := c
	out.Steps = make([]ApprovalStep, len(c.Steps))
	copy(out.Steps, c.Steps)
	return out
}

// =============================================================================
// ROUTING
// =============================================================================

// RoutingOptions configures chain construction.
type RoutingOptions struct {
	Now time.Time
	SLA SLAPolicy

	// TotalPay and DirectorPayThreshold add a director step when the
	// timesheet's pay exceeds the threshold. Both must be set.
	TotalPay             *decimal.Decimal
	DirectorPayThreshold *decimal.Decimal
}

// RequiredTier returns the lowest tier empowered to resolve a flag.
func RequiredTier(f ComplianceFlag) Tier {
	switch f.Severity {
	case SeverityCritical:
		switch f.Type {
		case FlagMaxDailyHours, FlagMaxWeeklyHours:
			return TierHR
		default:
			return TierSeniorManager
		}
	case SeverityWarning:
		return TierManager
	default:
		return TierAuto
	}
}

// DetermineApprovalChain builds the approval chain for a validation.
func DetermineApprovalChain(v ComplianceValidation, opts RoutingOptions) ApprovalChain {
	now := opts.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	needsHuman := false
	tiers := map[Tier]bool{}
	for _, f := range v.Flags {
		t := RequiredTier(f)
		if t == TierAuto {
			continue
		}
		needsHuman = true
		tiers[t] = true
	}

	if !needsHuman {
		return ApprovalChain{
			AutoApproved:     true,
			Steps:            []ApprovalStep{},
			CurrentStepIndex: 0,
			IsComplete:       true,
			CreatedAt:        now,
		}
	}

	tiers[TierManager] = true
	if opts.TotalPay != nil && opts.DirectorPayThreshold != nil &&
		opts.TotalPay.GreaterThan(*opts.DirectorPayThreshold) {
		tiers[TierDirector] = true
	}

	ordered := make([]Tier, 0, len(tiers))
	for t := range tiers {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Rank() < ordered[j].Rank() })

	steps := make([]ApprovalStep, len(ordered))
	for i, t := range ordered {
		deadline := now.Add(opts.SLA.For(t))
		steps[i] = ApprovalStep{
			Tier:        t,
			Status:      StepPending,
			SLADeadline: &deadline,
			CreatedAt:   now,
		}
	}

	return ApprovalChain{Steps: steps, CurrentStepIndex: 0, CreatedAt: now}
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func checkActionable(action string, c ApprovalChain, i int) error {
	if c.IsComplete {
		return &TransitionError{Action: action, Step: i, Reason: "chain is already complete", Err: ErrChainComplete}
	}
	if i < 0 || i >= len(c.Steps) {
		return &TransitionError{Action: action, Step: i, Reason: "no such step", Err: ErrStepOutOfRange}
	}
	if c.Steps[i].Status != StepPending {
		return &TransitionError{Action: action, Step: i, Reason: "step is " + string(c.Steps[i].Status), Err: ErrStepNotPending}
	}
	if i != c.CurrentStepIndex {
		return &TransitionError{Action: action, Step: i, Reason: "current step is " + strconv.Itoa(c.CurrentStepIndex), Err: ErrStepNotCurrent}
	}
	return nil
}

// Approve approves step i. On error the input chain is returned unchanged.
func Approve(c ApprovalChain, i int, approver, notes string, at time.Time) (ApprovalChain, error) {
	if err := checkActionable("approve", c, i); err != nil {
		return c, err
	}

	next := c.clone()
	step := &next.Steps[i]
	step.Status = StepApproved
	step.ApproverName = approver
	step.Notes = notes
	step.Timestamp = &at

	if i == len(next.Steps)-1 {
		next.IsComplete = true
		next.CurrentStepIndex = len(next.Steps)
	} else {
		next.CurrentStepIndex = i + 1
		next.Steps[i+1].restartClock(at)
	}
	return next, nil
}

// Reject rejects step i. Rejection is final: later steps become skipped.
func Reject(c ApprovalChain, i int, approver, notes string, at time.Time) (ApprovalChain, error) {
	if err := checkActionable("reject", c, i); err != nil {
		return c, err
	}

	next := c.clone()
	step := &next.Steps[i]
	step.Status = StepRejected
	step.ApproverName = approver
	step.Notes = notes
	step.Timestamp = &at

	for j := i + 1; j < len(next.Steps); j++ {
		next.Steps[j].Status = StepSkipped
	}
	next.IsComplete = true
	next.CurrentStepIndex = len(next.Steps)
	return next, nil
}

// Escalate moves step i to the next higher tier with a fresh SLA deadline.
// When the following step already holds that tier, step i is skipped and the
// chain advances to it instead.
func Escalate(c ApprovalChain, i int, by string, at time.Time, sla SLAPolicy) (ApprovalChain, error) {
	if err := checkActionable("escalate", c, i); err != nil {
		return c, err
	}
	higher, ok := c.Steps[i].Tier.Next()
	if !ok {
		return c, &TransitionError{Action: "escalate", Step: i, Reason: "step is already at tier " + string(c.Steps[i].Tier), Err: ErrNoHigherTier}
	}

	next := c.clone()
	step := &next.Steps[i]
	step.IsEscalated = true
	deadline := at.Add(sla.For(higher))

	if i+1 < len(next.Steps) && next.Steps[i+1].Tier == higher {
		step.Status = StepSkipped
		step.ApproverName = by
		step.Notes = "escalated to " + string(higher)
		step.Timestamp = &at
		step.SLADeadline = nil

		target := &next.Steps[i+1]
		target.SLADeadline = &deadline
		target.CreatedAt = at
		next.CurrentStepIndex = i + 1
		return next, nil
	}

	step.Tier = higher
	step.SLADeadline = &deadline
	step.CreatedAt = at
	return next, nil
}
