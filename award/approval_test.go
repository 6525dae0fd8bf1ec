package award_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
)

var routedAt = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func validation(flags ...award.ComplianceFlag) award.ComplianceValidation {
	v := award.ComplianceValidation{IsCompliant: true, Flags: flags}
	for _, f := range flags {
		if f.Severity == award.SeverityCritical {
			v.IsCompliant = false
			v.BlockingIssues = append(v.BlockingIssues, f.Description)
		}
	}
	return v
}

func flag(ft award.FlagType, sev award.Severity) award.ComplianceFlag {
	return award.ComplianceFlag{ID: award.FlagID(ft), Type: ft, Severity: sev, Description: string(ft)}
}

func route(v award.ComplianceValidation) award.ApprovalChain {
	return award.DetermineApprovalChain(v, award.RoutingOptions{Now: routedAt})
}

// =============================================================================
// ROUTING
// =============================================================================

func TestRoute_NoFlags_AutoApproved(t *testing.T) {
	chain := route(validation())

	assert.True(t, chain.AutoApproved)
	assert.True(t, chain.IsComplete)
	assert.Empty(t, chain.Steps)
	assert.Equal(t, award.TierAuto, chain.FinalTier())
	assert.Equal(t, award.TimesheetApproved, chain.Outcome())
}

func TestRoute_InfoOnly_AutoApproved(t *testing.T) {
	chain := route(validation(flag(award.FlagPatternDrift, award.SeverityInfo)))

	assert.True(t, chain.AutoApproved)
	assert.Empty(t, chain.Steps)
}

func TestRoute_Warning_ManagerWithSLA(t *testing.T) {
	// GIVEN: A single warning
	// THEN: One pending manager step due 24h after routing

	chain := route(validation(flag(award.FlagMissedBreak, award.SeverityWarning)))

	assert.False(t, chain.AutoApproved)
	assert.False(t, chain.IsComplete)
	assert.Equal(t, 0, chain.CurrentStepIndex)
	require.Len(t, chain.Steps, 1)
	step := chain.Steps[0]
	assert.Equal(t, award.TierManager, step.Tier)
	assert.Equal(t, award.StepPending, step.Status)
	require.NotNil(t, step.SLADeadline)
	assert.Equal(t, routedAt.Add(24*time.Hour), *step.SLADeadline)
}

func TestRoute_CriticalFlag_NeverAutoApproved(t *testing.T) {
	// GIVEN: A validation with one critical flag
	// THEN: The chain is not auto-approved and the first tier is not auto

	chain := route(validation(flag(award.FlagMissingClockOut, award.SeverityCritical)))

	assert.False(t, chain.AutoApproved)
	require.NotEmpty(t, chain.Steps)
	assert.NotEqual(t, award.TierAuto, chain.Steps[0].Tier)
	assert.Equal(t, []award.Tier{award.TierManager, award.TierSeniorManager}, stepTiers(chain))
}

func TestRoute_HoursBreach_TerminatesAtHR(t *testing.T) {
	chain := route(validation(
		flag(award.FlagMaxWeeklyHours, award.SeverityCritical),
		flag(award.FlagIrregularPunch, award.SeverityCritical),
		flag(award.FlagLateClockOut, award.SeverityWarning),
	))

	assert.Equal(t, []award.Tier{award.TierManager, award.TierSeniorManager, award.TierHR}, stepTiers(chain))
	assert.Equal(t, award.TierHR, chain.FinalTier())
	assert.Equal(t, routedAt.Add(72*time.Hour), *chain.Steps[2].SLADeadline)
}

func TestRoute_PayAboveDirectorThreshold_AddsDirector(t *testing.T) {
	pay := award.Dec(5200)
	threshold := award.Dec(5000)

	chain := award.DetermineApprovalChain(
		validation(flag(award.FlagOvertimeThreshold, award.SeverityWarning)),
		award.RoutingOptions{Now: routedAt, TotalPay: &pay, DirectorPayThreshold: &threshold},
	)

	assert.Equal(t, []award.Tier{award.TierManager, award.TierDirector}, stepTiers(chain))
}

func TestRoute_PayAboveDirectorThreshold_CleanSheetStillAuto(t *testing.T) {
	pay := award.Dec(5200)
	threshold := award.Dec(5000)

	chain := award.DetermineApprovalChain(validation(),
		award.RoutingOptions{Now: routedAt, TotalPay: &pay, DirectorPayThreshold: &threshold})

	assert.True(t, chain.AutoApproved)
}

func TestRoute_StepsOrderedByTier(t *testing.T) {
	chain := route(validation(
		flag(award.FlagMaxDailyHours, award.SeverityCritical),
		flag(award.FlagEarlyClockIn, award.SeverityWarning),
		flag(award.FlagMissingClockOut, award.SeverityCritical),
	))

	for i := 1; i < len(chain.Steps); i++ {
		assert.LessOrEqual(t, chain.Steps[i-1].Tier.Rank(), chain.Steps[i].Tier.Rank())
	}
}

// =============================================================================
// APPROVE / REJECT
// =============================================================================

func twoStepChain() award.ApprovalChain {
	return route(validation(flag(award.FlagMissingClockOut, award.SeverityCritical)))
}

func TestApprove_AdvancesThenCompletes(t *testing.T) {
	chain := twoStepChain()
	at := routedAt.Add(time.Hour)

	next, err := award.Approve(chain, 0, "Morgan", "checked with employee", at)
	require.NoError(t, err)
	assert.Equal(t, 1, next.CurrentStepIndex)
	assert.False(t, next.IsComplete)
	assert.Equal(t, award.StepApproved, next.Steps[0].Status)
	assert.Equal(t, "Morgan", next.Steps[0].ApproverName)
	assert.Equal(t, at, *next.Steps[0].Timestamp)
	assert.Equal(t, award.TimesheetPending, next.Outcome())

	// Input chain untouched
	assert.Equal(t, award.StepPending, chain.Steps[0].Status)
	assert.Equal(t, 0, chain.CurrentStepIndex)

	done, err := award.Approve(next, 1, "Riley", "", at)
	require.NoError(t, err)
	assert.True(t, done.IsComplete)
	assert.Equal(t, len(done.Steps), done.CurrentStepIndex)
	assert.Equal(t, award.TimesheetApproved, done.Outcome())
}

func TestApprove_NotCurrentStep_Rejected(t *testing.T) {
	chain := twoStepChain()

	next, err := award.Approve(chain, 1, "Riley", "", routedAt)

	assert.ErrorIs(t, err, award.ErrStepNotCurrent)
	assert.True(t, award.IsClientError(err))
	assert.Equal(t, chain, next)
}

func TestApprove_OutOfRange_Rejected(t *testing.T) {
	chain := twoStepChain()

	_, err := award.Approve(chain, 5, "Riley", "", routedAt)
	assert.ErrorIs(t, err, award.ErrStepOutOfRange)

	_, err = award.Approve(chain, -1, "Riley", "", routedAt)
	assert.ErrorIs(t, err, award.ErrStepOutOfRange)
}

func TestApprove_AutoApprovedChain_Rejected(t *testing.T) {
	_, err := award.Approve(route(validation()), 0, "Morgan", "", routedAt)

	var te *award.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "approve", te.Action)
	assert.ErrorIs(t, err, award.ErrChainComplete)
}

func TestReject_IsFinal_LaterStepsSkipped(t *testing.T) {
	chain := twoStepChain()

	next, err := award.Reject(chain, 0, "Morgan", "hours do not match roster", routedAt)
	require.NoError(t, err)

	assert.True(t, next.IsComplete)
	assert.Equal(t, award.StepRejected, next.Steps[0].Status)
	assert.Equal(t, award.StepSkipped, next.Steps[1].Status)
	assert.Equal(t, award.TimesheetRejected, next.Outcome())

	_, err = award.Approve(next, 1, "Riley", "", routedAt)
	assert.ErrorIs(t, err, award.ErrChainComplete)
}

// =============================================================================
// ESCALATE & SLA
// =============================================================================

func TestEscalate_PromotesInPlace(t *testing.T) {
	// GIVEN: A single manager step
	// WHEN: The manager escalates
	// THEN: The step becomes senior_manager with a fresh 48h deadline

	chain := route(validation(flag(award.FlagMissedBreak, award.SeverityWarning)))
	at := routedAt.Add(30 * time.Hour)

	next, err := award.Escalate(chain, 0, "Morgan", at, nil)
	require.NoError(t, err)

	require.Len(t, next.Steps, 1)
	step := next.Steps[0]
	assert.Equal(t, award.TierSeniorManager, step.Tier)
	assert.True(t, step.IsEscalated)
	assert.Equal(t, award.StepPending, step.Status)
	assert.Equal(t, at.Add(48*time.Hour), *step.SLADeadline)
	assert.Equal(t, 0, next.CurrentStepIndex)
	assert.Equal(t, award.TierManager, chain.Steps[0].Tier)
}

func TestEscalate_AdvancesToExistingHigherStep(t *testing.T) {
	// GIVEN: manager -> senior_manager
	// WHEN: The manager step escalates
	// THEN: It is skipped and the senior manager step becomes current with a reset deadline

	chain := twoStepChain()
	at := routedAt.Add(30 * time.Hour)

	next, err := award.Escalate(chain, 0, "Morgan", at, nil)
	require.NoError(t, err)

	assert.Equal(t, award.StepSkipped, next.Steps[0].Status)
	assert.True(t, next.Steps[0].IsEscalated)
	assert.Equal(t, 1, next.CurrentStepIndex)
	assert.Equal(t, at.Add(48*time.Hour), *next.Steps[1].SLADeadline)
	assert.Equal(t, []award.Tier{award.TierManager, award.TierSeniorManager}, stepTiers(next))
}

func TestEscalate_TopTier_Rejected(t *testing.T) {
	chain := route(validation(flag(award.FlagMaxWeeklyHours, award.SeverityCritical)))
	chain, err := award.Approve(chain, 0, "Morgan", "", routedAt)
	require.NoError(t, err)

	next, err := award.Escalate(chain, 1, "HR", routedAt, nil)

	assert.ErrorIs(t, err, award.ErrNoHigherTier)
	assert.Equal(t, chain, next)
}

func TestSLA_OverdueIsIndicatorOnly(t *testing.T) {
	chain := twoStepChain()

	assert.Empty(t, chain.OverdueSteps(routedAt.Add(23*time.Hour)))
	assert.Equal(t, []int{0}, chain.OverdueSteps(routedAt.Add(25*time.Hour)))
	assert.Equal(t, []int{0}, chain.OverdueSteps(routedAt.Add(49*time.Hour)), "later steps are not waited on yet")

	// No state changes from elapsed time
	assert.Equal(t, 0, chain.CurrentStepIndex)
	assert.Equal(t, award.TierManager, chain.Steps[0].Tier)
}

func TestSLA_NextStepClockStartsWhenReached(t *testing.T) {
	chain := twoStepChain()
	approvedAt := routedAt.Add(40 * time.Hour)

	// WHEN: The manager approves late, after the senior manager's original window
	next, err := award.Approve(chain, 0, "Morgan", "", approvedAt)
	require.NoError(t, err)

	// THEN: The senior manager gets a full window from now
	require.NotNil(t, next.Steps[1].SLADeadline)
	assert.Equal(t, approvedAt.Add(48*time.Hour), *next.Steps[1].SLADeadline)
	assert.Equal(t, approvedAt, next.Steps[1].CreatedAt)
	assert.Empty(t, next.OverdueSteps(routedAt.Add(49*time.Hour)))
	assert.Equal(t, []int{1}, next.OverdueSteps(approvedAt.Add(49*time.Hour)))

	// AND: The input chain keeps its original deadline
	assert.Equal(t, routedAt.Add(48*time.Hour), *chain.Steps[1].SLADeadline)
}

func TestSLAPolicy_CustomAndFallback(t *testing.T) {
	sla := award.SLAPolicy{award.TierManager: 4 * time.Hour}

	assert.Equal(t, 4*time.Hour, sla.For(award.TierManager))
	assert.Equal(t, 48*time.Hour, sla.For(award.TierSeniorManager))
}

func TestParseTier(t *testing.T) {
	tier, err := award.ParseTier("senior_manager")
	require.NoError(t, err)
	assert.Equal(t, award.TierSeniorManager, tier)

	_, err = award.ParseTier("ceo")
	assert.ErrorIs(t, err, award.ErrUnknownValue)
}
