package roster_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/roster"
	"github.com/warp/award-engine/roster/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func at(offset, hh, mm int) *time.Time {
	d := monday.AddDate(0, 0, offset)
	t := time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, time.UTC)
	return &t
}

// workday is 09:00-17:00 with a 30 minute lunch, on schedule.
func workday(offset int) award.TimeEntry {
	return award.TimeEntry{
		Date:           monday.AddDate(0, 0, offset),
		ClockIn:        at(offset, 9, 0),
		ClockOut:       at(offset, 17, 0),
		ScheduledStart: at(offset, 9, 0),
		ScheduledEnd:   at(offset, 17, 0),
		Breaks: []award.Break{
			{Start: *at(offset, 12, 0), End: *at(offset, 12, 30), Type: award.BreakMeal},
		},
	}
}

func cleanWeek() award.Timesheet {
	entries := make([]award.TimeEntry, 5)
	for i := range entries {
		entries[i] = workday(i)
	}
	return award.Timesheet{ID: "ts-1", EmployeeID: "emp-1", WeekStart: monday, Entries: entries}
}

// lateWeek has one late clock-out, a manager-level warning.
func lateWeek() award.Timesheet {
	ts := cleanWeek()
	ts.Entries[4].ClockOut = at(4, 17, 20)
	return ts
}

// missingClockOutWeek has a critical flag routed to senior management.
func missingClockOutWeek() award.Timesheet {
	ts := cleanWeek()
	ts.Entries[2].ClockOut = nil
	ts.Entries[2].Breaks = nil
	return ts
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []roster.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n roster.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) events() []roster.NotificationEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]roster.NotificationEvent, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Event
	}
	return out
}

type fixture struct {
	svc      *roster.Service
	store    *store.Memory
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    store.NewMemory(),
		notifier: &recordingNotifier{},
		now:      time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	f.svc = roster.NewService(f.store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.svc.Notifier = f.notifier
	f.svc.Now = func() time.Time { return f.now }
	n := 0
	f.svc.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return f
}

func (f *fixture) submit(t *testing.T, ts award.Timesheet) *roster.Submission {
	t.Helper()
	rate := decimal.NewFromInt(40)
	sub, err := f.svc.Submit(context.Background(), roster.SubmitInput{
		Timesheet:  ts,
		CompanyID:  "acme",
		HourlyRate: &rate,
		Actor:      "emp-1",
	})
	require.NoError(t, err)
	return sub
}

func (f *fixture) actions(t *testing.T) []roster.AuditAction {
	t.Helper()
	entries, err := f.svc.Audit(context.Background(), roster.AuditFilter{})
	require.NoError(t, err)
	out := make([]roster.AuditAction, len(entries))
	for i, e := range entries {
		out[i] = e.Action
	}
	return out
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmit_CleanWeekIsAutoApproved(t *testing.T) {
	f := newFixture(t)

	// GIVEN: A compliant week
	// WHEN: It is submitted
	sub := f.submit(t, cleanWeek())

	// THEN: The chain is auto-approved and the timesheet locked
	assert.True(t, sub.Chain.AutoApproved)
	assert.Equal(t, award.TimesheetApproved, sub.Record.Timesheet.Status)
	assert.True(t, sub.Record.GrossPay.Equal(decimal.NewFromInt(1500)), "got %s", sub.Record.GrossPay)
	assert.Equal(t, f.now, sub.Record.Timesheet.SubmittedAt)

	stored, err := f.svc.Timesheet(context.Background(), "ts-1")
	require.NoError(t, err)
	assert.Equal(t, award.TimesheetApproved, stored.Record.Timesheet.Status)
	assert.True(t, stored.Chain.IsComplete)

	assert.Equal(t, []roster.AuditAction{roster.AuditTimesheetSubmitted}, f.actions(t))
	assert.Equal(t, []roster.NotificationEvent{roster.EventTimesheetApproved}, f.notifier.events())
}

func TestSubmit_AssignsIDWhenMissing(t *testing.T) {
	f := newFixture(t)
	ts := cleanWeek()
	ts.ID = ""

	sub := f.submit(t, ts)

	assert.Equal(t, award.TimesheetID("id-1"), sub.Record.Timesheet.ID)
}

func TestSubmit_WarningRoutesToManager(t *testing.T) {
	f := newFixture(t)

	sub := f.submit(t, lateWeek())

	assert.Equal(t, award.TimesheetPending, sub.Record.Timesheet.Status)
	require.Len(t, sub.Chain.Steps, 1)
	assert.Equal(t, award.TierManager, sub.Chain.Steps[0].Tier)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, roster.EventApprovalRequired, f.notifier.sent[0].Event)
	assert.Equal(t, award.TierManager, f.notifier.sent[0].Tier)
}

func TestSubmit_ApprovedTimesheetIsLocked(t *testing.T) {
	f := newFixture(t)
	f.submit(t, cleanWeek())

	// WHEN: The approved week is resubmitted
	_, err := f.svc.Submit(context.Background(), roster.SubmitInput{Timesheet: lateWeek()})

	// THEN: Conflict, nothing written
	require.Error(t, err)
	assert.ErrorIs(t, err, roster.ErrTimesheetLocked)
	assert.True(t, roster.IsConflict(err))
	assert.Len(t, f.actions(t), 1)
}

func TestSubmit_ResubmissionAutoResolvesCorrectedFlags(t *testing.T) {
	f := newFixture(t)

	// GIVEN: A pending week with a late clock-out
	first := f.submit(t, lateWeek())
	require.Equal(t, award.TimesheetPending, first.Record.Timesheet.Status)

	// WHEN: The corrected week is resubmitted
	second := f.submit(t, cleanWeek())

	// THEN: The old flag is kept as auto-resolved info and the chain auto-approves
	require.Len(t, second.Record.Compliance.Flags, 1)
	flag := second.Record.Compliance.Flags[0]
	assert.True(t, flag.AutoResolved)
	assert.Equal(t, award.SeverityInfo, flag.Severity)
	assert.Equal(t, award.SeverityWarning, flag.OriginalSeverity)
	assert.True(t, second.Chain.AutoApproved)
	assert.Equal(t, award.TimesheetApproved, second.Record.Timesheet.Status)

	assert.Equal(t, []roster.AuditAction{
		roster.AuditTimesheetSubmitted,
		roster.AuditTimesheetResubmitted,
	}, f.actions(t))
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*award.Timesheet)
		rate   *decimal.Decimal
		field  string
	}{
		{
			name:   "missing employee",
			mutate: func(ts *award.Timesheet) { ts.EmployeeID = "" },
			field:  "employee_id",
		},
		{
			name:   "missing week start",
			mutate: func(ts *award.Timesheet) { ts.WeekStart = time.Time{} },
			field:  "week_start",
		},
		{
			name:   "entry outside week",
			mutate: func(ts *award.Timesheet) { ts.Entries[0].Date = monday.AddDate(0, 0, 7) },
			field:  "entries[0].date",
		},
		{
			name:   "entry without date",
			mutate: func(ts *award.Timesheet) { ts.Entries[1].Date = time.Time{} },
			field:  "entries[1].date",
		},
		{
			name:   "unknown break type",
			mutate: func(ts *award.Timesheet) { ts.Entries[2].Breaks[0].Type = "nap" },
			field:  "entries[2].breaks[0].type",
		},
		{
			name:   "negative rate",
			mutate: func(ts *award.Timesheet) {},
			rate:   func() *decimal.Decimal { d := decimal.NewFromInt(-1); return &d }(),
			field:  "hourly_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ts := cleanWeek()
			tt.mutate(&ts)

			_, err := f.svc.Submit(context.Background(), roster.SubmitInput{Timesheet: ts, HourlyRate: tt.rate})

			var verr *roster.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, roster.ErrInvalidTimesheet)
			assert.True(t, roster.IsClientError(err))
			assert.Empty(t, f.actions(t))
		})
	}
}

func TestSubmit_WeekInPositiveOffsetZone(t *testing.T) {
	// GIVEN: A Sydney week whose Sunday entry is the last day of the week
	sydney := time.FixedZone("AEST", 10*60*60)
	local := func(day, hh, mm int) *time.Time {
		v := time.Date(2024, time.March, 4+day, hh, mm, 0, 0, sydney)
		return &v
	}
	ts := award.Timesheet{
		ID:         "ts-syd",
		EmployeeID: "emp-1",
		WeekStart:  *local(0, 0, 0),
	}
	for _, day := range []int{0, 6} {
		ts.Entries = append(ts.Entries, award.TimeEntry{
			Date:     *local(day, 0, 0),
			ClockIn:  local(day, 9, 0),
			ClockOut: local(day, 13, 0),
		})
	}

	// WHEN: Submitting it
	f := newFixture(t)
	sub, err := f.svc.Submit(context.Background(), roster.SubmitInput{Timesheet: ts, Actor: "emp-1"})

	// THEN: Both days fall inside the week
	require.NoError(t, err)
	start, end := sub.Record.Timesheet.WeekWindow()
	assert.Equal(t, "2024-03-04", start.Format("2006-01-02"))
	assert.Equal(t, "2024-03-11", end.Format("2006-01-02"))

	// AND: The day after the week is still rejected
	ts.Entries[1].Date = *local(7, 0, 0)
	_, err = f.svc.Submit(context.Background(), roster.SubmitInput{Timesheet: ts, Actor: "emp-1"})
	assert.ErrorIs(t, err, roster.ErrInvalidTimesheet)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	f := newFixture(t)

	eval, err := f.svc.Preview(context.Background(), roster.SubmitInput{Timesheet: lateWeek()})

	require.NoError(t, err)
	assert.False(t, eval.Chain.AutoApproved)
	_, err = f.svc.Timesheet(context.Background(), "ts-1")
	assert.True(t, roster.IsNotFound(err))
	assert.Empty(t, f.actions(t))
	assert.Empty(t, f.notifier.sent)
}

func TestPreview_UsesStoredValidationAsPrevious(t *testing.T) {
	f := newFixture(t)
	f.submit(t, lateWeek())

	eval, err := f.svc.Preview(context.Background(), roster.SubmitInput{Timesheet: cleanWeek()})

	require.NoError(t, err)
	require.Len(t, eval.Compliance.Flags, 1)
	assert.True(t, eval.Compliance.Flags[0].AutoResolved)
}

// =============================================================================
// APPROVAL ACTIONS
// =============================================================================

func TestApprove_CompletesChain(t *testing.T) {
	f := newFixture(t)
	f.submit(t, missingClockOutWeek())

	// GIVEN: manager -> senior_manager
	d, err := f.svc.Approve(context.Background(), "ts-1", 0, "morgan", "ok")
	require.NoError(t, err)
	assert.Equal(t, award.TimesheetPending, d.Record.Timesheet.Status)
	assert.Equal(t, 1, d.Chain.CurrentStepIndex)

	d, err = f.svc.Approve(context.Background(), "ts-1", 1, "sam", "checked with employee")
	require.NoError(t, err)

	// THEN: Approved, persisted, audited and announced
	assert.Equal(t, award.TimesheetApproved, d.Record.Timesheet.Status)
	assert.True(t, d.Chain.IsComplete)

	stored, err := f.svc.Timesheet(context.Background(), "ts-1")
	require.NoError(t, err)
	assert.Equal(t, award.TimesheetApproved, stored.Record.Timesheet.Status)
	assert.Equal(t, "sam", stored.Chain.Steps[1].ApproverName)

	assert.Equal(t, []roster.AuditAction{
		roster.AuditTimesheetSubmitted,
		roster.AuditStepApproved,
		roster.AuditStepApproved,
	}, f.actions(t))
	assert.Equal(t, []roster.NotificationEvent{
		roster.EventApprovalRequired,
		roster.EventApprovalRequired,
		roster.EventTimesheetApproved,
	}, f.notifier.events())
}

func TestApprove_WrongStepLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.submit(t, missingClockOutWeek())

	// WHEN: The senior manager acts before the manager
	_, err := f.svc.Approve(context.Background(), "ts-1", 1, "sam", "")

	// THEN: Conflict and no change
	require.Error(t, err)
	assert.ErrorIs(t, err, award.ErrStepNotCurrent)
	assert.True(t, roster.IsConflict(err))

	stored, err := f.svc.Timesheet(context.Background(), "ts-1")
	require.NoError(t, err)
	assert.Equal(t, award.StepPending, stored.Chain.Steps[1].Status)
	assert.Len(t, f.actions(t), 1)
}

func TestApprove_RequiresActor(t *testing.T) {
	f := newFixture(t)
	f.submit(t, lateWeek())

	_, err := f.svc.Approve(context.Background(), "ts-1", 0, " ", "")

	assert.True(t, roster.IsClientError(err))
}

func TestApprove_UnknownTimesheet(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Approve(context.Background(), "nope", 0, "morgan", "")

	assert.True(t, roster.IsNotFound(err))
}

func TestReject_AllowsResubmission(t *testing.T) {
	f := newFixture(t)
	f.submit(t, missingClockOutWeek())

	d, err := f.svc.Reject(context.Background(), "ts-1", 0, "morgan", "fix wednesday")
	require.NoError(t, err)
	assert.Equal(t, award.TimesheetRejected, d.Record.Timesheet.Status)
	assert.Equal(t, award.StepSkipped, d.Chain.Steps[1].Status)

	// A rejected chain accepts no more actions
	_, err = f.svc.Approve(context.Background(), "ts-1", 1, "sam", "")
	assert.ErrorIs(t, err, award.ErrChainComplete)

	// The corrected week goes through
	sub := f.submit(t, cleanWeek())
	assert.Equal(t, award.TimesheetApproved, sub.Record.Timesheet.Status)
	assert.Contains(t, f.notifier.events(), roster.EventTimesheetRejected)
}

func TestEscalate_MovesStepUp(t *testing.T) {
	f := newFixture(t)
	f.submit(t, lateWeek())

	d, err := f.svc.Escalate(context.Background(), "ts-1", 0, "morgan", "needs a second look")
	require.NoError(t, err)

	step := d.Chain.Steps[0]
	assert.Equal(t, award.TierSeniorManager, step.Tier)
	assert.True(t, step.IsEscalated)
	assert.Equal(t, award.TimesheetPending, d.Record.Timesheet.Status)

	last := f.notifier.sent[len(f.notifier.sent)-1]
	assert.Equal(t, roster.EventStepEscalated, last.Event)
	assert.Equal(t, award.TierSeniorManager, last.Tier)

	entries, err := f.svc.Audit(context.Background(), roster.AuditFilter{Actions: []roster.AuditAction{roster.AuditStepEscalated}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "manager", entries[0].Payload["tier"])
	assert.Equal(t, "senior_manager", entries[0].Payload["to_tier"])
}

func TestOverdueApprovals(t *testing.T) {
	f := newFixture(t)
	f.submit(t, lateWeek())

	overdue, err := f.svc.OverdueApprovals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, overdue)

	// WHEN: The 24h manager SLA has elapsed
	f.now = f.now.Add(30 * time.Hour)

	overdue, err = f.svc.OverdueApprovals(context.Background())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, award.TierManager, overdue[0].Tier)
	assert.Equal(t, 6*time.Hour, overdue[0].Overdue)

	// THEN: Nothing was escalated automatically
	stored, err := f.svc.Timesheet(context.Background(), "ts-1")
	require.NoError(t, err)
	assert.Equal(t, award.TierManager, stored.Chain.Steps[0].Tier)
}

func TestOverdueApprovals_OnlyCurrentStep(t *testing.T) {
	f := newFixture(t)
	f.submit(t, missingClockOutWeek())
	ctx := context.Background()

	// GIVEN: Both the manager and senior manager windows have elapsed
	f.now = f.now.Add(50 * time.Hour)

	// THEN: Only the manager, who is being waited on, is overdue
	overdue, err := f.svc.OverdueApprovals(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, award.TierManager, overdue[0].Tier)
	assert.Equal(t, 0, overdue[0].Step)

	// WHEN: The manager approves
	_, err = f.svc.Approve(ctx, "ts-1", 0, "morgan", "")
	require.NoError(t, err)

	// THEN: The senior manager's window starts now
	overdue, err = f.svc.OverdueApprovals(ctx)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	f.now = f.now.Add(49 * time.Hour)
	overdue, err = f.svc.OverdueApprovals(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, award.TierSeniorManager, overdue[0].Tier)
	assert.Equal(t, time.Hour, overdue[0].Overdue)
}

// =============================================================================
// ALLOWANCES & HOLIDAYS
// =============================================================================

func saveStandardAllowances(t *testing.T, f *fixture) {
	t.Helper()
	rules := award.StandardOnCallAllowances(decimal.NewFromInt(20), decimal.NewFromInt(50), decimal.NewFromInt(60))
	var warnings []string
	for _, r := range rules {
		var err error
		warnings, err = f.svc.SaveAllowanceRule(context.Background(), r, "admin")
		require.NoError(t, err)
	}
	assert.Empty(t, warnings, "complete rule set")
}

func TestSubmit_OnCallHolidayPaysAllowances(t *testing.T) {
	f := newFixture(t)
	saveStandardAllowances(t, f)
	_, err := f.svc.SaveHoliday(context.Background(), award.Holiday{
		CompanyID: "acme", Date: monday.AddDate(0, 0, 2), Name: "Labour Day",
	})
	require.NoError(t, err)

	// GIVEN: On call on the Wednesday holiday, called back for 1.5 hours
	ts := cleanWeek()
	ts.Entries[2].OnCall = &award.OnCallShift{WasCalledBack: true, CallbackHours: decimal.NewFromFloat(1.5)}

	sub := f.submit(t, ts)

	// THEN: Standby at 2x (40) plus recall at its 3h minimum (180); callback excluded
	assert.True(t, sub.Record.AllowanceTotal.Equal(decimal.NewFromInt(220)), "got %s", sub.Record.AllowanceTotal)
	assert.True(t, sub.Record.GrossPay.Equal(decimal.NewFromInt(1720)), "got %s", sub.Record.GrossPay)

	applied := map[award.AllowanceID]bool{}
	for _, a := range sub.Record.Timesheet.Allowances {
		applied[a.AllowanceID] = true
	}
	assert.Equal(t, map[award.AllowanceID]bool{"standby": true, "recall": true}, applied)
}

func TestSaveAllowanceRule_ReturnsSetWarnings(t *testing.T) {
	f := newFixture(t)
	saveStandardAllowances(t, f)

	warnings, err := f.svc.SaveAllowanceRule(context.Background(), award.AllowanceRule{
		ID:           "meal",
		Name:         "Meal Allowance",
		TriggerType:  award.TriggerStandby,
		Rate:         decimal.NewFromInt(15),
		ExcludesWith: []award.AllowanceID{"ghost"},
		IsActive:     true,
	}, "admin")

	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "ghost")
}

func TestSaveAllowanceRule_Validation(t *testing.T) {
	f := newFixture(t)
	negative := decimal.NewFromInt(-1)

	tests := []struct {
		name  string
		rule  award.AllowanceRule
		field string
	}{
		{"missing id", award.AllowanceRule{TriggerType: award.TriggerStandby}, "id"},
		{"unknown trigger", award.AllowanceRule{ID: "x", TriggerType: "pager"}, "trigger_type"},
		{"negative rate", award.AllowanceRule{ID: "x", TriggerType: award.TriggerStandby, Rate: negative}, "rate"},
		{"negative minimum", award.AllowanceRule{ID: "x", TriggerType: award.TriggerCallback, CallbackMinimumHours: &negative}, "callback_minimum_hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SaveAllowanceRule(context.Background(), tt.rule, "admin")

			var verr *roster.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, roster.ErrInvalidAllowanceRule)
		})
	}
}

func TestDeleteAllowanceRule(t *testing.T) {
	f := newFixture(t)
	saveStandardAllowances(t, f)

	require.NoError(t, f.svc.DeleteAllowanceRule(context.Background(), "recall", "admin"))

	rules, err := f.svc.AllowanceRules(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, 3)

	err = f.svc.DeleteAllowanceRule(context.Background(), "recall", "admin")
	assert.True(t, roster.IsNotFound(err))

	// Failed delete wrote no audit entry
	entries, err := f.svc.Audit(context.Background(), roster.AuditFilter{Actions: []roster.AuditAction{roster.AuditAllowanceRuleDeleted}})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestResolveAllowances_UsesStoredRules(t *testing.T) {
	f := newFixture(t)
	saveStandardAllowances(t, f)
	require.NoError(t, f.svc.DeleteAllowanceRule(context.Background(), "recall", "admin"))

	res, err := f.svc.ResolveAllowances(context.Background(), award.ShiftContext{
		IsWeekend:     true,
		WasCalledBack: true,
		CallbackHours: decimal.NewFromInt(3),
	})

	// THEN: Weekend standby (30) plus 3h callback (150)
	require.NoError(t, err)
	assert.True(t, res.TotalPay.Equal(decimal.NewFromInt(180)), "got %s", res.TotalPay)
}

func TestHolidays(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SaveHoliday(context.Background(), award.Holiday{Name: "", Date: monday})
	assert.ErrorIs(t, err, roster.ErrInvalidHoliday)
	assert.True(t, roster.IsClientError(err))

	h, err := f.svc.SaveHoliday(context.Background(), award.Holiday{
		Date: time.Date(2024, time.December, 25, 0, 0, 0, 0, time.UTC), Name: "Christmas", Recurring: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)

	_, err = f.svc.SaveHoliday(context.Background(), award.Holiday{CompanyID: "other", Date: monday, Name: "Founders Day"})
	require.NoError(t, err)

	holidays, err := f.svc.Holidays(context.Background(), "acme")
	require.NoError(t, err)
	require.Len(t, holidays, 1)
	assert.Equal(t, "Christmas", holidays[0].Name)
	assert.True(t, f.store.IsHoliday("acme", time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)))
}

// =============================================================================
// QUERIES
// =============================================================================

func TestTimesheets_Filter(t *testing.T) {
	f := newFixture(t)
	f.submit(t, cleanWeek())

	pending := lateWeek()
	pending.ID = "ts-2"
	pending.EmployeeID = "emp-2"
	f.submit(t, pending)

	status := award.TimesheetPending
	recs, err := f.svc.Timesheets(context.Background(), roster.TimesheetFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, award.TimesheetID("ts-2"), recs[0].Timesheet.ID)

	emp := award.EmployeeID("emp-1")
	recs, err = f.svc.Timesheets(context.Background(), roster.TimesheetFilter{EmployeeID: &emp})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, award.TimesheetID("ts-1"), recs[0].Timesheet.ID)
}
