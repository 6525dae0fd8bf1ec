/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the award engine's domain model from the external API contract: snake_case
  fields, calendar dates as "2006-01-02" strings, instants as RFC 3339 and
  money or hours as decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Timesheets:
    SubmitTimesheetRequest, TimeEntryDTO, BreakDTO, OnCallDTO, BaselineDTO,
    TimesheetDTO, SubmissionResponse

  Evaluation:
    EvaluationDTO, OvertimeDTO, ComplianceDTO, FlagDTO, ShiftAllowancesDTO

  Approvals:
    ChainDTO, StepDTO, ActionRequest, OverdueApprovalDTO

  Allowances:
    SaveAllowanceRuleRequest, AllowanceRuleResponse (wrap factory.AllowanceRuleJSON),
    ResolveAllowancesRequest, ResolutionDTO, AppliedAllowanceDTO

  Holidays / Audit:
    HolidayDTO, AuditEntryDTO

VALIDATION:
  Handlers only parse. Business validation happens in roster.Service so the
  HTTP and in-process callers get the same errors.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go: AllowanceRuleJSON type
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/factory"
	"github.com/warp/award-engine/roster"
)

const dateLayout = "2006-01-02"

// =============================================================================
// TIMESHEET REQUEST TYPES
// =============================================================================

// BreakDTO is a rest period inside an entry.
type BreakDTO struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"`
}

// OnCallDTO marks an entry as an on-call shift.
type OnCallDTO struct {
	WasCalledBack bool            `json:"was_called_back"`
	CallbackHours decimal.Decimal `json:"callback_hours"`
}

// TimeEntryDTO is one calendar day of work.
type TimeEntryDTO struct {
	Date           string     `json:"date"`
	ClockIn        *time.Time `json:"clock_in,omitempty"`
	ClockOut       *time.Time `json:"clock_out,omitempty"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
	Breaks         []BreakDTO `json:"breaks,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	OnCall         *OnCallDTO `json:"on_call,omitempty"`
}

// BaselineDTO is the employee's historical clock-in pattern in minutes after midnight.
type BaselineDTO struct {
	MeanStartMinute float64 `json:"mean_start_minute"`
	StdDevMinutes   float64 `json:"std_dev_minutes"`
}

// SubmitTimesheetRequest is the body of POST /api/timesheets and /api/preview.
type SubmitTimesheetRequest struct {
	ID         string           `json:"id,omitempty"`
	EmployeeID string           `json:"employee_id"`
	CompanyID  string           `json:"company_id,omitempty"`
	WeekStart  string           `json:"week_start"`
	HourlyRate *decimal.Decimal `json:"hourly_rate,omitempty"`
	Entries    []TimeEntryDTO   `json:"entries"`
	Baseline   *BaselineDTO     `json:"baseline,omitempty"`
	Actor      string           `json:"actor,omitempty"`
}

// toInput converts the request into a service input. Only date syntax is
// checked here.
func (req SubmitTimesheetRequest) toInput() (roster.SubmitInput, error) {
	ts := award.Timesheet{
		ID:         award.TimesheetID(req.ID),
		EmployeeID: award.EmployeeID(req.EmployeeID),
	}

	if req.WeekStart != "" {
		ws, err := time.Parse(dateLayout, req.WeekStart)
		if err != nil {
			return roster.SubmitInput{}, fmt.Errorf("week_start: %w", err)
		}
		ts.WeekStart = ws
	}

	ts.Entries = make([]award.TimeEntry, len(req.Entries))
	for i, e := range req.Entries {
		entry, err := e.toEntry()
		if err != nil {
			return roster.SubmitInput{}, fmt.Errorf("entries[%d]: %w", i, err)
		}
		ts.Entries[i] = entry
	}

	if req.Baseline != nil {
		ts.Baseline = &award.StartTimeBaseline{
			MeanStartMinute: req.Baseline.MeanStartMinute,
			StdDevMinutes:   req.Baseline.StdDevMinutes,
		}
	}

	return roster.SubmitInput{
		Timesheet:  ts,
		CompanyID:  req.CompanyID,
		HourlyRate: req.HourlyRate,
		Actor:      req.Actor,
	}, nil
}

func (e TimeEntryDTO) toEntry() (award.TimeEntry, error) {
	entry := award.TimeEntry{
		ClockIn:        e.ClockIn,
		ClockOut:       e.ClockOut,
		ScheduledStart: e.ScheduledStart,
		ScheduledEnd:   e.ScheduledEnd,
		Notes:          e.Notes,
	}
	if e.Date != "" {
		d, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			return entry, fmt.Errorf("date: %w", err)
		}
		entry.Date = d
	}
	for _, b := range e.Breaks {
		entry.Breaks = append(entry.Breaks, award.Break{Start: b.Start, End: b.End, Type: award.BreakType(b.Type)})
	}
	if e.OnCall != nil {
		entry.OnCall = &award.OnCallShift{
			WasCalledBack: e.OnCall.WasCalledBack,
			CallbackHours: e.OnCall.CallbackHours,
		}
	}
	return entry, nil
}

func toTimeEntryDTO(e award.TimeEntry) TimeEntryDTO {
	dto := TimeEntryDTO{
		Date:           e.Day().Format(dateLayout),
		ClockIn:        e.ClockIn,
		ClockOut:       e.ClockOut,
		ScheduledStart: e.ScheduledStart,
		ScheduledEnd:   e.ScheduledEnd,
		Notes:          e.Notes,
	}
	for _, b := range e.Breaks {
		dto.Breaks = append(dto.Breaks, BreakDTO{Start: b.Start, End: b.End, Type: string(b.Type)})
	}
	if e.OnCall != nil {
		dto.OnCall = &OnCallDTO{WasCalledBack: e.OnCall.WasCalledBack, CallbackHours: e.OnCall.CallbackHours}
	}
	return dto
}

// =============================================================================
// EVALUATION RESPONSE TYPES
// =============================================================================

// OvertimeDTO is the hours classification with its pay.
type OvertimeDTO struct {
	RegularHours        decimal.Decimal `json:"regular_hours"`
	DailyOvertimeHours  decimal.Decimal `json:"daily_overtime_hours"`
	WeeklyOvertimeHours decimal.Decimal `json:"weekly_overtime_hours"`
	DoubleTimeHours     decimal.Decimal `json:"double_time_hours"`
	TotalHours          decimal.Decimal `json:"total_hours"`
	RegularPay          decimal.Decimal `json:"regular_pay"`
	OvertimePay         decimal.Decimal `json:"overtime_pay"`
	DoubleTimePay       decimal.Decimal `json:"double_time_pay"`
	TotalPay            decimal.Decimal `json:"total_pay"`
}

func toOvertimeDTO(c award.OvertimeCalculation) OvertimeDTO {
	return OvertimeDTO{
		RegularHours:        c.RegularHours,
		DailyOvertimeHours:  c.DailyOvertimeHours,
		WeeklyOvertimeHours: c.WeeklyOvertimeHours,
		DoubleTimeHours:     c.DoubleTimeHours,
		TotalHours:          c.TotalHours,
		RegularPay:          c.RegularPay,
		OvertimePay:         c.OvertimePay,
		DoubleTimePay:       c.DoubleTimePay,
		TotalPay:            c.TotalPay,
	}
}

type FlagDTO struct {
	ID               string  `json:"id"`
	Type             string  `json:"type"`
	Severity         string  `json:"severity"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	EntryDate        *string `json:"entry_date,omitempty"`
	AutoResolved     bool    `json:"auto_resolved"`
	OriginalSeverity string  `json:"original_severity,omitempty"`
	RequiredTier     string  `json:"required_tier"`
}

type ComplianceDTO struct {
	IsCompliant    bool      `json:"is_compliant"`
	Flags          []FlagDTO `json:"flags"`
	BlockingIssues []string  `json:"blocking_issues"`
}

func toComplianceDTO(v award.ComplianceValidation) ComplianceDTO {
	dto := ComplianceDTO{
		IsCompliant:    v.IsCompliant,
		Flags:          make([]FlagDTO, len(v.Flags)),
		BlockingIssues: v.BlockingIssues,
	}
	if dto.BlockingIssues == nil {
		dto.BlockingIssues = []string{}
	}
	for i, f := range v.Flags {
		fd := FlagDTO{
			ID:               string(f.ID),
			Type:             string(f.Type),
			Severity:         string(f.Severity),
			Title:            f.Title,
			Description:      f.Description,
			AutoResolved:     f.AutoResolved,
			OriginalSeverity: string(f.OriginalSeverity),
			RequiredTier:     string(award.RequiredTier(f)),
		}
		if f.EntryDate != nil {
			s := f.EntryDate.Format(dateLayout)
			fd.EntryDate = &s
		}
		dto.Flags[i] = fd
	}
	return dto
}

// AppliedAllowanceDTO is one step of an allowance resolution.
type AppliedAllowanceDTO struct {
	AllowanceID string          `json:"allowance_id"`
	Name        string          `json:"name"`
	TriggerType string          `json:"trigger_type"`
	Amount      decimal.Decimal `json:"amount"`
	PaidHours   decimal.Decimal `json:"paid_hours"`
	Applied     bool            `json:"applied"`
	Triggered   bool            `json:"triggered"`
	Reason      string          `json:"reason"`
	IsExcluded  bool            `json:"is_excluded"`
	ExcludedBy  *string         `json:"excluded_by,omitempty"`
}

func toAppliedAllowanceDTOs(steps []award.AppliedAllowance) []AppliedAllowanceDTO {
	dtos := make([]AppliedAllowanceDTO, len(steps))
	for i, a := range steps {
		dtos[i] = AppliedAllowanceDTO{
			AllowanceID: string(a.AllowanceID),
			Name:        a.Name,
			TriggerType: string(a.TriggerType),
			Amount:      a.Amount,
			PaidHours:   a.PaidHours,
			Applied:     a.Applied,
			Triggered:   a.Triggered,
			Reason:      a.Reason,
			IsExcluded:  a.IsExcluded,
		}
		if a.ExcludedBy != nil {
			by := string(*a.ExcludedBy)
			dtos[i].ExcludedBy = &by
		}
	}
	return dtos
}

type ResolutionDTO struct {
	Steps                []AppliedAllowanceDTO `json:"steps"`
	TotalPay             decimal.Decimal       `json:"total_pay"`
	PayWithoutExclusions decimal.Decimal       `json:"pay_without_exclusions"`
	Warnings             []string              `json:"warnings"`
}

func toResolutionDTO(r award.Resolution) ResolutionDTO {
	dto := ResolutionDTO{
		Steps:                toAppliedAllowanceDTOs(r.Steps),
		TotalPay:             r.TotalPay,
		PayWithoutExclusions: r.PayWithoutExclusions,
		Warnings:             r.Warnings,
	}
	if dto.Warnings == nil {
		dto.Warnings = []string{}
	}
	return dto
}

// ShiftAllowancesDTO is the allowance resolution for one on-call day.
type ShiftAllowancesDTO struct {
	Date            string          `json:"date"`
	IsWeekend       bool            `json:"is_weekend"`
	IsPublicHoliday bool            `json:"is_public_holiday"`
	WasCalledBack   bool            `json:"was_called_back"`
	CallbackHours   decimal.Decimal `json:"callback_hours"`
	Resolution      ResolutionDTO   `json:"resolution"`
}

type EvaluationDTO struct {
	Overtime       OvertimeDTO          `json:"overtime"`
	Compliance     ComplianceDTO        `json:"compliance"`
	Chain          ChainDTO             `json:"chain"`
	Shifts         []ShiftAllowancesDTO `json:"shifts"`
	AllowanceTotal decimal.Decimal      `json:"allowance_total"`
	GrossPay       decimal.Decimal      `json:"gross_pay"`
	Warnings       []string             `json:"warnings"`
}

func toEvaluationDTO(e award.Evaluation, now time.Time) EvaluationDTO {
	dto := EvaluationDTO{
		Overtime:       toOvertimeDTO(e.Overtime),
		Compliance:     toComplianceDTO(e.Compliance),
		Chain:          toChainDTO(e.Chain, now),
		Shifts:         make([]ShiftAllowancesDTO, len(e.Shifts)),
		AllowanceTotal: e.AllowanceTotal,
		GrossPay:       e.GrossPay,
		Warnings:       e.Warnings(),
	}
	if dto.Warnings == nil {
		dto.Warnings = []string{}
	}
	for i, s := range e.Shifts {
		dto.Shifts[i] = ShiftAllowancesDTO{
			Date:            s.Date.Format(dateLayout),
			IsWeekend:       s.Context.IsWeekend,
			IsPublicHoliday: s.Context.IsPublicHoliday,
			WasCalledBack:   s.Context.WasCalledBack,
			CallbackHours:   s.Context.CallbackHours,
			Resolution:      toResolutionDTO(s.Resolution),
		}
	}
	return dto
}

// =============================================================================
// APPROVAL TYPES
// =============================================================================

type StepDTO struct {
	Index        int        `json:"index"`
	Tier         string     `json:"tier"`
	Status       string     `json:"status"`
	ApproverName string     `json:"approver_name,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	IsEscalated  bool       `json:"is_escalated"`
	SLADeadline  *time.Time `json:"sla_deadline,omitempty"`
	IsOverdue    bool       `json:"is_overdue"`
	CreatedAt    time.Time  `json:"created_at"`
}

type ChainDTO struct {
	AutoApproved     bool      `json:"auto_approved"`
	Steps            []StepDTO `json:"steps"`
	CurrentStepIndex int       `json:"current_step_index"`
	IsComplete       bool      `json:"is_complete"`
	FinalTier        string    `json:"final_tier"`
	Outcome          string    `json:"outcome"`
	CreatedAt        time.Time `json:"created_at"`
}

func toChainDTO(c award.ApprovalChain, now time.Time) ChainDTO {
	dto := ChainDTO{
		AutoApproved:     c.AutoApproved,
		Steps:            make([]StepDTO, len(c.Steps)),
		CurrentStepIndex: c.CurrentStepIndex,
		IsComplete:       c.IsComplete,
		FinalTier:        string(c.FinalTier()),
		Outcome:          string(c.Outcome()),
		CreatedAt:        c.CreatedAt,
	}
	for i, s := range c.Steps {
		dto.Steps[i] = StepDTO{
			Index:        i,
			Tier:         string(s.Tier),
			Status:       string(s.Status),
			ApproverName: s.ApproverName,
			Timestamp:    s.Timestamp,
			Notes:        s.Notes,
			IsEscalated:  s.IsEscalated,
			SLADeadline:  s.SLADeadline,
			IsOverdue:    s.IsOverdue(now),
			CreatedAt:    s.CreatedAt,
		}
	}
	return dto
}

// ActionRequest is the body of approve, reject and escalate.
type ActionRequest struct {
	Actor string `json:"actor"`
	Notes string `json:"notes,omitempty"`
}

type OverdueApprovalDTO struct {
	TimesheetID    string    `json:"timesheet_id"`
	EmployeeID     string    `json:"employee_id"`
	Step           int       `json:"step"`
	Tier           string    `json:"tier"`
	Deadline       time.Time `json:"deadline"`
	OverdueMinutes int64     `json:"overdue_minutes"`
}

func toOverdueApprovalDTO(o roster.OverdueApproval) OverdueApprovalDTO {
	return OverdueApprovalDTO{
		TimesheetID:    string(o.TimesheetID),
		EmployeeID:     string(o.EmployeeID),
		Step:           o.Step,
		Tier:           string(o.Tier),
		Deadline:       o.Deadline,
		OverdueMinutes: int64(o.Overdue / time.Minute),
	}
}

// =============================================================================
// TIMESHEET RESPONSE TYPES
// =============================================================================

// TimesheetDTO is a stored timesheet with the evaluation it was routed on.
type TimesheetDTO struct {
	ID             string                `json:"id"`
	EmployeeID     string                `json:"employee_id"`
	CompanyID      string                `json:"company_id,omitempty"`
	WeekStart      string                `json:"week_start"`
	Status         string                `json:"status"`
	HourlyRate     *decimal.Decimal      `json:"hourly_rate,omitempty"`
	Entries        []TimeEntryDTO        `json:"entries"`
	Overtime       OvertimeDTO           `json:"overtime"`
	Compliance     ComplianceDTO         `json:"compliance"`
	Allowances     []AppliedAllowanceDTO `json:"allowances"`
	AllowanceTotal decimal.Decimal       `json:"allowance_total"`
	GrossPay       decimal.Decimal       `json:"gross_pay"`
	SubmittedAt    time.Time             `json:"submitted_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Chain          *ChainDTO             `json:"chain,omitempty"`
}

func toTimesheetDTO(rec roster.Record) TimesheetDTO {
	ts := rec.Timesheet
	dto := TimesheetDTO{
		ID:             string(ts.ID),
		EmployeeID:     string(ts.EmployeeID),
		CompanyID:      rec.CompanyID,
		WeekStart:      ts.WeekStart.Format(dateLayout),
		Status:         string(ts.Status),
		HourlyRate:     rec.HourlyRate,
		Entries:        make([]TimeEntryDTO, len(ts.Entries)),
		Overtime:       toOvertimeDTO(rec.Overtime),
		Compliance:     toComplianceDTO(rec.Compliance),
		Allowances:     toAppliedAllowanceDTOs(ts.Allowances),
		AllowanceTotal: rec.AllowanceTotal,
		GrossPay:       rec.GrossPay,
		SubmittedAt:    ts.SubmittedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
	for i, e := range ts.Entries {
		dto.Entries[i] = toTimeEntryDTO(e)
	}
	return dto
}

func toDecisionDTO(d *roster.Decision, now time.Time) TimesheetDTO {
	dto := toTimesheetDTO(d.Record)
	chain := toChainDTO(d.Chain, now)
	dto.Chain = &chain
	return dto
}

// SubmissionResponse is returned by POST /api/timesheets.
type SubmissionResponse struct {
	Timesheet  TimesheetDTO  `json:"timesheet"`
	Evaluation EvaluationDTO `json:"evaluation"`
}

// =============================================================================
// ALLOWANCE TYPES
// =============================================================================

// SaveAllowanceRuleRequest is the request to create or replace a rule.
type SaveAllowanceRuleRequest struct {
	Config factory.AllowanceRuleJSON `json:"config"`
	Actor  string                    `json:"actor,omitempty"`
}

// AllowanceRuleResponse wraps a stored rule with the warnings of the rule set.
type AllowanceRuleResponse struct {
	Config   factory.AllowanceRuleJSON `json:"config"`
	Warnings []string                  `json:"warnings"`
}

// ResolveAllowancesRequest is a shift context for what-if resolution.
type ResolveAllowancesRequest struct {
	IsWeekend       bool            `json:"is_weekend"`
	IsPublicHoliday bool            `json:"is_public_holiday"`
	WasCalledBack   bool            `json:"was_called_back"`
	CallbackHours   decimal.Decimal `json:"callback_hours"`
}

func (r ResolveAllowancesRequest) toShiftContext() award.ShiftContext {
	return award.ShiftContext{
		IsWeekend:       r.IsWeekend,
		IsPublicHoliday: r.IsPublicHoliday,
		WasCalledBack:   r.WasCalledBack,
		CallbackHours:   r.CallbackHours,
	}
}

// =============================================================================
// HOLIDAY & AUDIT TYPES
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id,omitempty"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

func toHolidayDTO(h award.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		CompanyID: h.CompanyID,
		Date:      h.Date.Format(dateLayout),
		Name:      h.Name,
		Recurring: h.Recurring,
	}
}

type AuditEntryDTO struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	ActorID     string         `json:"actor_id"`
	Action      string         `json:"action"`
	TimesheetID string         `json:"timesheet_id,omitempty"`
	EmployeeID  string         `json:"employee_id,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

func toAuditEntryDTO(e roster.AuditEntry) AuditEntryDTO {
	return AuditEntryDTO{
		ID:          e.ID,
		Timestamp:   e.Timestamp,
		ActorID:     e.ActorID,
		Action:      string(e.Action),
		TimesheetID: string(e.TimesheetID),
		EmployeeID:  string(e.EmployeeID),
		Payload:     e.Payload,
	}
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
