/*
store.go - Persistence interfaces for the roster service

PURPOSE:
  The award engine is stateless. Submitted timesheets, their approval chains,
  the configured allowance rules, public holidays and the audit trail live
  behind these interfaces. Implementations: SQLite for production, memory
  for tests and development.

KEY INTERFACES:
  TimesheetStore:     Submitted timesheets with the evaluation they were routed on
  ChainStore:         Approval chain per timesheet
  AllowanceRuleStore: Configured on-call allowance rules
  HolidayStore:       Public holiday calendar (award.HolidayCalendar + admin)
  AuditLog:           Who did what when. Append-only.
  TxStore:            All of the above with atomic multi-write support

ATOMIC WRITES:
  A submission writes the timesheet, its chain and an audit entry. An
  approval action reads the chain, applies the transition and writes chain,
  timesheet status and audit entry. Both run inside WithTx so a failure
  leaves no partial state.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - roster/store/memory.go: In-memory for testing

SEE ALSO:
  - service.go: Uses these interfaces
*/
package roster

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
)

// =============================================================================
// RECORDS
// =============================================================================

// Record is a submitted timesheet plus the evaluation it was routed on.
// Timesheet.Status always mirrors the chain outcome.
type Record struct {
	Timesheet      award.Timesheet
	CompanyID      string
	HourlyRate     *decimal.Decimal
	Overtime       award.OvertimeCalculation
	Compliance     award.ComplianceValidation
	AllowanceTotal decimal.Decimal
	GrossPay       decimal.Decimal
	UpdatedAt      time.Time
}

type TimesheetFilter struct {
	EmployeeID *award.EmployeeID
	Status     *award.TimesheetStatus
}

// Matches reports whether a record passes the filter.
func (f TimesheetFilter) Matches(r Record) bool {
	if f.EmployeeID != nil && r.Timesheet.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.Status != nil && r.Timesheet.Status != *f.Status {
		return false
	}
	return true
}

// =============================================================================
// STORES
// =============================================================================

type TimesheetStore interface {
	// SaveTimesheet inserts or replaces a record.
	SaveTimesheet(ctx context.Context, rec Record) error

	// GetTimesheet returns ErrTimesheetNotFound when absent.
	GetTimesheet(ctx context.Context, id award.TimesheetID) (*Record, error)

	// ListTimesheets returns matching records, newest week first.
	ListTimesheets(ctx context.Context, filter TimesheetFilter) ([]Record, error)
}

type ChainStore interface {
	SaveChain(ctx context.Context, id award.TimesheetID, chain award.ApprovalChain) error

	// GetChain returns ErrChainNotFound when absent.
	GetChain(ctx context.Context, id award.TimesheetID) (*award.ApprovalChain, error)
}

type AllowanceRuleStore interface {
	SaveAllowanceRule(ctx context.Context, rule award.AllowanceRule) error

	// ListAllowanceRules returns every rule, active or not, ordered by ID.
	ListAllowanceRules(ctx context.Context) ([]award.AllowanceRule, error)

	// DeleteAllowanceRule returns ErrAllowanceRuleNotFound when absent.
	DeleteAllowanceRule(ctx context.Context, id award.AllowanceID) error
}

type HolidayStore interface {
	award.HolidayCalendar

	SaveHoliday(ctx context.Context, h award.Holiday) error

	// ListHolidays returns company-specific and global holidays by date.
	ListHolidays(ctx context.Context, companyID string) ([]award.Holiday, error)
}

// =============================================================================
// AUDIT LOG - Separate from state, tracks who did what when
// =============================================================================

type AuditAction string

const (
	AuditTimesheetSubmitted   AuditAction = "timesheet_submitted"
	AuditTimesheetResubmitted AuditAction = "timesheet_resubmitted"
	AuditStepApproved         AuditAction = "step_approved"
	AuditStepRejected         AuditAction = "step_rejected"
	AuditStepEscalated        AuditAction = "step_escalated"
	AuditAllowanceRuleSaved   AuditAction = "allowance_rule_saved"
	AuditAllowanceRuleDeleted AuditAction = "allowance_rule_deleted"
)

// AuditEntry records who did what when.
type AuditEntry struct {
	ID          string
	Timestamp   time.Time
	ActorID     string
	Action      AuditAction
	TimesheetID award.TimesheetID
	EmployeeID  award.EmployeeID
	Payload     map[string]any
}

type AuditFilter struct {
	TimesheetID *award.TimesheetID
	ActorID     *string
	Actions     []AuditAction
	From        *time.Time
	To          *time.Time
	Limit       int
}

// Matches reports whether an entry passes the filter. Limit is not applied.
func (f AuditFilter) Matches(e AuditEntry) bool {
	if f.TimesheetID != nil && e.TimesheetID != *f.TimesheetID {
		return false
	}
	if f.ActorID != nil && e.ActorID != *f.ActorID {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if a == e.Action {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// AuditLog stores audit entries. Append-only.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error

	// QueryAudit returns matching entries, oldest first.
	QueryAudit(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

// =============================================================================
// COMBINED & TRANSACTIONAL STORE
// =============================================================================

type Store interface {
	TimesheetStore
	ChainStore
	AllowanceRuleStore
	HolidayStore
	AuditLog
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
