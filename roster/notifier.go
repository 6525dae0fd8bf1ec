package roster

import (
	"context"
	"log/slog"

	"github.com/warp/award-engine/award"
)

// =============================================================================
// NOTIFIER - Dispatch hook invoked after state changes
// =============================================================================

type NotificationEvent string

const (
	EventApprovalRequired  NotificationEvent = "approval_required"
	EventTimesheetApproved NotificationEvent = "timesheet_approved"
	EventTimesheetRejected NotificationEvent = "timesheet_rejected"
	EventStepEscalated     NotificationEvent = "step_escalated"
	EventApprovalOverdue   NotificationEvent = "approval_overdue"
)

// Notification tells a dispatcher who needs to know what. Tier is the tier
// now expected to act, when there is one.
type Notification struct {
	Event       NotificationEvent
	TimesheetID award.TimesheetID
	EmployeeID  award.EmployeeID
	Tier        award.Tier
	Actor       string
	Notes       string
}

// Notifier delivers notifications. Delivery failures are logged by the
// service and never undo the committed transition.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification",
		"event", n.Event,
		"timesheet_id", n.TimesheetID,
		"employee_id", n.EmployeeID,
		"tier", n.Tier,
		"actor", n.Actor,
	)
	return nil
}

// notificationFor maps a chain to the notification its new state calls for.
func notificationFor(rec Record, chain award.ApprovalChain) Notification {
	n := Notification{TimesheetID: rec.Timesheet.ID, EmployeeID: rec.Timesheet.EmployeeID}
	switch chain.Outcome() {
	case award.TimesheetApproved:
		n.Event = EventTimesheetApproved
	case award.TimesheetRejected:
		n.Event = EventTimesheetRejected
	default:
		n.Event = EventApprovalRequired
		if step, ok := chain.CurrentStep(); ok {
			n.Tier = step.Tier
		}
	}
	return n
}
