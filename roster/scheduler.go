/*
scheduler.go - Approval SLA monitor

PURPOSE:
  Periodically checks for pending approval steps whose SLA deadline has
  passed and notifies the tier expected to act. Steps are never escalated
  automatically; escalation stays an explicit approver action.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each overdue step is reported once per deadline; an escalation sets a
    new deadline and so may be reported again later
  - Steps that stop being overdue (approved, rejected, escalated) are
    forgotten on the next pass

CONFIGURATION:
  - CheckInterval: How often to check (default: 15 minutes)
  - Enabled: Whether the monitor is active (default: true)

USAGE:
  monitor := roster.NewSLAMonitor(svc)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - service.go: OverdueApprovals (the same report, on demand)
  - award/approval.go: SLAPolicy
*/
package roster

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SLAMonitor reports overdue approval steps in the background.
type SLAMonitor struct {
	Service       *Service
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	seenMu sync.Mutex
	seen   map[string]time.Time // timesheet|step -> reported deadline
}

// NewSLAMonitor creates a monitor over the service.
func NewSLAMonitor(svc *Service) *SLAMonitor {
	return &SLAMonitor{
		Service:       svc,
		CheckInterval: 15 * time.Minute,
		Enabled:       true,
		seen:          make(map[string]time.Time),
	}
}

// Start begins the monitor. Calling Start on a running monitor does nothing.
func (m *SLAMonitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.Enabled || m.CheckInterval <= 0 {
		m.Service.Logger.Info("sla monitor disabled")
		return
	}
	if m.ticker != nil {
		return
	}

	m.ticker = time.NewTicker(m.CheckInterval)
	m.stop = make(chan struct{})
	m.wg.Add(1)

	go m.run(m.ticker, m.stop)

	m.Service.Logger.Info("sla monitor started", "check_interval", m.CheckInterval.String())
}

// Stop stops the monitor and waits for an in-flight check to finish.
func (m *SLAMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ticker != nil {
		m.ticker.Stop()
		close(m.stop)
		m.wg.Wait()
		m.ticker = nil
		m.Service.Logger.Info("sla monitor stopped")
	}
}

func (m *SLAMonitor) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer m.wg.Done()

	// Run immediately on start
	m.checkAndNotify()

	for {
		select {
		case <-ticker.C:
			m.checkAndNotify()
		case <-stop:
			return
		}
	}
}

func (m *SLAMonitor) checkAndNotify() {
	ctx := context.Background()
	reported, err := m.Check(ctx)
	if err != nil {
		m.Service.Logger.ErrorContext(ctx, "sla check failed", "error", err)
		return
	}
	if len(reported) > 0 {
		m.Service.Logger.InfoContext(ctx, "sla check completed", "reported", len(reported))
	}
}

// Check runs one pass and returns the overdue steps reported for the first
// time. Each of them has been sent to the notifier.
func (m *SLAMonitor) Check(ctx context.Context) ([]OverdueApproval, error) {
	overdue, err := m.Service.OverdueApprovals(ctx)
	if err != nil {
		return nil, err
	}

	m.seenMu.Lock()
	current := make(map[string]time.Time, len(overdue))
	var fresh []OverdueApproval
	for _, o := range overdue {
		key := fmt.Sprintf("%s|%d", o.TimesheetID, o.Step)
		current[key] = o.Deadline
		if prev, ok := m.seen[key]; ok && prev.Equal(o.Deadline) {
			continue
		}
		fresh = append(fresh, o)
	}
	m.seen = current
	m.seenMu.Unlock()

	for _, o := range fresh {
		m.Service.Logger.WarnContext(ctx, "approval overdue",
			"timesheet_id", o.TimesheetID,
			"employee_id", o.EmployeeID,
			"step", o.Step,
			"tier", o.Tier,
			"overdue", o.Overdue.String(),
		)
		m.Service.notify(ctx, Notification{
			Event:       EventApprovalOverdue,
			TimesheetID: o.TimesheetID,
			EmployeeID:  o.EmployeeID,
			Tier:        o.Tier,
			Actor:       "system",
		})
	}
	return fresh, nil
}
