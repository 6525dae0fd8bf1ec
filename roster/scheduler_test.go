package roster_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/roster"
)

func overdueEvents(n *recordingNotifier) []roster.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []roster.Notification
	for _, s := range n.sent {
		if s.Event == roster.EventApprovalOverdue {
			out = append(out, s)
		}
	}
	return out
}

func TestSLAMonitor_ReportsEachDeadlineOnce(t *testing.T) {
	f := newFixture(t)
	f.submit(t, lateWeek())
	m := roster.NewSLAMonitor(f.svc)
	ctx := context.Background()

	// GIVEN: Within the manager SLA
	reported, err := m.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, reported)

	// WHEN: The deadline passes
	f.now = f.now.Add(30 * time.Hour)
	reported, err = m.Check(ctx)

	// THEN: Reported and notified once
	require.NoError(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, award.TierManager, reported[0].Tier)

	reported, err = m.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, reported, "already reported")

	events := overdueEvents(f.notifier)
	require.Len(t, events, 1)
	assert.Equal(t, award.TierManager, events[0].Tier)
	assert.Equal(t, award.TimesheetID("ts-1"), events[0].TimesheetID)
}

func TestSLAMonitor_EscalationStartsNewDeadline(t *testing.T) {
	f := newFixture(t)
	f.submit(t, lateWeek())
	m := roster.NewSLAMonitor(f.svc)
	ctx := context.Background()

	f.now = f.now.Add(30 * time.Hour)
	_, err := m.Check(ctx)
	require.NoError(t, err)

	// WHEN: The manager escalates the overdue step
	_, err = f.svc.Escalate(ctx, "ts-1", 0, "morgan", "")
	require.NoError(t, err)

	// THEN: Nothing overdue until the senior manager SLA lapses
	reported, err := m.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, reported)

	f.now = f.now.Add(49 * time.Hour)
	reported, err = m.Check(ctx)
	require.NoError(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, award.TierSeniorManager, reported[0].Tier)
	assert.Len(t, overdueEvents(f.notifier), 2)
}

func TestSLAMonitor_StartChecksImmediately(t *testing.T) {
	f := newFixture(t)
	f.submit(t, lateWeek())
	f.now = f.now.Add(30 * time.Hour)

	m := roster.NewSLAMonitor(f.svc)
	m.CheckInterval = time.Hour

	// WHEN: Started and stopped
	m.Start()
	m.Start()
	m.Stop()

	// THEN: The first pass ran before Stop returned
	assert.Len(t, overdueEvents(f.notifier), 1)

	m.Stop()
}

func TestSLAMonitor_Disabled(t *testing.T) {
	f := newFixture(t)
	f.submit(t, lateWeek())
	f.now = f.now.Add(30 * time.Hour)

	m := roster.NewSLAMonitor(f.svc)
	m.Enabled = false
	m.Start()
	m.Stop()

	assert.Empty(t, overdueEvents(f.notifier))
}
