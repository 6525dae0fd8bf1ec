// Package store provides in-memory roster.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/roster"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	timesheets map[award.TimesheetID]roster.Record
	chains     map[award.TimesheetID]award.ApprovalChain
	rules      map[award.AllowanceID]award.AllowanceRule
	holidays   []award.Holiday
	audit      []roster.AuditEntry
}

func NewMemory() *Memory {
	return &Memory{
		timesheets: make(map[award.TimesheetID]roster.Record),
		chains:     make(map[award.TimesheetID]award.ApprovalChain),
		rules:      make(map[award.AllowanceID]award.AllowanceRule),
	}
}

// ===== TIMESHEETS =====

func (m *Memory) SaveTimesheet(_ context.Context, rec roster.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timesheets[rec.Timesheet.ID] = rec
	return nil
}

func (m *Memory) GetTimesheet(_ context.Context, id award.TimesheetID) (*roster.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getTimesheetLocked(id)
}

func (m *Memory) getTimesheetLocked(id award.TimesheetID) (*roster.Record, error) {
	rec, ok := m.timesheets[id]
	if !ok {
		return nil, roster.ErrTimesheetNotFound
	}
	return &rec, nil
}

func (m *Memory) ListTimesheets(_ context.Context, filter roster.TimesheetFilter) ([]roster.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listTimesheetsLocked(filter), nil
}

func (m *Memory) listTimesheetsLocked(filter roster.TimesheetFilter) []roster.Record {
	var out []roster.Record
	for _, rec := range m.timesheets {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Timesheet, out[j].Timesheet
		if !a.WeekStart.Equal(b.WeekStart) {
			return a.WeekStart.After(b.WeekStart)
		}
		return a.ID < b.ID
	})
	return out
}

// ===== CHAINS =====

func (m *Memory) SaveChain(_ context.Context, id award.TimesheetID, chain award.ApprovalChain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains[id] = chain
	return nil
}

func (m *Memory) GetChain(_ context.Context, id award.TimesheetID) (*award.ApprovalChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getChainLocked(id)
}

func (m *Memory) getChainLocked(id award.TimesheetID) (*award.ApprovalChain, error) {
	chain, ok := m.chains[id]
	if !ok {
		return nil, roster.ErrChainNotFound
	}
	return &chain, nil
}

// ===== ALLOWANCE RULES =====

func (m *Memory) SaveAllowanceRule(_ context.Context, rule award.AllowanceRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = rule
	return nil
}

func (m *Memory) ListAllowanceRules(_ context.Context) ([]award.AllowanceRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRulesLocked(), nil
}

func (m *Memory) listRulesLocked() []award.AllowanceRule {
	out := make([]award.AllowanceRule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) DeleteAllowanceRule(_ context.Context, id award.AllowanceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteRuleLocked(id)
}

func (m *Memory) deleteRuleLocked(id award.AllowanceID) error {
	if _, ok := m.rules[id]; !ok {
		return roster.ErrAllowanceRuleNotFound
	}
	delete(m.rules, id)
	return nil
}

// ===== HOLIDAYS =====

func (m *Memory) SaveHoliday(_ context.Context, h award.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveHolidayLocked(h)
	return nil
}

func (m *Memory) saveHolidayLocked(h award.Holiday) {
	for i := range m.holidays {
		if m.holidays[i].ID == h.ID {
			m.holidays[i] = h
			return
		}
	}
	m.holidays = append(m.holidays, h)
}

func (m *Memory) ListHolidays(_ context.Context, companyID string) ([]award.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listHolidaysLocked(companyID), nil
}

func (m *Memory) listHolidaysLocked(companyID string) []award.Holiday {
	var out []award.Holiday
	for _, h := range m.holidays {
		if h.AppliesTo(companyID) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (m *Memory) IsHoliday(companyID string, date time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isHolidayLocked(companyID, date)
}

func (m *Memory) isHolidayLocked(companyID string, date time.Time) bool {
	for _, h := range m.holidays {
		if h.AppliesTo(companyID) && h.FallsOn(date) {
			return true
		}
	}
	return false
}

func (m *Memory) GetHolidays(companyID string, year int) []award.Holiday {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getHolidaysLocked(companyID, year)
}

func (m *Memory) getHolidaysLocked(companyID string, year int) []award.Holiday {
	var out []award.Holiday
	for _, h := range m.listHolidaysLocked(companyID) {
		if occurrence, ok := h.InYear(year); ok {
			out = append(out, occurrence)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// ===== AUDIT =====

// AppendAudit adds an entry. Append-only.
func (m *Memory) AppendAudit(_ context.Context, entry roster.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

func (m *Memory) QueryAudit(_ context.Context, filter roster.AuditFilter) ([]roster.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queryAuditLocked(filter), nil
}

func (m *Memory) queryAuditLocked(filter roster.AuditFilter) []roster.AuditEntry {
	var out []roster.AuditEntry
	for _, e := range m.audit {
		if !filter.Matches(e) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
// fn must only use the store it is given; the outer store is locked.
func (m *Memory) WithTx(_ context.Context, fn func(roster.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txMemoryView{parent: m}); err != nil {
		m.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	timesheets map[award.TimesheetID]roster.Record
	chains     map[award.TimesheetID]award.ApprovalChain
	rules      map[award.AllowanceID]award.AllowanceRule
	holidays   []award.Holiday
	audit      []roster.AuditEntry
}

func (m *Memory) snapshot() memorySnapshot {
	s := memorySnapshot{
		timesheets: make(map[award.TimesheetID]roster.Record, len(m.timesheets)),
		chains:     make(map[award.TimesheetID]award.ApprovalChain, len(m.chains)),
		rules:      make(map[award.AllowanceID]award.AllowanceRule, len(m.rules)),
		holidays:   append([]award.Holiday{}, m.holidays...),
		audit:      append([]roster.AuditEntry{}, m.audit...),
	}
	for k, v := range m.timesheets {
		s.timesheets[k] = v
	}
	for k, v := range m.chains {
		s.chains[k] = v
	}
	for k, v := range m.rules {
		s.rules[k] = v
	}
	return s
}

func (m *Memory) restore(s memorySnapshot) {
	m.timesheets = s.timesheets
	m.chains = s.chains
	m.rules = s.rules
	m.holidays = s.holidays
	m.audit = s.audit
}

// txMemoryView is the store handed to WithTx callbacks. The parent's lock is
// already held, so every method goes straight to the locked helpers.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) SaveTimesheet(_ context.Context, rec roster.Record) error {
	tv.parent.timesheets[rec.Timesheet.ID] = rec
	return nil
}

func (tv *txMemoryView) GetTimesheet(_ context.Context, id award.TimesheetID) (*roster.Record, error) {
	return tv.parent.getTimesheetLocked(id)
}

func (tv *txMemoryView) ListTimesheets(_ context.Context, filter roster.TimesheetFilter) ([]roster.Record, error) {
	return tv.parent.listTimesheetsLocked(filter), nil
}

func (tv *txMemoryView) SaveChain(_ context.Context, id award.TimesheetID, chain award.ApprovalChain) error {
	tv.parent.chains[id] = chain
	return nil
}

func (tv *txMemoryView) GetChain(_ context.Context, id award.TimesheetID) (*award.ApprovalChain, error) {
	return tv.parent.getChainLocked(id)
}

func (tv *txMemoryView) SaveAllowanceRule(_ context.Context, rule award.AllowanceRule) error {
	tv.parent.rules[rule.ID] = rule
	return nil
}

func (tv *txMemoryView) ListAllowanceRules(_ context.Context) ([]award.AllowanceRule, error) {
	return tv.parent.listRulesLocked(), nil
}

func (tv *txMemoryView) DeleteAllowanceRule(_ context.Context, id award.AllowanceID) error {
	return tv.parent.deleteRuleLocked(id)
}

func (tv *txMemoryView) SaveHoliday(_ context.Context, h award.Holiday) error {
	tv.parent.saveHolidayLocked(h)
	return nil
}

func (tv *txMemoryView) ListHolidays(_ context.Context, companyID string) ([]award.Holiday, error) {
	return tv.parent.listHolidaysLocked(companyID), nil
}

func (tv *txMemoryView) IsHoliday(companyID string, date time.Time) bool {
	return tv.parent.isHolidayLocked(companyID, date)
}

func (tv *txMemoryView) GetHolidays(companyID string, year int) []award.Holiday {
	return tv.parent.getHolidaysLocked(companyID, year)
}

func (tv *txMemoryView) AppendAudit(_ context.Context, entry roster.AuditEntry) error {
	tv.parent.audit = append(tv.parent.audit, entry)
	return nil
}

func (tv *txMemoryView) QueryAudit(_ context.Context, filter roster.AuditFilter) ([]roster.AuditEntry, error) {
	return tv.parent.queryAuditLocked(filter), nil
}

var (
	_ roster.TxStore = (*Memory)(nil)
	_ roster.Store   = (*txMemoryView)(nil)
)
