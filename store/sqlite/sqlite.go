/*
Package sqlite provides a SQLite-backed implementation of roster.TxStore.

PURPOSE:
  Persists submitted timesheets, their approval chains, allowance rules,
  public holidays and the audit trail. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  roster.TimesheetStore:     Timesheet records with their evaluation
  roster.ChainStore:         Approval chain per timesheet
  roster.AllowanceRuleStore: Configured allowance rules
  roster.HolidayStore:       Public holiday calendar (award.HolidayCalendar)
  roster.AuditLog:           Append-only audit trail
  roster.TxStore:            All of the above inside one SQL transaction

KEY TABLES:
  timesheets:      One row per employee-week; entries and evaluation as JSON
  approval_chains: One row per timesheet; steps as JSON
  allowance_rules: Rule columns used for listing plus the full rule as JSON
  holidays:        Company-specific ('' = global) and recurring holidays
  audit_log:       Append-only. No UPDATE or DELETE statements touch it.

APPEND-ONLY ENFORCEMENT:
  audit_log is only ever INSERTed into. Timesheets and chains are replaced
  wholesale on save; their history lives in the audit log.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/awards.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := roster.NewService(store, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - roster/store.go: Interface definitions
  - roster/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/roster"
)

// timeLayout sorts lexicographically for UTC times.
const (
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
	dateLayout = "2006-01-02"
)

// Store implements roster.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS timesheets (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		company_id TEXT NOT NULL DEFAULT '',
		week_start TEXT NOT NULL,
		status TEXT NOT NULL,
		classification TEXT,
		hourly_rate TEXT,
		allowance_total TEXT NOT NULL,
		gross_pay TEXT NOT NULL,
		entries_json TEXT NOT NULL,
		allowances_json TEXT,
		baseline_json TEXT,
		overtime_json TEXT NOT NULL,
		compliance_json TEXT NOT NULL,
		submitted_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_timesheets_employee
		ON timesheets(employee_id, week_start);
	CREATE INDEX IF NOT EXISTS idx_timesheets_status
		ON timesheets(status);

	CREATE TABLE IF NOT EXISTS approval_chains (
		timesheet_id TEXT PRIMARY KEY REFERENCES timesheets(id),
		auto_approved BOOLEAN NOT NULL,
		current_step_index INTEGER NOT NULL,
		is_complete BOOLEAN NOT NULL,
		steps_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS allowance_rules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		trigger_type TEXT NOT NULL,
		priority INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL,
		config_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_company_date
		ON holidays(company_id, date);

	-- Append-only
	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT,
		action TEXT NOT NULL,
		timesheet_id TEXT,
		employee_id TEXT,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_timesheet
		ON audit_log(timesheet_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_timestamp
		ON audit_log(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TIMESHEETS
// =============================================================================

func (s *Store) SaveTimesheet(ctx context.Context, rec roster.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTimesheet(ctx, s.db, rec)
}

func (s *Store) GetTimesheet(ctx context.Context, id award.TimesheetID) (*roster.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTimesheet(ctx, s.db, id)
}

// ListTimesheets returns matching records, newest week first.
func (s *Store) ListTimesheets(ctx context.Context, filter roster.TimesheetFilter) ([]roster.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listTimesheets(ctx, s.db, filter)
}

const timesheetColumns = `
	id, employee_id, company_id, week_start, status, classification, hourly_rate,
	allowance_total, gross_pay, entries_json, allowances_json, baseline_json,
	overtime_json, compliance_json, submitted_at, updated_at`

func saveTimesheet(ctx context.Context, q querier, rec roster.Record) error {
	ts := rec.Timesheet

	entriesJSON, err := json.Marshal(ts.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}
	allowancesJSON, err := json.Marshal(ts.Allowances)
	if err != nil {
		return fmt.Errorf("failed to encode allowances: %w", err)
	}
	overtimeJSON, err := json.Marshal(rec.Overtime)
	if err != nil {
		return fmt.Errorf("failed to encode overtime: %w", err)
	}
	complianceJSON, err := json.Marshal(rec.Compliance)
	if err != nil {
		return fmt.Errorf("failed to encode compliance: %w", err)
	}
	var baselineJSON sql.NullString
	if ts.Baseline != nil {
		b, err := json.Marshal(ts.Baseline)
		if err != nil {
			return fmt.Errorf("failed to encode baseline: %w", err)
		}
		baselineJSON = sql.NullString{String: string(b), Valid: true}
	}
	var hourlyRate sql.NullString
	if rec.HourlyRate != nil {
		hourlyRate = sql.NullString{String: rec.HourlyRate.String(), Valid: true}
	}

	query := `
		INSERT INTO timesheets (` + timesheetColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			company_id = excluded.company_id,
			week_start = excluded.week_start,
			status = excluded.status,
			classification = excluded.classification,
			hourly_rate = excluded.hourly_rate,
			allowance_total = excluded.allowance_total,
			gross_pay = excluded.gross_pay,
			entries_json = excluded.entries_json,
			allowances_json = excluded.allowances_json,
			baseline_json = excluded.baseline_json,
			overtime_json = excluded.overtime_json,
			compliance_json = excluded.compliance_json,
			submitted_at = excluded.submitted_at,
			updated_at = excluded.updated_at
	`

	_, err = q.ExecContext(ctx, query,
		ts.ID,
		ts.EmployeeID,
		rec.CompanyID,
		award.CalendarDay(ts.WeekStart).Format(dateLayout),
		ts.Status,
		nullString(ts.Classification),
		hourlyRate,
		rec.AllowanceTotal.String(),
		rec.GrossPay.String(),
		string(entriesJSON),
		string(allowancesJSON),
		baselineJSON,
		string(overtimeJSON),
		string(complianceJSON),
		formatTime(ts.SubmittedAt),
		formatTime(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save timesheet: %w", err)
	}
	return nil
}

func getTimesheet(ctx context.Context, q querier, id award.TimesheetID) (*roster.Record, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+timesheetColumns+` FROM timesheets WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheet: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, roster.ErrTimesheetNotFound
	}
	rec, err := scanTimesheet(rows)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func listTimesheets(ctx context.Context, q querier, filter roster.TimesheetFilter) ([]roster.Record, error) {
	var (
		where []string
		args  []any
	)
	if filter.EmployeeID != nil {
		where = append(where, "employee_id = ?")
		args = append(args, *filter.EmployeeID)
	}
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, *filter.Status)
	}

	query := `SELECT ` + timesheetColumns + ` FROM timesheets`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY week_start DESC, id ASC"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timesheets: %w", err)
	}
	defer rows.Close()

	var records []roster.Record
	for rows.Next() {
		rec, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanTimesheet(rows *sql.Rows) (roster.Record, error) {
	var (
		rec            roster.Record
		weekStart      string
		classification sql.NullString
		hourlyRate     sql.NullString
		allowanceTotal string
		grossPay       string
		entriesJSON    string
		allowancesJSON sql.NullString
		baselineJSON   sql.NullString
		overtimeJSON   string
		complianceJSON string
		submittedAt    string
		updatedAt      string
	)

	ts := &rec.Timesheet
	err := rows.Scan(
		&ts.ID, &ts.EmployeeID, &rec.CompanyID, &weekStart, &ts.Status,
		&classification, &hourlyRate, &allowanceTotal, &grossPay,
		&entriesJSON, &allowancesJSON, &baselineJSON, &overtimeJSON, &complianceJSON,
		&submittedAt, &updatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan timesheet: %w", err)
	}

	if ts.WeekStart, err = time.Parse(dateLayout, weekStart); err != nil {
		return rec, fmt.Errorf("failed to decode week start: %w", err)
	}
	ts.Classification = classification.String
	ts.SubmittedAt = parseTime(submittedAt)
	rec.UpdatedAt = parseTime(updatedAt)
	if rec.AllowanceTotal, err = decimal.NewFromString(allowanceTotal); err != nil {
		return rec, fmt.Errorf("failed to decode allowance total: %w", err)
	}
	if rec.GrossPay, err = decimal.NewFromString(grossPay); err != nil {
		return rec, fmt.Errorf("failed to decode gross pay: %w", err)
	}
	if hourlyRate.Valid {
		rate, err := decimal.NewFromString(hourlyRate.String)
		if err != nil {
			return rec, fmt.Errorf("failed to decode hourly rate: %w", err)
		}
		rec.HourlyRate = &rate
	}

	if err := json.Unmarshal([]byte(entriesJSON), &ts.Entries); err != nil {
		return rec, fmt.Errorf("failed to decode entries: %w", err)
	}
	if allowancesJSON.Valid && allowancesJSON.String != "" {
		if err := json.Unmarshal([]byte(allowancesJSON.String), &ts.Allowances); err != nil {
			return rec, fmt.Errorf("failed to decode allowances: %w", err)
		}
	}
	if baselineJSON.Valid {
		ts.Baseline = &award.StartTimeBaseline{}
		if err := json.Unmarshal([]byte(baselineJSON.String), ts.Baseline); err != nil {
			return rec, fmt.Errorf("failed to decode baseline: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(overtimeJSON), &rec.Overtime); err != nil {
		return rec, fmt.Errorf("failed to decode overtime: %w", err)
	}
	if err := json.Unmarshal([]byte(complianceJSON), &rec.Compliance); err != nil {
		return rec, fmt.Errorf("failed to decode compliance: %w", err)
	}

	return rec, nil
}

// =============================================================================
// APPROVAL CHAINS
// =============================================================================

func (s *Store) SaveChain(ctx context.Context, id award.TimesheetID, chain award.ApprovalChain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveChain(ctx, s.db, id, chain)
}

func (s *Store) GetChain(ctx context.Context, id award.TimesheetID) (*award.ApprovalChain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getChain(ctx, s.db, id)
}

func saveChain(ctx context.Context, q querier, id award.TimesheetID, chain award.ApprovalChain) error {
	stepsJSON, err := json.Marshal(chain.Steps)
	if err != nil {
		return fmt.Errorf("failed to encode steps: %w", err)
	}

	query := `
		INSERT INTO approval_chains
		(timesheet_id, auto_approved, current_step_index, is_complete, steps_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(timesheet_id) DO UPDATE SET
			auto_approved = excluded.auto_approved,
			current_step_index = excluded.current_step_index,
			is_complete = excluded.is_complete,
			steps_json = excluded.steps_json,
			created_at = excluded.created_at
	`

	_, err = q.ExecContext(ctx, query,
		id,
		chain.AutoApproved,
		chain.CurrentStepIndex,
		chain.IsComplete,
		string(stepsJSON),
		formatTime(chain.CreatedAt),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return roster.ErrTimesheetNotFound
		}
		return fmt.Errorf("failed to save approval chain: %w", err)
	}
	return nil
}

func getChain(ctx context.Context, q querier, id award.TimesheetID) (*award.ApprovalChain, error) {
	var (
		chain     award.ApprovalChain
		stepsJSON string
		createdAt string
	)

	err := q.QueryRowContext(ctx, `
		SELECT auto_approved, current_step_index, is_complete, steps_json, created_at
		FROM approval_chains WHERE timesheet_id = ?
	`, id).Scan(&chain.AutoApproved, &chain.CurrentStepIndex, &chain.IsComplete, &stepsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, roster.ErrChainNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query approval chain: %w", err)
	}

	if err := json.Unmarshal([]byte(stepsJSON), &chain.Steps); err != nil {
		return nil, fmt.Errorf("failed to decode steps: %w", err)
	}
	if chain.Steps == nil {
		chain.Steps = []award.ApprovalStep{}
	}
	chain.CreatedAt = parseTime(createdAt)
	return &chain, nil
}

// =============================================================================
// ALLOWANCE RULES
// =============================================================================

func (s *Store) SaveAllowanceRule(ctx context.Context, rule award.AllowanceRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAllowanceRule(ctx, s.db, rule)
}

// ListAllowanceRules returns every rule, active or not, ordered by ID.
func (s *Store) ListAllowanceRules(ctx context.Context) ([]award.AllowanceRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listAllowanceRules(ctx, s.db)
}

func (s *Store) DeleteAllowanceRule(ctx context.Context, id award.AllowanceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteAllowanceRule(ctx, s.db, id)
}

func saveAllowanceRule(ctx context.Context, q querier, rule award.AllowanceRule) error {
	configJSON, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to encode allowance rule: %w", err)
	}

	query := `
		INSERT INTO allowance_rules (id, name, trigger_type, priority, is_active, config_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			trigger_type = excluded.trigger_type,
			priority = excluded.priority,
			is_active = excluded.is_active,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`

	_, err = q.ExecContext(ctx, query,
		rule.ID,
		rule.Name,
		rule.TriggerType,
		rule.Priority,
		rule.IsActive,
		string(configJSON),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save allowance rule: %w", err)
	}
	return nil
}

func listAllowanceRules(ctx context.Context, q querier) ([]award.AllowanceRule, error) {
	rows, err := q.QueryContext(ctx, `SELECT config_json FROM allowance_rules ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query allowance rules: %w", err)
	}
	defer rows.Close()

	rules := []award.AllowanceRule{}
	for rows.Next() {
		var configJSON string
		if err := rows.Scan(&configJSON); err != nil {
			return nil, fmt.Errorf("failed to scan allowance rule: %w", err)
		}
		var rule award.AllowanceRule
		if err := json.Unmarshal([]byte(configJSON), &rule); err != nil {
			return nil, fmt.Errorf("failed to decode allowance rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func deleteAllowanceRule(ctx context.Context, q querier, id award.AllowanceID) error {
	res, err := q.ExecContext(ctx, "DELETE FROM allowance_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete allowance rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return roster.ErrAllowanceRuleNotFound
	}
	return nil
}

// =============================================================================
// HOLIDAY CALENDAR IMPLEMENTATION
// =============================================================================

// SaveHoliday saves a holiday, replacing any holiday with the same ID.
func (s *Store) SaveHoliday(ctx context.Context, h award.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveHoliday(ctx, s.db, h)
}

// ListHolidays returns company-specific and global holidays by date.
func (s *Store) ListHolidays(ctx context.Context, companyID string) ([]award.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listHolidays(ctx, s.db, companyID)
}

// GetHolidays returns all holidays for a company in a given year.
// Includes both company-specific and global holidays.
func (s *Store) GetHolidays(companyID string, year int) []award.Holiday {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getHolidays(context.Background(), s.db, companyID, year)
}

// IsHoliday checks if a date is a holiday for the given company.
func (s *Store) IsHoliday(companyID string, date time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return isHoliday(context.Background(), s.db, companyID, date)
}

func saveHoliday(ctx context.Context, q querier, h award.Holiday) error {
	query := `
		INSERT INTO holidays (id, company_id, date, name, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			date = excluded.date,
			name = excluded.name,
			recurring = excluded.recurring
	`

	_, err := q.ExecContext(ctx, query,
		h.ID,
		h.CompanyID,
		h.Date.Format(dateLayout),
		h.Name,
		h.Recurring,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func listHolidays(ctx context.Context, q querier, companyID string) ([]award.Holiday, error) {
	query := `
		SELECT id, company_id, date, name, recurring
		FROM holidays
		WHERE company_id = ? OR company_id = ''
		ORDER BY date ASC
	`

	rows, err := q.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []award.Holiday
	for rows.Next() {
		var h award.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &h.CompanyID, &dateStr, &h.Name, &h.Recurring); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		h.Date, _ = time.Parse(dateLayout, dateStr)
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

func getHolidays(ctx context.Context, q querier, companyID string, year int) []award.Holiday {
	query := `
		SELECT id, company_id, date, name, recurring
		FROM holidays
		WHERE (company_id = ? OR company_id = '')
		  AND (recurring = TRUE OR strftime('%Y', date) = ?)
	`

	rows, err := q.QueryContext(ctx, query, companyID, fmt.Sprintf("%04d", year))
	if err != nil {
		return nil
	}
	defer rows.Close()

	var holidays []award.Holiday
	for rows.Next() {
		var h award.Holiday
		var dateStr string
		if err := rows.Scan(&h.ID, &h.CompanyID, &dateStr, &h.Name, &h.Recurring); err != nil {
			continue
		}
		h.Date, _ = time.Parse(dateLayout, dateStr)
		if occurrence, ok := h.InYear(year); ok {
			holidays = append(holidays, occurrence)
		}
	}

	// Recurring holidays move to this year, so sort after the move.
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date.Before(holidays[j].Date) })
	return holidays
}

func isHoliday(ctx context.Context, q querier, companyID string, date time.Time) bool {
	query := `
		SELECT COUNT(*) FROM holidays
		WHERE (company_id = ? OR company_id = '')
		  AND (
			(recurring = FALSE AND date = ?)
			OR (recurring = TRUE AND strftime('%m-%d', date) = ?)
		  )
	`

	var count int
	err := q.QueryRowContext(ctx, query, companyID, date.Format(dateLayout), date.Format("01-02")).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// =============================================================================
// AUDIT LOG
// =============================================================================

// AppendAudit adds an entry. Append-only.
func (s *Store) AppendAudit(ctx context.Context, entry roster.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendAudit(ctx, s.db, entry)
}

// QueryAudit returns matching entries, oldest first.
func (s *Store) QueryAudit(ctx context.Context, filter roster.AuditFilter) ([]roster.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryAudit(ctx, s.db, filter)
}

func appendAudit(ctx context.Context, q querier, e roster.AuditEntry) error {
	payloadJSON, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_log (id, timestamp, actor_id, action, timesheet_id, employee_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		e.ID,
		formatTime(e.Timestamp),
		nullString(e.ActorID),
		e.Action,
		nullString(string(e.TimesheetID)),
		nullString(string(e.EmployeeID)),
		string(payloadJSON),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("audit entry %s already exists: %w", e.ID, err)
		}
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func queryAudit(ctx context.Context, q querier, f roster.AuditFilter) ([]roster.AuditEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.TimesheetID != nil {
		where = append(where, "timesheet_id = ?")
		args = append(args, *f.TimesheetID)
	}
	if f.ActorID != nil {
		where = append(where, "actor_id = ?")
		args = append(args, *f.ActorID)
	}
	if len(f.Actions) > 0 {
		placeholders := make([]string, len(f.Actions))
		for i, a := range f.Actions {
			placeholders[i] = "?"
			args = append(args, a)
		}
		where = append(where, "action IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.From != nil {
		where = append(where, "timestamp >= ?")
		args = append(args, formatTime(*f.From))
	}
	if f.To != nil {
		where = append(where, "timestamp <= ?")
		args = append(args, formatTime(*f.To))
	}

	query := `SELECT id, timestamp, actor_id, action, timesheet_id, employee_id, payload_json FROM audit_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp ASC, rowid ASC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []roster.AuditEntry
	for rows.Next() {
		var (
			e           roster.AuditEntry
			timestamp   string
			actorID     sql.NullString
			timesheetID sql.NullString
			employeeID  sql.NullString
			payloadJSON sql.NullString
		)
		if err := rows.Scan(&e.ID, &timestamp, &actorID, &e.Action, &timesheetID, &employeeID, &payloadJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Timestamp = parseTime(timestamp)
		e.ActorID = actorID.String
		e.TimesheetID = award.TimesheetID(timesheetID.String)
		e.EmployeeID = award.EmployeeID(employeeID.String)
		if payloadJSON.Valid && payloadJSON.String != "" && payloadJSON.String != "null" {
			if err := json.Unmarshal([]byte(payloadJSON.String), &e.Payload); err != nil {
				return nil, fmt.Errorf("failed to decode audit payload: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (roster.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store roster.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every call on the open transaction. The parent's lock is
// already held.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) SaveTimesheet(ctx context.Context, rec roster.Record) error {
	return saveTimesheet(ctx, ts.tx, rec)
}

func (ts *txStore) GetTimesheet(ctx context.Context, id award.TimesheetID) (*roster.Record, error) {
	return getTimesheet(ctx, ts.tx, id)
}

func (ts *txStore) ListTimesheets(ctx context.Context, filter roster.TimesheetFilter) ([]roster.Record, error) {
	return listTimesheets(ctx, ts.tx, filter)
}

func (ts *txStore) SaveChain(ctx context.Context, id award.TimesheetID, chain award.ApprovalChain) error {
	return saveChain(ctx, ts.tx, id, chain)
}

func (ts *txStore) GetChain(ctx context.Context, id award.TimesheetID) (*award.ApprovalChain, error) {
	return getChain(ctx, ts.tx, id)
}

func (ts *txStore) SaveAllowanceRule(ctx context.Context, rule award.AllowanceRule) error {
	return saveAllowanceRule(ctx, ts.tx, rule)
}

func (ts *txStore) ListAllowanceRules(ctx context.Context) ([]award.AllowanceRule, error) {
	return listAllowanceRules(ctx, ts.tx)
}

func (ts *txStore) DeleteAllowanceRule(ctx context.Context, id award.AllowanceID) error {
	return deleteAllowanceRule(ctx, ts.tx, id)
}

func (ts *txStore) SaveHoliday(ctx context.Context, h award.Holiday) error {
	return saveHoliday(ctx, ts.tx, h)
}

func (ts *txStore) ListHolidays(ctx context.Context, companyID string) ([]award.Holiday, error) {
	return listHolidays(ctx, ts.tx, companyID)
}

func (ts *txStore) GetHolidays(companyID string, year int) []award.Holiday {
	return getHolidays(context.Background(), ts.tx, companyID, year)
}

func (ts *txStore) IsHoliday(companyID string, date time.Time) bool {
	return isHoliday(context.Background(), ts.tx, companyID, date)
}

func (ts *txStore) AppendAudit(ctx context.Context, entry roster.AuditEntry) error {
	return appendAudit(ctx, ts.tx, entry)
}

func (ts *txStore) QueryAudit(ctx context.Context, filter roster.AuditFilter) ([]roster.AuditEntry, error) {
	return queryAudit(ctx, ts.tx, filter)
}

var (
	_ roster.TxStore = (*Store)(nil)
	_ roster.Store   = (*txStore)(nil)
)

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
