/*
handlers.go - HTTP API handlers for the award engine

PURPOSE:
  Exposes timesheet evaluation, approval routing and allowance resolution
  via REST API. Handles HTTP request/response and JSON serialization, and
  delegates to roster.Service.

ENDPOINTS:
  Timesheets:
    POST   /api/preview                                  What-if evaluation, nothing stored
    GET    /api/timesheets                               List (?employee_id=&status=)
    POST   /api/timesheets                               Submit or resubmit
    GET    /api/timesheets/{id}                          Timesheet with its chain

  Approvals:
    POST   /api/timesheets/{id}/steps/{step}/approve     Approve a pending step
    POST   /api/timesheets/{id}/steps/{step}/reject      Reject a pending step
    POST   /api/timesheets/{id}/steps/{step}/escalate    Escalate a pending step
    GET    /api/approvals/overdue                        Steps past their SLA

  Allowances:
    GET    /api/allowances                               List rules
    POST   /api/allowances                               Create or replace a rule
    DELETE /api/allowances/{id}                          Delete a rule
    POST   /api/allowances/resolve                       Resolve a shift context

  Holidays:
    GET    /api/holidays                                 List (?company_id=)
    POST   /api/holidays                                 Create or replace

  Audit:
    GET    /api/audit                                    Query (?timesheet_id=&actor_id=&action=&from=&to=&limit=)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Timesheet, chain or allowance rule not found
  - 409: Locked timesheet, step not actionable
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. The actor of an approval is
  whatever the client sends.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - roster/service.go: The operations behind every endpoint
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/award-engine/award"
	"github.com/warp/award-engine/factory"
	"github.com/warp/award-engine/roster"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *roster.Service
	Rules   *factory.RuleFactory
	Logger  *slog.Logger

	// Ping reports store health for /health. Optional.
	Ping func(ctx context.Context) error
}

// NewHandler creates a new handler over the given service.
func NewHandler(svc *roster.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Service: svc,
		Rules:   factory.NewRuleFactory(),
		Logger:  logger,
	}
}

func (h *Handler) now() time.Time {
	if h.Service.Now != nil {
		return h.Service.Now()
	}
	return time.Now().UTC()
}

// Health checks the store connection.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// PreviewTimesheet evaluates a timesheet without storing anything.
func (h *Handler) PreviewTimesheet(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeSubmission(w, r)
	if !ok {
		return
	}

	eval, err := h.Service.Preview(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, "Failed to evaluate timesheet", err)
		return
	}

	writeJSON(w, http.StatusOK, toEvaluationDTO(eval, h.now()))
}

// SubmitTimesheet submits or resubmits a timesheet.
func (h *Handler) SubmitTimesheet(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeSubmission(w, r)
	if !ok {
		return
	}

	sub, err := h.Service.Submit(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, "Failed to submit timesheet", err)
		return
	}

	now := h.now()
	resp := SubmissionResponse{
		Timesheet:  toDecisionDTO(&roster.Decision{Record: sub.Record, Chain: sub.Chain}, now),
		Evaluation: toEvaluationDTO(sub.Evaluation, now),
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) decodeSubmission(w http.ResponseWriter, r *http.Request) (roster.SubmitInput, bool) {
	var req SubmitTimesheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return roster.SubmitInput{}, false
	}
	in, err := req.toInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid timesheet", err)
		return roster.SubmitInput{}, false
	}
	return in, true
}

// ListTimesheets returns stored timesheets, newest week first.
func (h *Handler) ListTimesheets(w http.ResponseWriter, r *http.Request) {
	var filter roster.TimesheetFilter
	if v := r.URL.Query().Get("employee_id"); v != "" {
		id := award.EmployeeID(v)
		filter.EmployeeID = &id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := award.TimesheetStatus(v)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "Invalid status", fmt.Errorf("unknown status %q", v))
			return
		}
		filter.Status = &status
	}

	recs, err := h.Service.Timesheets(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, "Failed to list timesheets", err)
		return
	}

	dtos := make([]TimesheetDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toTimesheetDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTimesheet returns a timesheet with its approval chain.
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	id := award.TimesheetID(chi.URLParam(r, "id"))

	d, err := h.Service.Timesheet(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get timesheet", err)
		return
	}

	writeJSON(w, http.StatusOK, toDecisionDTO(d, h.now()))
}

// =============================================================================
// APPROVAL HANDLERS
// =============================================================================

type approvalAction func(ctx context.Context, id award.TimesheetID, step int, actor, notes string) (*roster.Decision, error)

// ApproveStep approves a pending step.
func (h *Handler) ApproveStep(w http.ResponseWriter, r *http.Request) {
	h.applyAction(w, r, "approve", h.Service.Approve)
}

// RejectStep rejects a pending step, which rejects the timesheet.
func (h *Handler) RejectStep(w http.ResponseWriter, r *http.Request) {
	h.applyAction(w, r, "reject", h.Service.Reject)
}

// EscalateStep hands a pending step to the next tier.
func (h *Handler) EscalateStep(w http.ResponseWriter, r *http.Request) {
	h.applyAction(w, r, "escalate", h.Service.Escalate)
}

func (h *Handler) applyAction(w http.ResponseWriter, r *http.Request, name string, action approvalAction) {
	id := award.TimesheetID(chi.URLParam(r, "id"))
	step, err := strconv.Atoi(chi.URLParam(r, "step"))
	if err != nil || step < 0 {
		writeError(w, http.StatusBadRequest, "Invalid step", fmt.Errorf("step must be a non-negative integer"))
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	d, err := action(r.Context(), id, step, req.Actor, req.Notes)
	if err != nil {
		h.writeServiceError(w, r, fmt.Sprintf("Failed to %s step", name), err)
		return
	}

	writeJSON(w, http.StatusOK, toDecisionDTO(d, h.now()))
}

// ListOverdueApprovals returns pending steps past their SLA deadline.
func (h *Handler) ListOverdueApprovals(w http.ResponseWriter, r *http.Request) {
	overdue, err := h.Service.OverdueApprovals(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to list overdue approvals", err)
		return
	}

	dtos := make([]OverdueApprovalDTO, len(overdue))
	for i, o := range overdue {
		dtos[i] = toOverdueApprovalDTO(o)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ALLOWANCE HANDLERS
// =============================================================================

// ListAllowanceRules returns every rule, active or not.
func (h *Handler) ListAllowanceRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Service.AllowanceRules(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to list allowance rules", err)
		return
	}

	dtos := make([]factory.AllowanceRuleJSON, len(rules))
	for i, rule := range rules {
		dtos[i] = h.Rules.AllowanceRuleToJSON(rule)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveAllowanceRule creates or replaces a rule.
func (h *Handler) SaveAllowanceRule(w http.ResponseWriter, r *http.Request) {
	var req SaveAllowanceRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rule, err := h.Rules.AllowanceRuleFromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid allowance rule", err)
		return
	}

	warnings, err := h.Service.SaveAllowanceRule(r.Context(), rule, req.Actor)
	if err != nil {
		h.writeServiceError(w, r, "Failed to save allowance rule", err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}

	writeJSON(w, http.StatusCreated, AllowanceRuleResponse{
		Config:   h.Rules.AllowanceRuleToJSON(rule),
		Warnings: warnings,
	})
}

// DeleteAllowanceRule removes a rule. The actor comes from ?actor=.
func (h *Handler) DeleteAllowanceRule(w http.ResponseWriter, r *http.Request) {
	id := award.AllowanceID(chi.URLParam(r, "id"))

	if err := h.Service.DeleteAllowanceRule(r.Context(), id, r.URL.Query().Get("actor")); err != nil {
		h.writeServiceError(w, r, "Failed to delete allowance rule", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ResolveAllowances runs the resolver over the stored rules for one shift.
func (h *Handler) ResolveAllowances(w http.ResponseWriter, r *http.Request) {
	var req ResolveAllowancesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.CallbackHours.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid shift", fmt.Errorf("callback_hours must not be negative"))
		return
	}

	res, err := h.Service.ResolveAllowances(r.Context(), req.toShiftContext())
	if err != nil {
		h.writeServiceError(w, r, "Failed to resolve allowances", err)
		return
	}

	writeJSON(w, http.StatusOK, toResolutionDTO(res))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns global holidays plus those of ?company_id=.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Service.Holidays(r.Context(), r.URL.Query().Get("company_id"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, len(holidays))
	for i, hol := range holidays {
		dtos[i] = toHolidayDTO(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday creates or replaces a holiday.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	hol := award.Holiday{
		ID:        req.ID,
		CompanyID: req.CompanyID,
		Name:      req.Name,
		Recurring: req.Recurring,
	}
	if req.Date != "" {
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format, use YYYY-MM-DD", err)
			return
		}
		hol.Date = date
	}

	saved, err := h.Service.SaveHoliday(r.Context(), hol)
	if err != nil {
		h.writeServiceError(w, r, "Failed to save holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, toHolidayDTO(saved))
}

// =============================================================================
// AUDIT HANDLERS
// =============================================================================

// QueryAudit returns audit entries, oldest first.
func (h *Handler) QueryAudit(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAuditFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid audit query", err)
		return
	}

	entries, err := h.Service.Audit(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, "Failed to query audit log", err)
		return
	}

	dtos := make([]AuditEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toAuditEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// parseAuditFilter reads the audit query string. action may repeat or be
// comma separated; from and to are RFC 3339.
func parseAuditFilter(r *http.Request) (roster.AuditFilter, error) {
	q := r.URL.Query()
	var f roster.AuditFilter

	if v := q.Get("timesheet_id"); v != "" {
		id := award.TimesheetID(v)
		f.TimesheetID = &id
	}
	if v := q.Get("actor_id"); v != "" {
		f.ActorID = &v
	}
	for _, v := range q["action"] {
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				f.Actions = append(f.Actions, roster.AuditAction(a))
			}
		}
	}
	for _, bound := range []struct {
		key  string
		dest **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := q.Get(bound.key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("%s: %w", bound.key, err)
		}
		*bound.dest = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps a roster.Service error to its HTTP status. Conflicts
// are checked before client errors, which include them.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case roster.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case roster.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case roster.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.ErrorContext(r.Context(), message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
