/*
server.go - HTTP server and router configuration

PURPOSE:
  Configures the chi router with middleware and routes. Entry point for
  wiring HTTP handlers to URL paths.

ROUTER:
  Uses chi router for:
  - URL parameters: /timesheets/{id}/steps/{step}/approve
  - Middleware chaining
  - Route grouping

MIDDLEWARE STACK:
  1. RequestID: Adds X-Request-ID header
  2. httplog RequestLogger: One structured (ECS) line per request
  3. Recoverer: Catches panics, returns 500
  4. CORS: Allows cross-origin requests from the frontend

ROUTE GROUPS:
  /health             Store ping
  /api/preview        What-if evaluation
  /api/timesheets     Submission, lookup, approval actions
  /api/approvals      SLA reporting
  /api/allowances     Allowance rule management and resolution
  /api/holidays       Holiday calendar
  /api/audit          Audit trail

SECURITY NOTE:
  CORS is configured to allow localhost origins. In production:
  - Restrict AllowedOrigins to specific domains
  - Add authentication middleware

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = h.Logger
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/preview", h.PreviewTimesheet)

		// Timesheets
		r.Route("/timesheets", func(r chi.Router) {
			r.Get("/", h.ListTimesheets)
			r.Post("/", h.SubmitTimesheet)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetTimesheet)
				r.Route("/steps/{step}", func(r chi.Router) {
					r.Post("/approve", h.ApproveStep)
					r.Post("/reject", h.RejectStep)
					r.Post("/escalate", h.EscalateStep)
				})
			})
		})

		// Approvals
		r.Get("/approvals/overdue", h.ListOverdueApprovals)

		// Allowances
		r.Route("/allowances", func(r chi.Router) {
			r.Get("/", h.ListAllowanceRules)
			r.Post("/", h.SaveAllowanceRule)
			r.Post("/resolve", h.ResolveAllowances)
			r.Delete("/{id}", h.DeleteAllowanceRule)
		})

		// Holidays
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})

		// Audit
		r.Get("/audit", h.QueryAudit)
	})

	return r
}
