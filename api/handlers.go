/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes employee settings, revenue import, score entry and the
  compensation calculator via REST API. Handles HTTP request/response and
  JSON serialization, and delegates every rule to the engine.

ENDPOINTS:
  Employees:
    GET    /api/employees                          List configured employees
    POST   /api/employees                          Create or replace a configuration
    GET    /api/employees/{name}                   Get one configuration
    DELETE /api/employees/{name}                   Remove a configuration

  Inputs:
    POST   /api/employees/{name}/revenue           Import normalized revenue rows
    POST   /api/employees/{name}/scores            Record a period score

  Compensation:
    POST   /api/employees/{name}/compensation      Calculate (nothing saved but the score)
    POST   /api/employees/{name}/compensation/save Calculate and save the result
    GET    /api/employees/{name}/results           Saved results, newest first
    GET    /api/results/{id}                       One saved result

  Scenarios:
    GET    /api/scenarios                          List demo scenarios
    POST   /api/scenarios/load                     Load a demo scenario

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: configs, ledger, score history and saved results
  - Factory: JSON to EmployeeConfig / RevenueRecord conversion
  - Calculator: the calculate_compensation entry point over Store

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate request shape
  3. Call the engine
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Employee not configured, result not found
  - 409: Conflict (revenue row already imported)
  - 500: Internal errors
  The body carries the engine's error kind and offending field.

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/warp/payroll-engine/compensation"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/performance"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the handlers read and write.
// Implemented by store/sqlite and compensation/store.
type Store interface {
	compensation.ConfigProvider
	compensation.RevenueLedger
	compensation.ScoreHistory
	compensation.ResultStore

	SaveEmployeeConfig(ctx context.Context, cfg compensation.EmployeeConfig) error
	ListEmployeeConfigs(ctx context.Context) ([]compensation.EmployeeConfig, error)
	DeleteEmployeeConfig(ctx context.Context, name string) error
	AppendRevenueRecords(ctx context.Context, records []compensation.RevenueRecord) error
	RecordPerformanceScore(ctx context.Context, name string, period generic.Period, score int) error
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      Store
	Factory    *factory.EmployeeFactory
	Calculator *compensation.Calculator
	Logger     *slog.Logger

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	calc := compensation.NewCalculator(store, store, store)
	calc.Logger = logger

	return &Handler{
		Store:      store,
		Factory:    factory.NewEmployeeFactory(),
		Calculator: calc,
		Logger:     logger,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all configured employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Store.ListEmployeeConfigs(r.Context())
	if err != nil {
		h.writeEngineError(w, r, "Failed to list employees", err)
		return
	}

	dtos := make([]factory.EmployeeJSON, len(configs))
	for i := range configs {
		dtos[i] = h.Factory.ToJSON(&configs[i])
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee configuration.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	cfg, err := h.Store.GetEmployeeConfig(r.Context(), name)
	if err != nil {
		h.writeEngineError(w, r, "Failed to get employee", err)
		return
	}

	writeJSON(w, http.StatusOK, h.Factory.ToJSON(cfg))
}

// CreateEmployee validates and stores a configuration, replacing any
// existing one with the same name.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg, err := h.Factory.ParseEmployeeConfig(string(body))
	if err != nil {
		writeClientError(w, "Invalid employee configuration", err)
		return
	}

	if err := h.Store.SaveEmployeeConfig(r.Context(), *cfg); err != nil {
		h.writeEngineError(w, r, "Failed to save employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.Factory.ToJSON(cfg))
}

// DeleteEmployee removes a configuration. Revenue rows and saved results
// are kept.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.Store.DeleteEmployeeConfig(r.Context(), name); err != nil {
		h.writeEngineError(w, r, "Failed to delete employee", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// INPUT HANDLERS
// =============================================================================

// ImportRevenue stores a batch of normalized rows. Every row must credit the
// employee in at least one role field; the batch is all-or-nothing.
func (h *Handler) ImportRevenue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	records, err := h.Factory.ParseRevenueRecords(body)
	if err != nil {
		writeClientError(w, "Invalid revenue rows", err)
		return
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		if !credits(rec, name) {
			err := generic.NewEngineError(generic.KindInvalidAdjustment, "teacher_name",
				"row %d does not credit %q in any role", i, name)
			writeClientError(w, "Invalid revenue rows", err)
			return
		}
		ids[i] = rec.ID
	}

	if err := h.Store.AppendRevenueRecords(r.Context(), records); err != nil {
		h.writeEngineError(w, r, "Failed to import revenue", err)
		return
	}

	writeJSON(w, http.StatusCreated, ImportRevenueResponse{Imported: len(records), IDs: ids})
}

func credits(rec compensation.RevenueRecord, name string) bool {
	return rec.TeacherName == name || rec.Closer == name || rec.Setter == name
}

// RecordScore stores the performance score for a period and returns the
// streak it now produces.
func (h *Handler) RecordScore(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req ScoreRequest
	if err := bindJSON(r, &req); err != nil {
		writeClientError(w, "Invalid request body", err)
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeClientError(w, "Invalid period", err)
		return
	}

	if err := h.recordScore(r.Context(), name, period, &req.Score); err != nil {
		h.writeEngineError(w, r, "Failed to record score", err)
		return
	}

	count, err := h.Store.GetConsecutiveFullScoreCount(r.Context(), name, period)
	if err != nil {
		h.writeEngineError(w, r, "Failed to read score history", err)
		return
	}

	writeJSON(w, http.StatusCreated, ScoreDTO{
		EmployeeName:              name,
		Period:                    period,
		Score:                     req.Score,
		ConsecutiveFullScoreCount: count,
	})
}

// recordScore checks the employee and the score range before writing, so
// an out-of-range score is a client error rather than a constraint failure.
func (h *Handler) recordScore(ctx context.Context, name string, period generic.Period, score *int) error {
	cfg, err := h.Store.GetEmployeeConfig(ctx, name)
	if err != nil {
		return err
	}
	if !cfg.HasPerformanceBonus {
		return generic.NewEngineError(generic.KindInvalidPerformanceScore, "performance_score",
			"employee %q has no performance bonus", name)
	}
	if err := performance.Standard.ValidateInput(performance.Input{Score: score}, true); err != nil {
		return err
	}
	return h.Store.RecordPerformanceScore(ctx, name, period, *score)
}

// =============================================================================
// COMPENSATION HANDLERS
// =============================================================================

// CalculateCompensation returns an itemized result without saving it.
// A supplied score is recorded once the calculation succeeds.
func (h *Handler) CalculateCompensation(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SaveCompensation calculates and saves the result.
func (h *Handler) SaveCompensation(w http.ResponseWriter, r *http.Request) {
	result, ok := h.calculate(w, r)
	if !ok {
		return
	}

	saved, err := h.Store.SaveResult(r.Context(), result)
	if err != nil {
		h.writeEngineError(w, r, "Failed to save result", err)
		return
	}

	h.Logger.InfoContext(r.Context(), "compensation saved",
		"employee", saved.EmployeeName,
		"result_id", saved.ID,
		"period", saved.Period.String(),
		"total_salary", result.TotalSalary.String(),
	)
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) (*compensation.Result, bool) {
	name := chi.URLParam(r, "name")

	var req CalculateRequest
	if err := bindJSON(r, &req); err != nil {
		writeClientError(w, "Invalid request body", err)
		return nil, false
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd)
	if err != nil {
		writeClientError(w, "Invalid period", err)
		return nil, false
	}

	result, err := h.Calculator.CalculateCompensation(r.Context(), name,
		period.Start, period.End, req.PerformanceScore, req.ManualAdjustments)
	if err != nil {
		h.writeEngineError(w, r, "Failed to calculate compensation", err)
		return nil, false
	}

	// Rejected requests leave the history alone.
	if req.PerformanceScore != nil && result.Bonus.Eligible {
		if err := h.Store.RecordPerformanceScore(r.Context(), name, period, *req.PerformanceScore); err != nil {
			h.writeEngineError(w, r, "Failed to record score", err)
			return nil, false
		}
	}
	return result, true
}

// ListResults returns the saved results of one employee.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	results, err := h.Store.ListResults(r.Context(), name)
	if err != nil {
		h.writeEngineError(w, r, "Failed to list results", err)
		return
	}
	if results == nil {
		results = []compensation.SavedResult{}
	}

	writeJSON(w, http.StatusOK, results)
}

// GetResult returns one saved result.
func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	saved, err := h.Store.GetResult(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, r, "Failed to get result", err)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// bindJSON decodes the body into dst and checks its validator tags.
func bindJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return compensation.Validator().Struct(dst)
}

func parsePeriod(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, generic.NewEngineError(generic.KindInvalidPeriod, "period_start", "%v", err)
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, generic.NewEngineError(generic.KindInvalidPeriod, "period_end", "%v", err)
	}
	p := generic.Period{Start: s, End: e}
	if err := p.Validate(); err != nil {
		return generic.Period{}, err
	}
	return p, nil
}

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

// writeEngineError picks the status from the error and adds the engine's
// kind and field so the dashboard can point at the bad input.
func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.ErrorContext(r.Context(), message, "error", err, "path", r.URL.Path)
	}
	writeJSON(w, status, errorResponse(message, err))
}

// writeClientError is for failures that can only come from the request
// itself: malformed JSON, failed tags, rejected rows.
func writeClientError(w http.ResponseWriter, message string, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse(message, err))
}

func errorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Error: message, Details: err.Error()}
	var engErr *generic.EngineError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &engErr):
		resp.Kind = string(engErr.Kind)
		resp.Field = engErr.Field
	case errors.As(err, &verrs) && len(verrs) > 0:
		resp.Field = verrs[0].Field()
	}
	return resp
}

func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err):
		return http.StatusConflict
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
