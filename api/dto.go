/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine types that are
  already shaped for the dashboard (EmployeeJSON, Result, SavedResult) are
  returned as they are; only request bodies and wrappers live here.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Compensation:
    CalculateRequest

  Scores:
    ScoreRequest, ScoreDTO

  Revenue:
    ImportRevenueResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request structs carry validator tags checked by bindJSON. Domain rules
  (score range, period order, adjustment bounds) stay in the engine so the
  API reports the same error kinds as every other caller.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/employee.go: EmployeeJSON type
*/
package api

import (
	"github.com/warp/payroll-engine/compensation"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CalculateRequest is the body of a calculate or save call.
type CalculateRequest struct {
	PeriodStart string `json:"period_start" validate:"required"`
	PeriodEnd   string `json:"period_end" validate:"required"`

	// PerformanceScore is recorded for the period before calculating.
	PerformanceScore *int `json:"performance_score,omitempty"`

	ManualAdjustments compensation.ManualAdjustments `json:"manual_adjustments"`
}

// ScoreRequest records one period's performance score.
type ScoreRequest struct {
	PeriodStart string `json:"period_start" validate:"required"`
	PeriodEnd   string `json:"period_end" validate:"required"`
	Score       int    `json:"score" validate:"required"`
}

// ScoreDTO echoes a recorded score with the streak it produces.
type ScoreDTO struct {
	EmployeeName              string         `json:"employee_name"`
	Period                    generic.Period `json:"period"`
	Score                     int            `json:"score"`
	ConsecutiveFullScoreCount int            `json:"consecutive_full_score_count"`
}

// ImportRevenueResponse reports the rows stored by an import.
type ImportRevenueResponse struct {
	Imported int      `json:"imported"`
	IDs      []string `json:"ids"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
	Details any    `json:"details,omitempty"`
}
