/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	payroll inputs for demos. Each scenario creates employee settings,
	imports a month of revenue rows and records past performance scores, so
	the dashboard can calculate March 2025 right away.

AVAILABLE SCENARIOS:

	march-payroll:  Teacher Karen, closer Lee, part-time setter Mia; Karen
	                is on a two-month full-score streak
	broken-streak:  Karen scored 10, then 7, so a March 10 starts over
	refunds:        Karen's March includes a refunded package; Mia booked
	                nothing

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create employee settings via factory presets
 3. Import revenue rows
 4. Record prior period scores

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "march-payroll"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenarioByID

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
  - factory/presets.go: Employee JSON definitions
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/compensation"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "march-payroll",
		Name:        "March Payroll",
		Description: "Teacher, closer and part-time setter sharing March revenue",
	},
	{
		ID:          "broken-streak",
		Name:        "Broken Streak",
		Description: "A 7 in February resets the full-score streak",
	},
	{
		ID:          "refunds",
		Name:        "Refunds",
		Description: "A refunded package reduces commission; an employee with no revenue",
	},
}

// ErrUnknownScenario is returned for a scenario id not in the list.
var ErrUnknownScenario = errors.New("unknown scenario")

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          h.currentScenario,
		Name:        h.currentScenario,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := bindJSON(r, &req); err != nil {
		writeClientError(w, "Invalid request body", err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, ErrUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// LoadScenarioByID resets the store and loads the scenario. The server uses
// it to seed demo data at startup.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var loader func(context.Context) error
	switch id {
	case "march-payroll":
		loader = h.loadMarchPayrollScenario
	case "broken-streak":
		loader = h.loadBrokenStreakScenario
	case "refunds":
		loader = h.loadRefundsScenario
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}

	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset database: %w", err)
	}
	h.currentScenario = ""

	if err := loader(ctx); err != nil {
		return err
	}

	h.currentScenario = id
	h.Logger.InfoContext(ctx, "scenario loaded", "scenario", id)
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadMarchPayrollScenario(ctx context.Context) error {
	if err := h.createStaff(ctx); err != nil {
		return err
	}

	if err := h.Store.AppendRevenueRecords(ctx, []compensation.RevenueRecord{
		demoRow("m-001", 3, "1:1 class (10h)", 18000, "Amy", "card", "Karen", "", ""),
		demoRow("m-002", 7, "Group class package", 24000, "Ben", "transfer", "Karen", "Lee", "Mia"),
		demoRow("m-003", 12, "Trial consultation", 0, "Cleo", "cash", "", "Lee", "Mia"),
		demoRow("m-004", 18, "1:1 class (20h)", 32000, "Dan", "card", "Karen", "Lee", ""),
		demoRow("m-005", 26, "Exam prep package", 16000, "Eve", "transfer", "", "Lee", "Mia"),
	}); err != nil {
		return err
	}

	return h.recordScores(ctx, "Karen", map[time.Month]int{
		time.January:  10,
		time.February: 10,
	})
}

func (h *Handler) loadBrokenStreakScenario(ctx context.Context) error {
	if err := h.createStaff(ctx); err != nil {
		return err
	}

	if err := h.Store.AppendRevenueRecords(ctx, []compensation.RevenueRecord{
		demoRow("b-001", 5, "1:1 class (10h)", 18000, "Amy", "card", "Karen", "", ""),
		demoRow("b-002", 19, "Group class package", 24000, "Ben", "transfer", "Karen", "Lee", "Mia"),
	}); err != nil {
		return err
	}

	return h.recordScores(ctx, "Karen", map[time.Month]int{
		time.December: 10,
		time.January:  10,
		time.February: 7,
	})
}

func (h *Handler) loadRefundsScenario(ctx context.Context) error {
	if err := h.createStaff(ctx); err != nil {
		return err
	}

	return h.Store.AppendRevenueRecords(ctx, []compensation.RevenueRecord{
		demoRow("f-001", 4, "1:1 class (20h)", 32000, "Amy", "card", "Karen", "Lee", ""),
		demoRow("f-002", 21, "Refund: 1:1 class (5h)", -8000, "Amy", "card", "Karen", "Lee", ""),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// createStaff saves the three demo employees.
func (h *Handler) createStaff(ctx context.Context) error {
	staff := []struct {
		json      string
		statutory [4]int64 // labor, health, retirement, service fee
	}{
		{factory.FullTimeTeacherJSON("Karen", 30000, 10), [4]int64{1000, 800, 1200, 0}},
		{factory.CloserJSON("Lee", 25000, 500), [4]int64{900, 700, 1000, 0}},
		{factory.PartTimeSetterJSON("Mia", 200, 5), [4]int64{0, 0, 0, 100}},
	}

	for _, s := range staff {
		cfg, err := h.Factory.ParseEmployeeConfig(s.json)
		if err != nil {
			return err
		}
		cfg.LaborInsurance = decimal.NewFromInt(s.statutory[0])
		cfg.HealthInsurance = decimal.NewFromInt(s.statutory[1])
		cfg.RetirementFund = decimal.NewFromInt(s.statutory[2])
		cfg.ServiceFee = decimal.NewFromInt(s.statutory[3])

		if err := h.Store.SaveEmployeeConfig(ctx, *cfg); err != nil {
			return err
		}
	}
	return nil
}

// recordScores stores monthly scores; December belongs to 2024, the rest
// to 2025.
func (h *Handler) recordScores(ctx context.Context, name string, scores map[time.Month]int) error {
	for month, score := range scores {
		year := 2025
		if month == time.December {
			year = 2024
		}
		if err := h.Store.RecordPerformanceScore(ctx, name, generic.MonthPeriod(year, month), score); err != nil {
			return err
		}
	}
	return nil
}

func demoRow(id string, day int, item string, amount int64, student, method, teacher, closer, setter string) compensation.RevenueRecord {
	return compensation.RevenueRecord{
		ID:            id,
		Date:          generic.NewDate(2025, time.March, day),
		Item:          item,
		Amount:        decimal.NewFromInt(amount),
		StudentName:   student,
		PaymentMethod: method,
		TeacherName:   teacher,
		Closer:        closer,
		Setter:        setter,
	}
}
