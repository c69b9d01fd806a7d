/*
handlers_test.go - Tests for API handlers

Tests for:
- Calculate and save over a loaded scenario
- Error kinds and status codes
- Employee settings, revenue import and score entry
*/
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/compensation"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewRouter(h, nil)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func loadScenario(t *testing.T, router http.Handler, id string) {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"`+id+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const marchRequest = `{"period_start":"2025-03-01","period_end":"2025-03-31","performance_score":10}`

// =============================================================================
// COMPENSATION
// =============================================================================

func TestCalculateCompensation_TeacherOnStreak(t *testing.T) {
	// GIVEN: Karen scored 10 in January and February, and teaches 74000 in March
	// WHEN: Calculating March with a score of 10
	// THEN: The March score extends the streak to 3 and the total is
	//       30000 + 7400 + (2000 + 2000) - 3000 = 38400

	router := newTestRouter(t)
	loadScenario(t, router, "march-payroll")

	rec := do(t, router, http.MethodPost, "/api/employees/Karen/compensation", marchRequest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result compensation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.True(t, result.Attribution.TotalRevenue.Equal(decimal.NewFromInt(74000)), result.Attribution.TotalRevenue.String())
	assert.Equal(t, 3, result.Performance.ConsecutiveFullScoreCount)
	assert.True(t, result.Bonus.ConsecutiveBonus.Equal(decimal.NewFromInt(2000)))
	assert.True(t, result.TotalSalary.Equal(decimal.NewFromInt(38400)), result.TotalSalary.String())
	assert.Empty(t, result.Warnings)
}

func TestCalculateCompensation_BrokenStreak(t *testing.T) {
	// GIVEN: Karen scored 10, 10, then 7 in February
	// WHEN: Calculating March with a score of 10
	// THEN: Only March counts: streak bonus 500

	router := newTestRouter(t)
	loadScenario(t, router, "broken-streak")

	rec := do(t, router, http.MethodPost, "/api/employees/Karen/compensation", marchRequest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result compensation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Performance.ConsecutiveFullScoreCount)
	assert.True(t, result.Bonus.ConsecutiveBonus.Equal(decimal.NewFromInt(500)))
	assert.True(t, result.TotalSalary.Equal(decimal.NewFromInt(33700)), result.TotalSalary.String())
}

func TestCalculateCompensation_PartTimeSetter(t *testing.T) {
	// GIVEN: Mia set 40000 of March revenue at 5% and worked 60 hours at 200
	// WHEN: Calculating without a score (she has no performance bonus)
	// THEN: 12000 + 2000 - 100 service fee = 13900

	router := newTestRouter(t)
	loadScenario(t, router, "march-payroll")

	rec := do(t, router, http.MethodPost, "/api/employees/Mia/compensation",
		`{"period_start":"2025-03-01","period_end":"2025-03-31","manual_adjustments":{"monthly_hours":"60"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result compensation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Commission.Value.Equal(decimal.NewFromInt(2000)))
	assert.True(t, result.TotalSalary.Equal(decimal.NewFromInt(13900)), result.TotalSalary.String())
}

func TestSaveCompensation_ListAndGet(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "refunds")

	rec := do(t, router, http.MethodPost, "/api/employees/Karen/compensation/save",
		`{"period_start":"2025-03-01","period_end":"2025-03-31","performance_score":8}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var saved compensation.SavedResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, "Karen", saved.EmployeeName)
	assert.True(t, saved.Result.TotalSalary.Equal(decimal.NewFromInt(31400)), saved.Result.TotalSalary.String())
	require.Len(t, saved.Result.Warnings, 1)
	assert.Contains(t, saved.Result.Warnings[0], "negative amount -8000")

	rec = do(t, router, http.MethodGet, "/api/employees/Karen/results", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []compensation.SavedResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, saved.ID, list[0].ID)

	rec = do(t, router, http.MethodGet, "/api/results/"+saved.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/results/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalculateCompensation_ErrorKinds(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "march-payroll")

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		kind   string
	}{
		{
			name:   "unknown employee",
			path:   "/api/employees/Nobody/compensation",
			body:   `{"period_start":"2025-03-01","period_end":"2025-03-31"}`,
			status: http.StatusNotFound,
			kind:   "EmployeeNotConfigured",
		},
		{
			name:   "end before start",
			path:   "/api/employees/Karen/compensation",
			body:   `{"period_start":"2025-03-31","period_end":"2025-03-01","performance_score":9}`,
			status: http.StatusBadRequest,
			kind:   "InvalidPeriod",
		},
		{
			name:   "unparseable date",
			path:   "/api/employees/Karen/compensation",
			body:   `{"period_start":"03/01/2025","period_end":"2025-03-31","performance_score":9}`,
			status: http.StatusBadRequest,
			kind:   "InvalidPeriod",
		},
		{
			name:   "missing score for eligible employee",
			path:   "/api/employees/Karen/compensation",
			body:   `{"period_start":"2025-03-01","period_end":"2025-03-31"}`,
			status: http.StatusBadRequest,
			kind:   "InvalidPerformanceScore",
		},
		{
			name:   "score out of range",
			path:   "/api/employees/Karen/compensation",
			body:   `{"period_start":"2025-03-01","period_end":"2025-03-31","performance_score":11}`,
			status: http.StatusBadRequest,
			kind:   "InvalidPerformanceScore",
		},
		{
			name:   "override of total",
			path:   "/api/employees/Karen/compensation",
			body:   `{"period_start":"2025-03-01","period_end":"2025-03-31","performance_score":9,"manual_adjustments":{"overrides":{"total_salary":"1"}}}`,
			status: http.StatusBadRequest,
			kind:   "InvalidAdjustment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, tt.path, tt.body)

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.kind, decodeError(t, rec).Kind)
		})
	}
}

func TestCalculateCompensation_MalformedBody(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/employees/Karen/compensation", `{"period_start":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/employees/Karen/compensation", `{"period_end":"2025-03-31"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "period_start", decodeError(t, rec).Field)
}

// =============================================================================
// EMPLOYEES / INPUTS
// =============================================================================

func TestEmployees_CreateGetDelete(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/employees",
		`{"name":"Ona","role_type":"teacher","employment_type":"contract"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidEmploymentType", decodeError(t, rec).Kind)

	rec = do(t, router, http.MethodPost, "/api/employees",
		`{"name":"Ona","role_type":"teacher","employment_type":"full_time","base_salary":"28000","commission_rate":"8"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/employees/Ona", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"base_salary":"28000"`)

	rec = do(t, router, http.MethodGet, "/api/employees", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Ona"`)

	rec = do(t, router, http.MethodDelete, "/api/employees/Ona", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/employees/Ona", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportRevenue(t *testing.T) {
	// GIVEN: The march scenario, which already holds row m-001
	// WHEN: Importing rows for Karen
	// THEN: New rows are stored, a repeated id conflicts, a row for someone else is rejected

	router := newTestRouter(t)
	loadScenario(t, router, "march-payroll")

	rec := do(t, router, http.MethodPost, "/api/employees/Karen/revenue",
		`[{"id":"x-1","date":"2025-03-30","item":"1:1 class","amount":"1000","student_name":"Fay","payment_method":"card","teacher_name":"Karen"}]`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var imported ImportRevenueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &imported))
	assert.Equal(t, []string{"x-1"}, imported.IDs)

	rec = do(t, router, http.MethodPost, "/api/employees/Karen/revenue",
		`[{"id":"m-001","date":"2025-03-30","item":"dup","amount":"1","teacher_name":"Karen"}]`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/employees/Karen/revenue",
		`[{"date":"2025-03-30","item":"other","amount":"1","teacher_name":"Ona"}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/employees/Karen/compensation", marchRequest)
	require.Equal(t, http.StatusOK, rec.Code)
	var result compensation.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Attribution.TotalRevenue.Equal(decimal.NewFromInt(75000)))
}

func TestRecordScore_ReturnsStreak(t *testing.T) {
	router := newTestRouter(t)
	loadScenario(t, router, "march-payroll")

	rec := do(t, router, http.MethodPost, "/api/employees/Karen/scores",
		`{"period_start":"2025-03-01","period_end":"2025-03-31","score":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var dto ScoreDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, 3, dto.ConsecutiveFullScoreCount)

	rec = do(t, router, http.MethodPost, "/api/employees/Karen/scores",
		`{"period_start":"2025-03-01","period_end":"2025-03-31","score":12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidPerformanceScore", decodeError(t, rec).Kind)
}

func TestRecordScore_NoPerformanceBonus(t *testing.T) {
	// GIVEN: Mia, a setter without a performance bonus
	// WHEN: Recording a score for her
	// THEN: 400 InvalidPerformanceScore on performance_score

	router := newTestRouter(t)
	loadScenario(t, router, "march-payroll")

	rec := do(t, router, http.MethodPost, "/api/employees/Mia/scores",
		`{"period_start":"2025-03-01","period_end":"2025-03-31","score":10}`)

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	resp := decodeError(t, rec)
	assert.Equal(t, "InvalidPerformanceScore", resp.Kind)
	assert.Equal(t, "performance_score", resp.Field)
}

func TestCalculateCompensation_ScoreRecordedOnlyOnSuccess(t *testing.T) {
	// GIVEN: Karen with 10s in January and February
	// WHEN: A March calculation with score 10 is rejected, then April is scored 10
	// THEN: March was never recorded, so April starts a new run of 1

	router := newTestRouter(t)
	loadScenario(t, router, "march-payroll")

	rec := do(t, router, http.MethodPost, "/api/employees/Karen/compensation",
		`{"period_start":"2025-03-01","period_end":"2025-03-31","performance_score":10,"manual_adjustments":{"overrides":{"total_salary":"1"}}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "InvalidAdjustment", decodeError(t, rec).Kind)

	april := `{"period_start":"2025-04-01","period_end":"2025-04-30","score":10}`
	rec = do(t, router, http.MethodPost, "/api/employees/Karen/scores", april)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var dto ScoreDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, 1, dto.ConsecutiveFullScoreCount)

	// An accepted March calculation records its score
	rec = do(t, router, http.MethodPost, "/api/employees/Karen/compensation", marchRequest)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/api/employees/Karen/scores", april)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, 4, dto.ConsecutiveFullScoreCount)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_ListLoadUnknown(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/api/scenarios", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []ScenarioDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, len(scenarios))

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", `{"scenario_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	loadScenario(t, router, "refunds")
	rec = do(t, router, http.MethodGet, "/api/scenarios/current", "")
	assert.Contains(t, rec.Body.String(), `"refunds"`)

	rec = do(t, router, http.MethodPost, "/api/scenarios/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodGet, "/api/employees", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}
