package factory

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// PRESET EMPLOYEES
// =============================================================================
//
// Each returns JSON for ParseEmployeeConfig. Statutory amounts are left at
// zero; HR fills them in per employee.

// FullTimeTeacherJSON returns JSON for a full-time teacher with a
// performance bonus.
func FullTimeTeacherJSON(name string, baseSalary, commissionRate int64) string {
	return mustJSON(map[string]any{
		"name":                  name,
		"role_type":             "teacher",
		"employment_type":       "full_time",
		"base_salary":           baseSalary,
		"commission_rate":       commissionRate,
		"has_performance_bonus": true,
	})
}

// PartTimeSetterJSON returns JSON for an hourly setter without a
// performance bonus.
func PartTimeSetterJSON(name string, hourlyRate, pointCommissionRate int64) string {
	return mustJSON(map[string]any{
		"name":                  name,
		"role_type":             "setter",
		"employment_type":       "part_time",
		"hourly_rate":           hourlyRate,
		"point_commission_rate": pointCommissionRate,
		"has_performance_bonus": false,
	})
}

// CloserJSON returns JSON for a full-time closer paid per consultation hour.
func CloserJSON(name string, baseSalary, hourlyWorkRate int64) string {
	return mustJSON(map[string]any{
		"name":                  name,
		"role_type":             "closer",
		"employment_type":       "full_time",
		"base_salary":           baseSalary,
		"hourly_work_rate":      hourlyWorkRate,
		"has_performance_bonus": true,
	})
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("factory: marshal preset: %v", err))
	}
	return string(b)
}
