package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/compensation"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
)

func TestParseEmployeeConfig_Presets(t *testing.T) {
	f := factory.NewEmployeeFactory()

	karen, err := f.ParseEmployeeConfig(factory.FullTimeTeacherJSON("Karen", 30000, 10))
	require.NoError(t, err)
	assert.Equal(t, compensation.RoleTeacher, karen.RoleType)
	assert.Equal(t, compensation.FullTime, karen.EmploymentType)
	assert.True(t, karen.BaseSalary.Equal(decimal.NewFromInt(30000)))
	assert.True(t, karen.HasPerformanceBonus)

	mia, err := f.ParseEmployeeConfig(factory.PartTimeSetterJSON("Mia", 200, 5))
	require.NoError(t, err)
	assert.Equal(t, compensation.PartTime, mia.EmploymentType)
	assert.False(t, mia.HasPerformanceBonus)

	lee, err := f.ParseEmployeeConfig(factory.CloserJSON("Lee", 25000, 500))
	require.NoError(t, err)
	assert.Equal(t, compensation.RoleCloser, lee.RoleType)
	assert.True(t, lee.HourlyWorkRate.Equal(decimal.NewFromInt(500)))
}

func TestParseEmployeeConfig_DecimalStringsAndSpellings(t *testing.T) {
	// GIVEN: Amounts as strings and a loosely spelled employment type
	// WHEN: Parsing
	// THEN: Values are exact and the type is normalized

	f := factory.NewEmployeeFactory()
	cfg, err := f.ParseEmployeeConfig(`{
		"name": " Karen ",
		"role_type": "Teacher",
		"employment_type": "Full-Time",
		"base_salary": "30000.50",
		"commission_rate": 7.5,
		"labor_insurance": "1000"
	}`)
	require.NoError(t, err)

	assert.Equal(t, "Karen", cfg.Name)
	assert.Equal(t, compensation.RoleTeacher, cfg.RoleType)
	assert.Equal(t, compensation.FullTime, cfg.EmploymentType)
	assert.Equal(t, "30000.5", cfg.BaseSalary.String())
	assert.Equal(t, "7.5", cfg.CommissionRate.String())
}

func TestParseEmployeeConfig_Rejections(t *testing.T) {
	f := factory.NewEmployeeFactory()

	tests := []struct {
		name string
		json string
		want error
	}{
		{"unknown role", `{"name":"X","role_type":"manager","employment_type":"full_time"}`, generic.ErrEmployeeNotConfigured},
		{"missing name", `{"role_type":"teacher","employment_type":"full_time"}`, generic.ErrEmployeeNotConfigured},
		{"bad employment type", `{"name":"X","role_type":"teacher","employment_type":"contract"}`, generic.ErrInvalidEmploymentType},
		{"rate above 100", `{"name":"X","role_type":"teacher","employment_type":"full_time","commission_rate":150}`, generic.ErrInvalidAdjustment},
		{"negative statutory", `{"name":"X","role_type":"teacher","employment_type":"full_time","service_fee":-1}`, generic.ErrInvalidAdjustment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseEmployeeConfig(tt.json)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseEmployeeConfig_UnknownFieldRejected(t *testing.T) {
	// Duck-typed field names from spreadsheets must not slip through
	f := factory.NewEmployeeFactory()

	_, err := f.ParseEmployeeConfig(`{"name":"X","role_type":"teacher","employment_type":"full_time","teacher":"X"}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestEmployeeFactory_RoundTrip(t *testing.T) {
	f := factory.NewEmployeeFactory()
	cfg, err := f.ParseEmployeeConfig(factory.CloserJSON("Lee", 25000, 500))
	require.NoError(t, err)

	again, err := f.FromJSON(f.ToJSON(cfg))
	require.NoError(t, err)

	assert.Equal(t, cfg.Name, again.Name)
	assert.Equal(t, cfg.RoleType, again.RoleType)
	assert.True(t, cfg.HourlyWorkRate.Equal(again.HourlyWorkRate))
}

// =============================================================================
// REVENUE RECORDS
// =============================================================================

func TestParseRevenueRecords_AssignsMissingIDs(t *testing.T) {
	// GIVEN: Two rows, one without an id
	// WHEN: Parsing
	// THEN: The missing id is generated, the given one kept

	f := factory.NewEmployeeFactory()
	f.NewID = func() string { return "generated" }

	records, err := f.ParseRevenueRecords([]byte(`[
		{"id":"r-1","date":"2025-03-05","item":"1:1 class","amount":"2500","student_name":"Amy","payment_method":"card","teacher_name":"Karen"},
		{"date":"2025-03-09","item":"package","amount":-800,"student_name":"Ben","payment_method":"cash","closer":"Lee","setter":"Mia"}
	]`))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "r-1", records[0].ID)
	assert.Equal(t, "generated", records[1].ID)
	assert.Equal(t, "2025-03-05", records[0].Date.String())
	assert.True(t, records[1].Amount.Equal(decimal.NewFromInt(-800)))
	assert.Equal(t, "Lee", records[1].NameFor(compensation.RoleCloser))
}

func TestParseRevenueRecords_RowErrors(t *testing.T) {
	f := factory.NewEmployeeFactory()

	tests := []struct {
		name  string
		json  string
		field string
	}{
		{"missing date", `[{"item":"x","amount":1,"teacher_name":"Karen"}]`, "date"},
		{"bad date", `[{"date":"03/05/2025","item":"x","amount":1,"teacher_name":"Karen"}]`, "date"},
		{"no role field", `[{"date":"2025-03-05","item":"x","amount":1}]`, "teacher_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseRevenueRecords([]byte(tt.json))

			require.Error(t, err)
			assert.Contains(t, err.Error(), "row 0")
			var engErr *generic.EngineError
			require.ErrorAs(t, err, &engErr)
			assert.Equal(t, tt.field, engErr.Field)
		})
	}
}
