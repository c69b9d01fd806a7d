/*
Package factory provides JSON to Go conversion at the ingestion boundary.

PURPOSE:
  Converts JSON employee settings and normalized revenue rows into
  validated compensation types. This is the one place loose input becomes
  a strict shape: unknown fields are rejected, enum spellings are
  normalized, and every value is checked before the engine sees it.

JSON SCHEMA (employee):
  {
    "name": "Karen",
    "role_type": "teacher",
    "employment_type": "full_time",
    "base_salary": "30000",
    "original_bonus": "0",
    "commission_rate": "10",
    "has_performance_bonus": true,
    "labor_insurance": "1000",
    "health_insurance": "800",
    "retirement_fund": "1200",
    "service_fee": "0"
  }

  Amounts and rates accept JSON numbers or decimal strings.

JSON SCHEMA (revenue rows):
  [
    {"id": "r-1", "date": "2025-03-05", "item": "1:1 class",
     "amount": "2500", "student_name": "Amy", "payment_method": "card",
     "teacher_name": "Karen", "closer": "Lee", "setter": "Mia"}
  ]

  Rows without an id get a generated UUID.

USAGE:
  f := NewEmployeeFactory()
  cfg, err := f.ParseEmployeeConfig(FullTimeTeacherJSON("Karen", 30000, 10))
  rows, err := f.ParseRevenueRecords(body)

SEE ALSO:
  - compensation/types.go: target types
  - compensation/validate.go: shared validator
  - presets.go: ready-made employee JSON
*/
package factory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/compensation"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// EmployeeJSON is the JSON representation of an employee configuration.
type EmployeeJSON struct {
	Name                string          `json:"name"`
	RoleType            string          `json:"role_type"`
	EmploymentType      string          `json:"employment_type"`
	BaseSalary          decimal.Decimal `json:"base_salary"`
	OriginalBonus       decimal.Decimal `json:"original_bonus"`
	HourlyRate          decimal.Decimal `json:"hourly_rate"`
	CommissionRate      decimal.Decimal `json:"commission_rate"`
	PointCommissionRate decimal.Decimal `json:"point_commission_rate"`
	HourlyWorkRate      decimal.Decimal `json:"hourly_work_rate"`
	HasPerformanceBonus bool            `json:"has_performance_bonus"`
	LaborInsurance      decimal.Decimal `json:"labor_insurance"`
	HealthInsurance     decimal.Decimal `json:"health_insurance"`
	RetirementFund      decimal.Decimal `json:"retirement_fund"`
	ServiceFee          decimal.Decimal `json:"service_fee"`
}

// RevenueRecordJSON is one normalized ledger row.
type RevenueRecordJSON struct {
	ID            string          `json:"id,omitempty"`
	Date          string          `json:"date"`
	Item          string          `json:"item"`
	Amount        decimal.Decimal `json:"amount"`
	StudentName   string          `json:"student_name"`
	PaymentMethod string          `json:"payment_method"`
	TeacherName   string          `json:"teacher_name,omitempty"`
	Closer        string          `json:"closer,omitempty"`
	Setter        string          `json:"setter,omitempty"`
}

// =============================================================================
// EMPLOYEE FACTORY
// =============================================================================

// EmployeeFactory converts JSON to compensation types.
type EmployeeFactory struct {
	// NewID generates ids for rows that have none. Defaults to uuid.NewString.
	NewID func() string
}

// NewEmployeeFactory creates a new factory.
func NewEmployeeFactory() *EmployeeFactory {
	return &EmployeeFactory{NewID: uuid.NewString}
}

// ParseEmployeeConfig parses and validates one employee configuration.
func (f *EmployeeFactory) ParseEmployeeConfig(jsonStr string) (*compensation.EmployeeConfig, error) {
	var ej EmployeeJSON
	if err := decodeStrict([]byte(jsonStr), &ej); err != nil {
		return nil, fmt.Errorf("failed to parse employee JSON: %w", err)
	}
	return f.FromJSON(ej)
}

// FromJSON converts EmployeeJSON to a validated EmployeeConfig.
func (f *EmployeeFactory) FromJSON(ej EmployeeJSON) (*compensation.EmployeeConfig, error) {
	cfg := &compensation.EmployeeConfig{
		Name:                strings.TrimSpace(ej.Name),
		RoleType:            parseRoleType(ej.RoleType),
		EmploymentType:      parseEmploymentType(ej.EmploymentType),
		BaseSalary:          ej.BaseSalary,
		OriginalBonus:       ej.OriginalBonus,
		HourlyRate:          ej.HourlyRate,
		CommissionRate:      ej.CommissionRate,
		PointCommissionRate: ej.PointCommissionRate,
		HourlyWorkRate:      ej.HourlyWorkRate,
		HasPerformanceBonus: ej.HasPerformanceBonus,
		LaborInsurance:      ej.LaborInsurance,
		HealthInsurance:     ej.HealthInsurance,
		RetirementFund:      ej.RetirementFund,
		ServiceFee:          ej.ServiceFee,
	}
	if err := compensation.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToJSON converts an EmployeeConfig back to its JSON form.
func (f *EmployeeFactory) ToJSON(cfg *compensation.EmployeeConfig) EmployeeJSON {
	return EmployeeJSON{
		Name:                cfg.Name,
		RoleType:            string(cfg.RoleType),
		EmploymentType:      string(cfg.EmploymentType),
		BaseSalary:          cfg.BaseSalary,
		OriginalBonus:       cfg.OriginalBonus,
		HourlyRate:          cfg.HourlyRate,
		CommissionRate:      cfg.CommissionRate,
		PointCommissionRate: cfg.PointCommissionRate,
		HourlyWorkRate:      cfg.HourlyWorkRate,
		HasPerformanceBonus: cfg.HasPerformanceBonus,
		LaborInsurance:      cfg.LaborInsurance,
		HealthInsurance:     cfg.HealthInsurance,
		RetirementFund:      cfg.RetirementFund,
		ServiceFee:          cfg.ServiceFee,
	}
}

// ParseRevenueRecords parses a JSON array of rows. The whole batch fails on
// the first invalid row.
func (f *EmployeeFactory) ParseRevenueRecords(data []byte) ([]compensation.RevenueRecord, error) {
	var rows []RevenueRecordJSON
	if err := decodeStrict(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse revenue JSON: %w", err)
	}

	records := make([]compensation.RevenueRecord, 0, len(rows))
	for i, rj := range rows {
		r, err := f.RecordFromJSON(rj)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// RecordFromJSON converts and validates one row.
func (f *EmployeeFactory) RecordFromJSON(rj RevenueRecordJSON) (compensation.RevenueRecord, error) {
	r := compensation.RevenueRecord{
		ID:            strings.TrimSpace(rj.ID),
		Item:          strings.TrimSpace(rj.Item),
		Amount:        rj.Amount,
		StudentName:   strings.TrimSpace(rj.StudentName),
		PaymentMethod: strings.TrimSpace(rj.PaymentMethod),
		TeacherName:   strings.TrimSpace(rj.TeacherName),
		Closer:        strings.TrimSpace(rj.Closer),
		Setter:        strings.TrimSpace(rj.Setter),
	}

	if rj.Date != "" {
		d, err := generic.ParseDate(strings.TrimSpace(rj.Date))
		if err != nil {
			return compensation.RevenueRecord{}, generic.NewEngineError(generic.KindInvalidAdjustment, "date", "%v", err)
		}
		r.Date = d
	}
	if r.ID == "" {
		r.ID = f.newID()
	}

	if err := compensation.ValidateRevenueRecord(r); err != nil {
		return compensation.RevenueRecord{}, err
	}
	return r, nil
}

func (f *EmployeeFactory) newID() string {
	if f.NewID == nil {
		return uuid.NewString()
	}
	return f.NewID()
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseRoleType normalizes case and spacing. Unknown values pass through so
// validation can report them.
func parseRoleType(s string) compensation.RoleType {
	return compensation.RoleType(strings.ToLower(strings.TrimSpace(s)))
}

func parseEmploymentType(s string) compensation.EmploymentType {
	normalized := strings.ToLower(strings.TrimSpace(s))
	switch normalized {
	case "full-time", "fulltime":
		return compensation.FullTime
	case "part-time", "parttime":
		return compensation.PartTime
	default:
		return compensation.EmploymentType(normalized)
	}
}
