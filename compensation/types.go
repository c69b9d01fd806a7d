/*
Package compensation computes an itemized salary for one employee and one pay period.

PURPOSE:
  Reconciles role-specific revenue attribution, the performance-bonus
  schedule, manual adjustments and statutory deductions into a single
  deterministic, auditable CompensationResult. The computation is pure:
  fetching configuration, ledger rows and score history happens in the
  Calculator through provider interfaces, never inside the Assembler.

KEY CONCEPTS IN THIS FILE (types.go):
  - RoleType: teacher | closer | setter (which revenue field credits the employee)
  - EmploymentType: full_time | part_time (salary vs hourly base pay)
  - EmployeeConfig: static HR settings, read-only to the engine
  - RevenueRecord: one normalized ledger row
  - ManualAdjustments: human inputs layered on top of computed values

DATA FLOW:
  ConfigProvider + RevenueLedger + ScoreHistory
        │
        ▼
  Resolve (attribution.go) → performance.Evaluate → Assembler (assembler.go)
        │
        ▼
  Result (result.go) → save / export / render (callers)

SEE ALSO:
  - generic/: money, dates, periods, overrides, errors
  - performance/: band and streak tables
  - factory/: JSON ingestion into these types
*/
package compensation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// ROLE / EMPLOYMENT
// =============================================================================

// RoleType decides which revenue field credits the employee and how
// commission is paid.
type RoleType string

const (
	RoleTeacher RoleType = "teacher"
	RoleCloser  RoleType = "closer"
	RoleSetter  RoleType = "setter"
)

func (r RoleType) Valid() bool {
	switch r {
	case RoleTeacher, RoleCloser, RoleSetter:
		return true
	}
	return false
}

// EmploymentType selects the base-pay model.
type EmploymentType string

const (
	FullTime EmploymentType = "full_time"
	PartTime EmploymentType = "part_time"
)

func (e EmploymentType) Valid() bool {
	return e == FullTime || e == PartTime
}

// =============================================================================
// EMPLOYEE CONFIG
// =============================================================================

// EmployeeConfig holds per-employee settings maintained by HR.
// Rates are in percent units (10 = 10%). Statutory amounts are fixed
// per-period withholdings taken verbatim.
type EmployeeConfig struct {
	Name           string         `json:"name"`
	RoleType       RoleType       `json:"role_type"`
	EmploymentType EmploymentType `json:"employment_type"`

	// Full-time pay
	BaseSalary    decimal.Decimal `json:"base_salary" validate:"gte=0"`
	OriginalBonus decimal.Decimal `json:"original_bonus" validate:"gte=0"`

	// Part-time pay
	HourlyRate decimal.Decimal `json:"hourly_rate" validate:"gte=0"`

	// Role pay
	CommissionRate      decimal.Decimal `json:"commission_rate" validate:"gte=0,lte=100"`
	PointCommissionRate decimal.Decimal `json:"point_commission_rate" validate:"gte=0,lte=100"`
	HourlyWorkRate      decimal.Decimal `json:"hourly_work_rate" validate:"gte=0"`

	HasPerformanceBonus bool `json:"has_performance_bonus"`

	// Statutory
	LaborInsurance  decimal.Decimal `json:"labor_insurance" validate:"gte=0"`
	HealthInsurance decimal.Decimal `json:"health_insurance" validate:"gte=0"`
	RetirementFund  decimal.Decimal `json:"retirement_fund" validate:"gte=0"`
	ServiceFee      decimal.Decimal `json:"service_fee" validate:"gte=0"`
}

// StatutoryTotal sums the four fixed withholdings.
func (c EmployeeConfig) StatutoryTotal() decimal.Decimal {
	return generic.Sum(c.LaborInsurance, c.HealthInsurance, c.RetirementFund, c.ServiceFee)
}

// =============================================================================
// REVENUE RECORD
// =============================================================================

// RevenueRecord is one normalized ledger row (a class, purchase or consultation).
// Only the name field matching the employee's role is used for attribution.
type RevenueRecord struct {
	ID            string          `json:"id,omitempty"`
	Date          generic.Date    `json:"date"`
	Item          string          `json:"item" validate:"max=200"`
	Amount        decimal.Decimal `json:"amount"`
	StudentName   string          `json:"student_name" validate:"max=100"`
	PaymentMethod string          `json:"payment_method" validate:"max=50"`

	TeacherName string `json:"teacher_name,omitempty" validate:"required_without_all=Closer Setter"`
	Closer      string `json:"closer,omitempty"`
	Setter      string `json:"setter,omitempty"`
}

// NameFor returns the role-specific name field ("" when absent).
func (r RevenueRecord) NameFor(role RoleType) string {
	switch role {
	case RoleTeacher:
		return r.TeacherName
	case RoleCloser:
		return r.Closer
	case RoleSetter:
		return r.Setter
	}
	return ""
}

// =============================================================================
// MANUAL ADJUSTMENTS
// =============================================================================

// ManualAdjustments are human-entered values. The engine incorporates them
// as given and never re-derives them.
type ManualAdjustments struct {
	// PerformancePercentage scales the original bonus; nil means 100.
	PerformancePercentage *decimal.Decimal `json:"performance_percentage,omitempty" validate:"omitempty,gte=0,lte=200"`

	// OriginalBonus replaces EmployeeConfig.OriginalBonus when set.
	OriginalBonus *decimal.Decimal `json:"original_bonus,omitempty" validate:"omitempty,gte=0"`

	OtherBonus            decimal.Decimal `json:"other_bonus"`
	PhonePerformanceBonus decimal.Decimal `json:"phone_performance_bonus"`
	PerformanceBonus      decimal.Decimal `json:"performance_bonus"`
	LeaveDeduction        decimal.Decimal `json:"leave_deduction" validate:"gte=0"`

	// MonthlyHours is the part-time hour count for the period.
	MonthlyHours decimal.Decimal `json:"monthly_hours" validate:"gte=0"`

	// HourlyWorkHours is the closer's consultation hour count.
	HourlyWorkHours decimal.Decimal `json:"hourly_work_hours" validate:"gte=0"`

	// Overrides replace computed line items. Allowed keys: base_amount,
	// commission, performance_system_bonus.
	Overrides map[LineItemKey]decimal.Decimal `json:"overrides,omitempty"`
}

var defaultPerformancePercentage = decimal.NewFromInt(100)

// Percentage returns PerformancePercentage or its default of 100.
func (m ManualAdjustments) Percentage() decimal.Decimal {
	if m.PerformancePercentage == nil {
		return defaultPerformancePercentage
	}
	return *m.PerformancePercentage
}
