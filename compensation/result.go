package compensation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/performance"
)

// =============================================================================
// LINE ITEMS
// =============================================================================

// LineItemKey names one row of the itemized result.
type LineItemKey string

const (
	ItemBaseAmount             LineItemKey = "base_amount"
	ItemCommission             LineItemKey = "commission"
	ItemOtherBonus             LineItemKey = "other_bonus"
	ItemPerformanceSystemBonus LineItemKey = "performance_system_bonus"
	ItemManualBonus            LineItemKey = "manual_bonus"
	ItemLeaveDeduction         LineItemKey = "leave_deduction"
	ItemSubtotal               LineItemKey = "subtotal_before_deductions"
	ItemLaborInsurance         LineItemKey = "labor_insurance"
	ItemHealthInsurance        LineItemKey = "health_insurance"
	ItemRetirementFund         LineItemKey = "retirement_fund"
	ItemServiceFee             LineItemKey = "service_fee"
	ItemStatutoryTotal         LineItemKey = "statutory_deductions_total"
	ItemTotalSalary            LineItemKey = "total_salary"
)

// Labels are the column headings payroll staff read on the salary sheet.
var Labels = map[LineItemKey]string{
	ItemBaseAmount:             "基本薪資",
	ItemCommission:             "業績抽成",
	ItemOtherBonus:             "其他業務獎金",
	ItemPerformanceSystemBonus: "績效制度獎金",
	ItemManualBonus:            "電訪績效與績效獎金",
	ItemLeaveDeduction:         "請假扣款",
	ItemSubtotal:               "未加保薪資",
	ItemLaborInsurance:         "勞保",
	ItemHealthInsurance:        "健保",
	ItemRetirementFund:         "勞退",
	ItemServiceFee:             "服務費",
	ItemStatutoryTotal:         "法定扣款合計",
	ItemTotalSalary:            "實領薪資",
}

// LineItem is one auditable row: amount, provenance and the rule applied.
// Deductions carry negative amounts so that items sum left to right.
type LineItem struct {
	Key    LineItemKey     `json:"key"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
	Source generic.Source  `json:"source"`
	Rule   string          `json:"rule"`
}

// =============================================================================
// RESULT
// =============================================================================

// StatutoryDeductions echoes the configured withholdings and their sum.
type StatutoryDeductions struct {
	LaborInsurance  decimal.Decimal `json:"labor_insurance"`
	HealthInsurance decimal.Decimal `json:"health_insurance"`
	RetirementFund  decimal.Decimal `json:"retirement_fund"`
	ServiceFee      decimal.Decimal `json:"service_fee"`
	Total           decimal.Decimal `json:"total"`
}

// TracedAmount is a line-item amount with its provenance.
type TracedAmount = generic.Override[decimal.Decimal]

// Result is the engine's only output.
//
// It carries no identifier and no timestamp: identical inputs produce an
// identical Result. Save actions assign those.
type Result struct {
	// Inputs, echoed
	Employee    EmployeeConfig     `json:"employee"`
	Period      generic.Period     `json:"period"`
	Performance *performance.Input `json:"performance_input,omitempty"`
	Adjustments ManualAdjustments  `json:"manual_adjustments"`

	// Components
	Attribution Attribution         `json:"attribution"`
	Bonus       performance.Outcome `json:"performance"`

	// Line items, in assembly order
	BaseAmount              TracedAmount    `json:"base_amount"`
	EffectiveCommissionRate decimal.Decimal `json:"effective_commission_rate"`
	DeductionApplied        bool            `json:"commission_deduction_applied"`
	Commission              TracedAmount    `json:"commission"`
	OtherBonus              TracedAmount    `json:"other_bonus"`
	PerformanceSystemBonus  TracedAmount    `json:"performance_system_bonus"`
	ManualBonus             TracedAmount    `json:"manual_bonus"`
	LeaveDeduction          TracedAmount    `json:"leave_deduction"`

	SubtotalBeforeDeductions decimal.Decimal     `json:"subtotal_before_deductions"`
	Statutory                StatutoryDeductions `json:"statutory_deductions"`
	TotalSalary              decimal.Decimal     `json:"total_salary"`

	Items    []LineItem `json:"items"`
	Warnings []string   `json:"warnings"`
}

// Item looks up a line item by key.
func (r *Result) Item(key LineItemKey) (LineItem, bool) {
	for _, it := range r.Items {
		if it.Key == key {
			return it, true
		}
	}
	return LineItem{}, false
}

// ManualItems lists the keys whose values a person supplied or replaced.
func (r *Result) ManualItems() []LineItemKey {
	var keys []LineItemKey
	for _, it := range r.Items {
		if it.Source == generic.SourceManual {
			keys = append(keys, it.Key)
		}
	}
	return keys
}
