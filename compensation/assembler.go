/*
assembler.go - Composes the itemized salary

PURPOSE:
  Produces a Result from already-materialized inputs. The order below is
  fixed so that every run is reproducible and every line item traceable.

ASSEMBLY ORDER:
  1. Base amount
       full_time: base_salary + original_bonus × performance_percentage / 100
       part_time: hourly_rate × monthly_hours
  2. Role commission (on attributed revenue)
       teacher: total_revenue × max(0, commission_rate − deduction) / 100
       setter:  total_revenue × max(0, point_commission_rate − deduction) / 100
       closer:  hourly_work_hours × hourly_work_rate (deduction never applies)
  3. Other business bonus (manual)
  4. Performance-system bonus (band + streak)
  5. Manual bonuses: phone_performance_bonus + performance_bonus
  6. Leave deduction (manual, subtracted)
  7. Subtotal before statutory deductions = 1+2+3+4+5−6   ("未加保薪資")
  8. Statutory deductions: labor + health + retirement + service fee
  9. Total salary = 7 − 8, never clamped

OVERRIDES:
  ManualAdjustments.Overrides may replace items 1, 2 and 4 after they are
  computed. The Result keeps both values and marks the item manual. The
  subtotal is always summed from the final items.

WARNINGS (never errors):
  Zero attributed records, negative record amounts, interview required,
  deduction rate present on a closer, streak without a current full score,
  overridden items, negative total.
*/
package compensation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/performance"
)

// =============================================================================
// INPUT
// =============================================================================

// Input is everything one calculation needs, already fetched.
type Input struct {
	Employee    *EmployeeConfig
	Period      generic.Period
	Records     []RevenueRecord // candidate rows; attribution filters them
	Performance performance.Input
	Adjustments ManualAdjustments
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler holds the bonus schedule. It has no other state and is safe
// for concurrent use.
type Assembler struct {
	Schedule performance.Schedule
}

// NewAssembler returns an Assembler using the standard bonus schedule.
func NewAssembler() *Assembler {
	return &Assembler{Schedule: performance.Standard}
}

// Assemble runs with the standard schedule.
func Assemble(in Input) (*Result, error) {
	return NewAssembler().Assemble(in)
}

// Assemble validates in and composes the Result.
func (a *Assembler) Assemble(in Input) (*Result, error) {
	if err := Validate(in, a.Schedule); err != nil {
		return nil, err
	}

	cfg := *in.Employee
	adj := in.Adjustments.clone()
	warnings := make([]string, 0)

	// Attribution
	attribution := Resolve(cfg.Name, cfg.RoleType, in.Period, in.Records)
	if attribution.RecordCount == 0 {
		warnings = append(warnings, fmt.Sprintf("no %s revenue attributed to %q in %s",
			cfg.RoleType, cfg.Name, in.Period))
	}
	for _, r := range attribution.NegativeRecords() {
		warnings = append(warnings, fmt.Sprintf("negative amount %s on %s %q (student %q, record %q)",
			r.Amount, r.Date, r.Item, r.StudentName, r.ID))
	}

	// Performance
	outcome, err := a.Schedule.Evaluate(in.Performance, cfg.HasPerformanceBonus)
	if err != nil {
		return nil, err
	}
	if outcome.RequiresInterview {
		warnings = append(warnings, "performance score 6 requires an interview")
	}
	if outcome.Eligible && in.Performance.ConsecutiveFullScoreCount > 0 && *in.Performance.Score != performance.FullScore {
		warnings = append(warnings, fmt.Sprintf("streak count %d supplied but current score is %d",
			in.Performance.ConsecutiveFullScoreCount, *in.Performance.Score))
	}

	res := &Result{
		Employee:    cfg,
		Period:      in.Period,
		Adjustments: adj,
		Attribution: attribution,
		Bonus:       outcome,
	}
	if cfg.HasPerformanceBonus || in.Performance.Score != nil {
		res.Performance = clonePerformance(in.Performance)
	}

	// 1. Base
	base, baseRule := baseAmount(cfg, adj)
	res.BaseAmount = generic.Computed(base)

	// 2. Commission
	commission, commissionRule := a.roleCommission(cfg, adj, attribution.TotalRevenue, outcome, res)
	res.Commission = generic.Computed(commission)
	if cfg.RoleType == RoleCloser && outcome.CommissionDeductionRate.IsPositive() {
		warnings = append(warnings, fmt.Sprintf("commission deduction %s%% computed but not applied to closer",
			outcome.CommissionDeductionRate))
	}

	// 3-6. Bonuses and leave
	res.OtherBonus = manualAmount(adj.OtherBonus)
	res.PerformanceSystemBonus = generic.Computed(outcome.TotalBonus)
	res.ManualBonus = manualAmount(adj.PhonePerformanceBonus.Add(adj.PerformanceBonus))
	res.LeaveDeduction = manualAmount(adj.LeaveDeduction)

	for _, key := range sortedOverrideKeys(adj.Overrides) {
		value := adj.Overrides[key]
		var computed decimal.Decimal
		switch key {
		case ItemBaseAmount:
			computed = res.BaseAmount.Computed
			res.BaseAmount = res.BaseAmount.WithManual(value)
		case ItemCommission:
			computed = res.Commission.Computed
			res.Commission = res.Commission.WithManual(value)
		case ItemPerformanceSystemBonus:
			computed = res.PerformanceSystemBonus.Computed
			res.PerformanceSystemBonus = res.PerformanceSystemBonus.WithManual(value)
		}
		warnings = append(warnings, fmt.Sprintf("%s overridden: computed %s, manual %s", key, computed, value))
	}

	// 7. Subtotal
	res.SubtotalBeforeDeductions = generic.Sum(
		res.BaseAmount.Value,
		res.Commission.Value,
		res.OtherBonus.Value,
		res.PerformanceSystemBonus.Value,
		res.ManualBonus.Value,
	).Sub(res.LeaveDeduction.Value)

	// 8. Statutory
	res.Statutory = StatutoryDeductions{
		LaborInsurance:  cfg.LaborInsurance,
		HealthInsurance: cfg.HealthInsurance,
		RetirementFund:  cfg.RetirementFund,
		ServiceFee:      cfg.ServiceFee,
		Total:           cfg.StatutoryTotal(),
	}

	// 9. Total
	res.TotalSalary = res.SubtotalBeforeDeductions.Sub(res.Statutory.Total)
	if res.TotalSalary.IsNegative() {
		warnings = append(warnings, fmt.Sprintf("total salary is negative (%s); check statutory settings", res.TotalSalary))
	}

	res.Items = buildItems(res, baseRule, commissionRule)
	res.Warnings = warnings
	return res, nil
}

// =============================================================================
// COMPONENTS
// =============================================================================

func baseAmount(cfg EmployeeConfig, adj ManualAdjustments) (decimal.Decimal, string) {
	switch cfg.EmploymentType {
	case PartTime:
		return cfg.HourlyRate.Mul(adj.MonthlyHours),
			fmt.Sprintf("part_time: hourly_rate %s × monthly_hours %s", cfg.HourlyRate, adj.MonthlyHours)
	default:
		originalBonus := cfg.OriginalBonus
		if adj.OriginalBonus != nil {
			originalBonus = *adj.OriginalBonus
		}
		pct := adj.Percentage()
		return cfg.BaseSalary.Add(generic.PercentOf(originalBonus, pct)),
			fmt.Sprintf("full_time: base_salary %s + original_bonus %s × %s%%", cfg.BaseSalary, originalBonus, pct)
	}
}

// roleCommission computes step 2 and records the effective rate on res.
func (a *Assembler) roleCommission(cfg EmployeeConfig, adj ManualAdjustments, revenue decimal.Decimal, outcome performance.Outcome, res *Result) (decimal.Decimal, string) {
	deduction := outcome.CommissionDeductionRate

	switch cfg.RoleType {
	case RoleCloser:
		res.EffectiveCommissionRate = decimal.Zero
		return adj.HourlyWorkHours.Mul(cfg.HourlyWorkRate),
			fmt.Sprintf("closer: hourly_work_hours %s × hourly_work_rate %s", adj.HourlyWorkHours, cfg.HourlyWorkRate)
	case RoleSetter:
		rate := generic.FloorZero(cfg.PointCommissionRate.Sub(deduction))
		res.EffectiveCommissionRate = rate
		res.DeductionApplied = deduction.IsPositive()
		return generic.PercentOf(revenue, rate),
			fmt.Sprintf("setter: total_revenue %s × (point_commission_rate %s − deduction %s)%%", revenue, cfg.PointCommissionRate, deduction)
	default:
		rate := generic.FloorZero(cfg.CommissionRate.Sub(deduction))
		res.EffectiveCommissionRate = rate
		res.DeductionApplied = deduction.IsPositive()
		return generic.PercentOf(revenue, rate),
			fmt.Sprintf("teacher: total_revenue %s × (commission_rate %s − deduction %s)%%", revenue, cfg.CommissionRate, deduction)
	}
}

// manualAmount marks a purely manual input; zero means nothing was entered.
func manualAmount(v decimal.Decimal) TracedAmount {
	if v.IsZero() {
		return generic.Computed(decimal.Zero)
	}
	return generic.Manual(v)
}

func buildItems(res *Result, baseRule, commissionRule string) []LineItem {
	item := func(key LineItemKey, amount decimal.Decimal, source generic.Source, rule string) LineItem {
		return LineItem{Key: key, Label: Labels[key], Amount: amount, Source: source, Rule: rule}
	}
	traced := func(key LineItemKey, t TracedAmount, rule string) LineItem {
		return item(key, t.Value, t.Source, rule)
	}

	bonusRule := "not eligible"
	if res.Bonus.Eligible {
		bonusRule = fmt.Sprintf("band %s bonus %s + streak bonus %s", res.Bonus.Band, res.Bonus.BaseBonus, res.Bonus.ConsecutiveBonus)
	}

	return []LineItem{
		traced(ItemBaseAmount, res.BaseAmount, baseRule),
		traced(ItemCommission, res.Commission, commissionRule),
		traced(ItemOtherBonus, res.OtherBonus, "manual other_bonus"),
		traced(ItemPerformanceSystemBonus, res.PerformanceSystemBonus, bonusRule),
		traced(ItemManualBonus, res.ManualBonus, "manual phone_performance_bonus + performance_bonus"),
		item(ItemLeaveDeduction, res.LeaveDeduction.Value.Neg(), res.LeaveDeduction.Source, "manual leave_deduction"),
		item(ItemSubtotal, res.SubtotalBeforeDeductions, generic.SourceComputed,
			"base + commission + other + performance + manual − leave"),
		item(ItemLaborInsurance, res.Statutory.LaborInsurance.Neg(), generic.SourceComputed, "configured labor_insurance"),
		item(ItemHealthInsurance, res.Statutory.HealthInsurance.Neg(), generic.SourceComputed, "configured health_insurance"),
		item(ItemRetirementFund, res.Statutory.RetirementFund.Neg(), generic.SourceComputed, "configured retirement_fund"),
		item(ItemServiceFee, res.Statutory.ServiceFee.Neg(), generic.SourceComputed, "configured service_fee"),
		item(ItemStatutoryTotal, res.Statutory.Total.Neg(), generic.SourceComputed, "sum of statutory deductions"),
		item(ItemTotalSalary, res.TotalSalary, generic.SourceComputed, "subtotal − statutory deductions"),
	}
}

// =============================================================================
// COPIES - results never alias caller-owned pointers or maps
// =============================================================================

func (m ManualAdjustments) clone() ManualAdjustments {
	out := m
	if m.PerformancePercentage != nil {
		v := *m.PerformancePercentage
		out.PerformancePercentage = &v
	}
	if m.OriginalBonus != nil {
		v := *m.OriginalBonus
		out.OriginalBonus = &v
	}
	if m.Overrides != nil {
		out.Overrides = make(map[LineItemKey]decimal.Decimal, len(m.Overrides))
		for k, v := range m.Overrides {
			out.Overrides[k] = v
		}
	}
	return out
}

func clonePerformance(in performance.Input) *performance.Input {
	out := in
	if in.Score != nil {
		score := *in.Score
		out.Score = &score
	}
	return &out
}
