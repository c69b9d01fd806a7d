package compensation

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// ATTRIBUTION - Which revenue credits this employee
// =============================================================================

// Attribution is the role-specific revenue total plus the rows behind it.
type Attribution struct {
	EmployeeName string          `json:"employee_name"`
	RoleType     RoleType        `json:"role_type"`
	Period       generic.Period  `json:"period"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Records      []RevenueRecord `json:"records"`
	RecordCount  int             `json:"record_count"`
}

// NegativeRecords returns the attributed rows with a negative amount (refunds).
func (a Attribution) NegativeRecords() []RevenueRecord {
	var out []RevenueRecord
	for _, r := range a.Records {
		if r.Amount.IsNegative() {
			out = append(out, r)
		}
	}
	return out
}

// Resolve selects the candidates credited to name under role within period.
//
// A record is attributable when its role field (teacher_name, closer or
// setter) equals name exactly, case-sensitive, and its date is inside the
// period. Input order is preserved. No attributable rows yields a zero total
// and an empty, non-nil list.
func Resolve(name string, role RoleType, period generic.Period, candidates []RevenueRecord) Attribution {
	records := make([]RevenueRecord, 0, len(candidates))
	total := decimal.Zero

	for _, r := range candidates {
		field := r.NameFor(role)
		if field == "" || field != name {
			continue
		}
		if !period.Contains(r.Date) {
			continue
		}
		records = append(records, r)
		total = total.Add(r.Amount)
	}

	return Attribution{
		EmployeeName: name,
		RoleType:     role,
		Period:       period,
		TotalRevenue: total,
		Records:      records,
		RecordCount:  len(records),
	}
}
