/*
Package performance evaluates the performance-bonus schedule for one pay period.

PURPOSE:
  Turns a manually entered performance score (1..10) and the count of
  consecutive full-score periods into a bonus amount, a commission-rate
  penalty and an interview flag. It is a pure lookup over two tables; the
  streak count is supplied by the caller, never looked up here.

SCORE BANDS (inclusive):
  8-10: bonus 2000, no deduction
  7:    bonus 1000, no deduction
  6:    no bonus, no deduction, interview required
  3-5:  no bonus, commission rate reduced by 1 point
  1-2:  no bonus, commission rate reduced by 2 points

STREAK BONUS (added on top of the band bonus):
  0 periods: 0
  1 period:  500
  2 periods: 1000
  3+:        2000

ELIGIBILITY:
  Employees without has_performance_bonus get a zero Outcome and their
  inputs are not validated.

SEE ALSO:
  - compensation/assembler.go: applies BaseBonus+ConsecutiveBonus and the deduction rate
*/
package performance

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

const (
	MinScore = 1
	MaxScore = 10

	// FullScore is the score that extends a streak.
	FullScore = MaxScore
)

// =============================================================================
// INPUT / OUTCOME
// =============================================================================

// Input is the per-period performance entry.
type Input struct {
	// Score is nil when no score has been entered for the period.
	Score *int `json:"performance_score,omitempty"`

	// ConsecutiveFullScoreCount counts the immediately preceding periods,
	// including the current one, scored exactly 10.
	ConsecutiveFullScoreCount int `json:"consecutive_full_score_count"`
}

// Outcome is what the evaluator hands to the assembler.
type Outcome struct {
	Eligible                bool            `json:"eligible"`
	Band                    string          `json:"band,omitempty"`
	BaseBonus               decimal.Decimal `json:"base_performance_bonus"`
	ConsecutiveBonus        decimal.Decimal `json:"consecutive_bonus"`
	TotalBonus              decimal.Decimal `json:"total_performance_bonus"`
	CommissionDeductionRate decimal.Decimal `json:"commission_deduction_rate"`
	RequiresInterview       bool            `json:"requires_interview"`
}

func zeroOutcome() Outcome {
	return Outcome{
		BaseBonus:               decimal.Zero,
		ConsecutiveBonus:        decimal.Zero,
		TotalBonus:              decimal.Zero,
		CommissionDeductionRate: decimal.Zero,
	}
}

// =============================================================================
// SCHEDULE
// =============================================================================

// Band is a contiguous range of scores sharing one outcome.
type Band struct {
	Name                    string
	MinScore                int
	MaxScore                int
	BaseBonus               decimal.Decimal
	CommissionDeductionRate decimal.Decimal // percent points
	RequiresInterview       bool
}

func (b Band) contains(score int) bool { return score >= b.MinScore && score <= b.MaxScore }

// StreakTier grants Bonus once the streak reaches MinCount.
type StreakTier struct {
	MinCount int
	Bonus    decimal.Decimal
}

// Schedule bundles the band table with the streak table.
type Schedule struct {
	Bands  []Band
	Streak []StreakTier // ordered by MinCount descending
}

// Standard is the schedule in use by the business.
var Standard = Schedule{
	Bands: []Band{
		{Name: "8-10", MinScore: 8, MaxScore: 10, BaseBonus: generic.NewMoney(2000), CommissionDeductionRate: decimal.Zero},
		{Name: "7", MinScore: 7, MaxScore: 7, BaseBonus: generic.NewMoney(1000), CommissionDeductionRate: decimal.Zero},
		{Name: "6", MinScore: 6, MaxScore: 6, BaseBonus: decimal.Zero, CommissionDeductionRate: decimal.Zero, RequiresInterview: true},
		{Name: "3-5", MinScore: 3, MaxScore: 5, BaseBonus: decimal.Zero, CommissionDeductionRate: decimal.NewFromInt(1)},
		{Name: "1-2", MinScore: 1, MaxScore: 2, BaseBonus: decimal.Zero, CommissionDeductionRate: decimal.NewFromInt(2)},
	},
	Streak: []StreakTier{
		{MinCount: 3, Bonus: generic.NewMoney(2000)},
		{MinCount: 2, Bonus: generic.NewMoney(1000)},
		{MinCount: 1, Bonus: generic.NewMoney(500)},
		{MinCount: 0, Bonus: decimal.Zero},
	},
}

// Validate checks that every score in MinScore..MaxScore falls in exactly one
// band and that the streak table covers a zero count.
func (s Schedule) Validate() error {
	for score := MinScore; score <= MaxScore; score++ {
		matches := 0
		for _, b := range s.Bands {
			if b.contains(score) {
				matches++
			}
		}
		if matches != 1 {
			return fmt.Errorf("score %d matches %d bands", score, matches)
		}
	}
	if _, err := s.StreakBonus(0); err != nil {
		return err
	}
	return nil
}

// BandFor returns the band holding score.
func (s Schedule) BandFor(score int) (Band, error) {
	if score < MinScore || score > MaxScore {
		return Band{}, generic.NewEngineError(generic.KindInvalidPerformanceScore, "performance_score",
			"score %d is outside %d..%d", score, MinScore, MaxScore)
	}
	for _, b := range s.Bands {
		if b.contains(score) {
			return b, nil
		}
	}
	return Band{}, generic.NewEngineError(generic.KindInvalidPerformanceScore, "performance_score",
		"no band defined for score %d", score)
}

// StreakBonus returns the bonus for a run of count full-score periods.
func (s Schedule) StreakBonus(count int) (decimal.Decimal, error) {
	if count < 0 {
		return decimal.Zero, generic.NewEngineError(generic.KindInvalidPerformanceScore,
			"consecutive_full_score_count", "streak count %d is negative", count)
	}
	for _, tier := range s.Streak {
		if count >= tier.MinCount {
			return tier.Bonus, nil
		}
	}
	return decimal.Zero, generic.NewEngineError(generic.KindInvalidPerformanceScore,
		"consecutive_full_score_count", "no streak tier for count %d", count)
}

// ValidateInput reports the first problem with in for an eligible employee.
func (s Schedule) ValidateInput(in Input, eligible bool) error {
	if !eligible {
		return nil
	}
	if in.Score == nil {
		return generic.NewEngineError(generic.KindInvalidPerformanceScore, "performance_score",
			"score is required for employees with a performance bonus")
	}
	if _, err := s.BandFor(*in.Score); err != nil {
		return err
	}
	_, err := s.StreakBonus(in.ConsecutiveFullScoreCount)
	return err
}

// Evaluate produces the period's outcome. Ineligible employees get zeros.
func (s Schedule) Evaluate(in Input, eligible bool) (Outcome, error) {
	if !eligible {
		return zeroOutcome(), nil
	}
	if err := s.ValidateInput(in, eligible); err != nil {
		return Outcome{}, err
	}

	band, _ := s.BandFor(*in.Score)
	streak, _ := s.StreakBonus(in.ConsecutiveFullScoreCount)

	return Outcome{
		Eligible:                true,
		Band:                    band.Name,
		BaseBonus:               band.BaseBonus,
		ConsecutiveBonus:        streak,
		TotalBonus:              band.BaseBonus.Add(streak),
		CommissionDeductionRate: band.CommissionDeductionRate,
		RequiresInterview:       band.RequiresInterview,
	}, nil
}

// Evaluate runs the Standard schedule.
func Evaluate(in Input, eligible bool) (Outcome, error) {
	return Standard.Evaluate(in, eligible)
}

// ScorePtr is a convenience for building Inputs.
func ScorePtr(score int) *int { return &score }
