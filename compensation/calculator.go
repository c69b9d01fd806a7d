package compensation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/performance"
)

// =============================================================================
// CALCULATOR - the calculate_compensation entry point
// =============================================================================

// Calculator fetches everything a calculation needs through the providers
// and hands it to the Assembler. It keeps no state between calls.
type Calculator struct {
	Configs   ConfigProvider
	Ledger    RevenueLedger
	Scores    ScoreHistory
	Assembler *Assembler
	Logger    *slog.Logger
}

// NewCalculator wires the providers with the standard schedule and the
// default logger.
func NewCalculator(configs ConfigProvider, ledger RevenueLedger, scores ScoreHistory) *Calculator {
	return &Calculator{
		Configs:   configs,
		Ledger:    ledger,
		Scores:    scores,
		Assembler: NewAssembler(),
		Logger:    slog.Default(),
	}
}

// CalculateCompensation computes the itemized salary of name for the period
// [start, end]. score is required when the employee has a performance bonus
// and ignored otherwise.
//
// The streak is the recorded run before the period plus the period itself
// when score is 10, whether or not score has been recorded yet.
//
// Validation errors are *generic.EngineError values; provider failures are
// wrapped and returned as is.
func (c *Calculator) CalculateCompensation(
	ctx context.Context,
	name string,
	start, end generic.Date,
	score *int,
	adj ManualAdjustments,
) (*Result, error) {
	period := generic.Period{Start: start, End: end}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	cfg, err := c.Configs.GetEmployeeConfig(ctx, name)
	if err != nil {
		if errors.Is(err, generic.ErrEmployeeNotConfigured) {
			return nil, err
		}
		return nil, fmt.Errorf("get employee config %q: %w", name, err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	perf := performance.Input{Score: score}
	if cfg.HasPerformanceBonus && score != nil {
		prior, err := c.Scores.GetPriorFullScoreCount(ctx, cfg.Name, period)
		if err != nil {
			return nil, fmt.Errorf("get full score streak for %q: %w", cfg.Name, err)
		}
		perf.ConsecutiveFullScoreCount = StreakWithCurrent(prior, *score)
	}

	records, err := c.Ledger.GetRevenueRecords(ctx, cfg.Name, cfg.RoleType, start, end)
	if err != nil {
		return nil, fmt.Errorf("get revenue records for %q: %w", cfg.Name, err)
	}

	result, err := c.assembler().Assemble(Input{
		Employee:    cfg,
		Period:      period,
		Records:     records,
		Performance: perf,
		Adjustments: adj,
	})
	if err != nil {
		return nil, err
	}

	c.logger().DebugContext(ctx, "compensation calculated",
		"employee", cfg.Name,
		"role", cfg.RoleType,
		"period", period.String(),
		"records", result.Attribution.RecordCount,
		"total_salary", result.TotalSalary.String(),
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func (c *Calculator) assembler() *Assembler {
	if c.Assembler == nil {
		return NewAssembler()
	}
	return c.Assembler
}

func (c *Calculator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
