/*
providers.go - Read-only collaborators the Calculator depends on

PURPOSE:
  The engine never reaches into a database. Configuration, ledger rows and
  score history arrive through these interfaces, so the same Calculator runs
  against SQLite in the server and against in-memory fakes in tests.

KEY INTERFACES:
  ConfigProvider: employee settings by name
  RevenueLedger:  candidate revenue rows for a role and date range
  ScoreHistory:   consecutive full-score count as of a period
  ResultStore:    save actions (outside the engine proper)

IMPLEMENTATIONS:
  - compensation/store/memory.go: in-memory, for tests and demos
  - store/sqlite/sqlite.go: persistent

SEE ALSO:
  - calculator.go: the only consumer of the read interfaces
*/
package compensation

import (
	"context"
	"sort"
	"time"

	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/performance"
)

// =============================================================================
// READ INTERFACES
// =============================================================================

// ConfigProvider returns generic.ErrEmployeeNotConfigured (wrapped or as an
// EngineError) when name has no configuration.
type ConfigProvider interface {
	GetEmployeeConfig(ctx context.Context, name string) (*EmployeeConfig, error)
}

// RevenueLedger returns candidate rows whose role field names the employee
// and whose date is within [start, end]. The engine re-applies both filters.
type RevenueLedger interface {
	GetRevenueRecords(ctx context.Context, name string, role RoleType, start, end generic.Date) ([]RevenueRecord, error)
}

// ScoreHistory reports how many consecutive periods ending at asOf scored 10.
// GetPriorFullScoreCount is the run ending directly before period, with any
// score already recorded for period itself left out.
type ScoreHistory interface {
	GetConsecutiveFullScoreCount(ctx context.Context, name string, asOf generic.Period) (int, error)
	GetPriorFullScoreCount(ctx context.Context, name string, period generic.Period) (int, error)
}

// =============================================================================
// SCORE HISTORY HELPERS
// =============================================================================

// ScoreEntry is one recorded performance score.
type ScoreEntry struct {
	EmployeeName string         `json:"employee_name"`
	Period       generic.Period `json:"period"`
	Score        int            `json:"score"`
}

// CountFullScoreStreak counts entries scoring 10 in an unbroken chain of
// adjacent periods ending at asOf. asOf itself counts when recorded; when it
// is not, the chain must end at the period directly before it. Entry order
// does not matter.
func CountFullScoreStreak(entries []ScoreEntry, asOf generic.Period) int {
	sorted := make([]ScoreEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Period.Start.After(sorted[j].Period.Start)
	})

	count := 0
	cursor := asOf
	for _, e := range sorted {
		if e.Period.Start.After(asOf.Start) {
			continue
		}
		if !e.Period.Equal(cursor) && !cursor.Follows(e.Period) {
			break
		}
		if e.Score != performance.FullScore {
			break
		}
		count++
		cursor = e.Period
	}
	return count
}

// CountPriorFullScoreStreak is CountFullScoreStreak without the entry for
// asOf, so only the chain ending at the period directly before it counts.
func CountPriorFullScoreStreak(entries []ScoreEntry, asOf generic.Period) int {
	prior := make([]ScoreEntry, 0, len(entries))
	for _, e := range entries {
		if !e.Period.Equal(asOf) {
			prior = append(prior, e)
		}
	}
	return CountFullScoreStreak(prior, asOf)
}

// StreakWithCurrent extends a prior run with the current period's score.
// Anything below 10 resets the streak to zero.
func StreakWithCurrent(prior, score int) int {
	if score != performance.FullScore {
		return 0
	}
	return prior + 1
}

// =============================================================================
// SAVED RESULTS
// =============================================================================

// SavedResult is a Result persisted by a save action. The identifier and
// timestamp belong here, not to the Result.
type SavedResult struct {
	ID           string         `json:"id"`
	EmployeeName string         `json:"employee_name"`
	Period       generic.Period `json:"period"`
	SavedAt      time.Time      `json:"saved_at"`
	Result       *Result        `json:"result"`
}

// ResultStore persists results. GetResult returns generic.ErrResultNotFound
// for an unknown id.
type ResultStore interface {
	SaveResult(ctx context.Context, result *Result) (*SavedResult, error)
	GetResult(ctx context.Context, id string) (*SavedResult, error)
	ListResults(ctx context.Context, name string) ([]SavedResult, error)
}
