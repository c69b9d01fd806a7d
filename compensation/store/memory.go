// Package store provides in-memory implementations of the compensation providers.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/payroll-engine/compensation"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ConfigProvider, RevenueLedger, ScoreHistory and
// ResultStore. Configs and rows are copied in and out.
type Memory struct {
	mu      sync.RWMutex
	configs map[string]compensation.EmployeeConfig
	records []compensation.RevenueRecord
	scores  map[string][]compensation.ScoreEntry
	results []compensation.SavedResult

	// Now stamps saved results. Defaults to time.Now.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		configs: make(map[string]compensation.EmployeeConfig),
		scores:  make(map[string][]compensation.ScoreEntry),
		Now:     time.Now,
	}
}

// =============================================================================
// EMPLOYEE CONFIG
// =============================================================================

func (m *Memory) SaveEmployeeConfig(_ context.Context, cfg compensation.EmployeeConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[cfg.Name] = cfg
	return nil
}

func (m *Memory) GetEmployeeConfig(_ context.Context, name string) (*compensation.EmployeeConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[name]
	if !ok {
		return nil, generic.NewEngineError(generic.KindEmployeeNotConfigured, "name", "%q has no configuration", name)
	}
	return &cfg, nil
}

func (m *Memory) ListEmployeeConfigs(_ context.Context) ([]compensation.EmployeeConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]compensation.EmployeeConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) DeleteEmployeeConfig(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.configs[name]; !ok {
		return generic.NewEngineError(generic.KindEmployeeNotConfigured, "name", "%q has no configuration", name)
	}
	delete(m.configs, name)
	return nil
}

// =============================================================================
// REVENUE LEDGER
// =============================================================================

// AppendRevenueRecords adds rows in order, atomically. Append-only.
func (m *Memory) AppendRevenueRecords(_ context.Context, records []compensation.RevenueRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all ids first (atomic check)
	seen := make(map[string]bool, len(m.records)+len(records))
	for _, r := range m.records {
		seen[r.ID] = true
	}
	batch := make([]compensation.RevenueRecord, len(records))
	for i, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if seen[r.ID] {
			return fmt.Errorf("revenue record %q: %w", r.ID, generic.ErrDuplicateRecord)
		}
		seen[r.ID] = true
		batch[i] = r
	}

	m.records = append(m.records, batch...)
	return nil
}

func (m *Memory) GetRevenueRecords(_ context.Context, name string, role compensation.RoleType, start, end generic.Date) ([]compensation.RevenueRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	period := generic.Period{Start: start, End: end}
	var result []compensation.RevenueRecord
	for _, r := range m.records {
		if r.NameFor(role) == name && period.Contains(r.Date) {
			result = append(result, r)
		}
	}
	return result, nil
}

// =============================================================================
// SCORE HISTORY
// =============================================================================

// RecordPerformanceScore stores score for the period, replacing any earlier
// score for the same period.
func (m *Memory) RecordPerformanceScore(_ context.Context, name string, period generic.Period, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.scores[name]
	for i := range entries {
		if entries[i].Period.Equal(period) {
			entries[i].Score = score
			return nil
		}
	}
	m.scores[name] = append(entries, compensation.ScoreEntry{EmployeeName: name, Period: period, Score: score})
	return nil
}

func (m *Memory) GetConsecutiveFullScoreCount(_ context.Context, name string, asOf generic.Period) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return compensation.CountFullScoreStreak(m.scores[name], asOf), nil
}

func (m *Memory) GetPriorFullScoreCount(_ context.Context, name string, period generic.Period) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return compensation.CountPriorFullScoreStreak(m.scores[name], period), nil
}

// =============================================================================
// RESULTS
// =============================================================================

func (m *Memory) SaveResult(_ context.Context, result *compensation.Result) (*compensation.SavedResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := compensation.SavedResult{
		ID:           uuid.NewString(),
		EmployeeName: result.Employee.Name,
		Period:       result.Period,
		SavedAt:      m.Now().UTC(),
		Result:       result,
	}
	m.results = append(m.results, saved)
	return &saved, nil
}

func (m *Memory) GetResult(_ context.Context, id string) (*compensation.SavedResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.results {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, fmt.Errorf("result %q: %w", id, generic.ErrResultNotFound)
}

// ListResults returns the saved results of name, newest first.
func (m *Memory) ListResults(_ context.Context, name string) ([]compensation.SavedResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []compensation.SavedResult
	for i := len(m.results) - 1; i >= 0; i-- {
		if m.results[i].EmployeeName == name {
			out = append(out, m.results[i])
		}
	}
	return out, nil
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configs = make(map[string]compensation.EmployeeConfig)
	m.scores = make(map[string][]compensation.ScoreEntry)
	m.records = nil
	m.results = nil
	return nil
}
