/*
Package sqlite provides a SQLite-backed implementation of the compensation providers.

PURPOSE:
  Implements every persistence interface the payroll server needs
  (ConfigProvider, RevenueLedger, ScoreHistory, ResultStore) using SQLite.
  The engine never sees this package; the Calculator reads through the
  interfaces and the API layer handles writes.

INTERFACES IMPLEMENTED:
  compensation.ConfigProvider: employee settings
  compensation.RevenueLedger:  normalized revenue rows
  compensation.ScoreHistory:   per-period performance scores
  compensation.ResultStore:    saved compensation results

KEY TABLES:
  employees:            one row per employee, settings as config_json
  revenue_records:      append-only ledger rows, dates as YYYY-MM-DD
  performance_scores:   one score per employee and period (upsert)
  compensation_results: saved results, result_json as calculated

AMOUNTS:
  Money is stored as decimal TEXT, never REAL, so values round-trip
  exactly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to a
  single connection so every query sees the same database.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  calc := compensation.NewCalculator(store, store, store)

SEE ALSO:
  - compensation/providers.go: Interface definitions
  - compensation/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/compensation"
	"github.com/warp/payroll-engine/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// Now stamps writes. Defaults to time.Now.
	Now func() time.Time
}

var (
	_ compensation.ConfigProvider = (*Store)(nil)
	_ compensation.RevenueLedger  = (*Store)(nil)
	_ compensation.ScoreHistory   = (*Store)(nil)
	_ compensation.ResultStore    = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, Now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employee settings
	CREATE TABLE IF NOT EXISTS employees (
		name TEXT PRIMARY KEY,
		role_type TEXT NOT NULL,
		employment_type TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Revenue ledger (append-only)
	CREATE TABLE IF NOT EXISTS revenue_records (
		id TEXT PRIMARY KEY,
		record_date TEXT NOT NULL,
		item TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		student_name TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT '',
		teacher_name TEXT,
		closer TEXT,
		setter TEXT,
		seq INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	-- One index per role field: attribution queries filter on exactly one
	CREATE INDEX IF NOT EXISTS idx_revenue_teacher_date
		ON revenue_records(teacher_name, record_date) WHERE teacher_name IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_revenue_closer_date
		ON revenue_records(closer, record_date) WHERE closer IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_revenue_setter_date
		ON revenue_records(setter, record_date) WHERE setter IS NOT NULL;

	-- Performance scores, one per employee and period
	CREATE TABLE IF NOT EXISTS performance_scores (
		employee_name TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		score INTEGER NOT NULL CHECK (score BETWEEN 1 AND 10),
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (employee_name, period_start, period_end)
	);

	-- Saved results
	CREATE TABLE IF NOT EXISTS compensation_results (
		id TEXT PRIMARY KEY,
		employee_name TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		total_salary TEXT NOT NULL,
		result_json TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_employee
		ON compensation_results(employee_name, saved_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE CONFIG (compensation.ConfigProvider)
// =============================================================================

// SaveEmployeeConfig inserts or replaces the settings for cfg.Name.
func (s *Store) SaveEmployeeConfig(ctx context.Context, cfg compensation.EmployeeConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	query := `
		INSERT INTO employees (name, role_type, employment_type, config_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			role_type = excluded.role_type,
			employment_type = excluded.employment_type,
			config_json = excluded.config_json,
			updated_at = excluded.updated_at
	`

	now := s.now()
	_, err = s.db.ExecContext(ctx, query,
		cfg.Name, cfg.RoleType, cfg.EmploymentType, string(configJSON), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %q: %w", cfg.Name, err)
	}
	return nil
}

// GetEmployeeConfig retrieves the settings for name.
func (s *Store) GetEmployeeConfig(ctx context.Context, name string) (*compensation.EmployeeConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var configJSON string
	err := s.db.QueryRowContext(ctx,
		"SELECT config_json FROM employees WHERE name = ?", name,
	).Scan(&configJSON)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notConfigured(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee %q: %w", name, err)
	}

	var cfg compensation.EmployeeConfig
	if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode employee %q: %w", name, err)
	}
	return &cfg, nil
}

// ListEmployeeConfigs returns all employees ordered by name.
func (s *Store) ListEmployeeConfigs(ctx context.Context) ([]compensation.EmployeeConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT config_json FROM employees ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []compensation.EmployeeConfig
	for rows.Next() {
		var configJSON string
		if err := rows.Scan(&configJSON); err != nil {
			return nil, err
		}
		var cfg compensation.EmployeeConfig
		if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
			return nil, fmt.Errorf("failed to decode employee: %w", err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// DeleteEmployeeConfig removes the settings for name. Revenue, scores and
// saved results are kept.
func (s *Store) DeleteEmployeeConfig(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE name = ?", name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notConfigured(name)
	}
	return nil
}

func notConfigured(name string) error {
	return generic.NewEngineError(generic.KindEmployeeNotConfigured, "name", "%q has no configuration", name)
}

// =============================================================================
// REVENUE LEDGER (compensation.RevenueLedger)
// =============================================================================

// AppendRevenueRecords adds rows atomically. A row whose id already exists
// fails the whole batch with generic.ErrDuplicateRecord.
func (s *Store) AppendRevenueRecords(ctx context.Context, records []compensation.RevenueRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	var seq int64
	if err := sqlTx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM revenue_records").Scan(&seq); err != nil {
		return fmt.Errorf("failed to read sequence: %w", err)
	}

	query := `
		INSERT INTO revenue_records
		(id, record_date, item, amount, student_name, payment_method,
		 teacher_name, closer, setter, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := s.now()
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = uuid.NewString()
		}
		seq++
		_, err := sqlTx.ExecContext(ctx, query,
			id,
			r.Date.String(),
			r.Item,
			r.Amount.String(),
			r.StudentName,
			r.PaymentMethod,
			nullString(r.TeacherName),
			nullString(r.Closer),
			nullString(r.Setter),
			seq,
			now,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("revenue record %q: %w", id, generic.ErrDuplicateRecord)
			}
			return fmt.Errorf("failed to append revenue record: %w", err)
		}
	}

	return sqlTx.Commit()
}

// GetRevenueRecords returns rows whose role field equals name and whose date
// is in [start, end], in import order.
func (s *Store) GetRevenueRecords(ctx context.Context, name string, role compensation.RoleType, start, end generic.Date) ([]compensation.RevenueRecord, error) {
	column, ok := roleColumns[role]
	if !ok {
		return nil, notConfigured(name)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, record_date, item, amount, student_name, payment_method,
		       teacher_name, closer, setter
		FROM revenue_records
		WHERE ` + column + ` = ? AND record_date >= ? AND record_date <= ?
		ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, name, start.String(), end.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query revenue records: %w", err)
	}
	defer rows.Close()

	var records []compensation.RevenueRecord
	for rows.Next() {
		r, err := scanRevenueRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// roleColumns maps a role to its attribution column. Only these literals
// are ever spliced into SQL.
var roleColumns = map[compensation.RoleType]string{
	compensation.RoleTeacher: "teacher_name",
	compensation.RoleCloser:  "closer",
	compensation.RoleSetter:  "setter",
}

func scanRevenueRecord(rows *sql.Rows) (compensation.RevenueRecord, error) {
	var (
		r                       compensation.RevenueRecord
		date, amount            string
		teacher, closer, setter sql.NullString
	)
	if err := rows.Scan(&r.ID, &date, &r.Item, &amount, &r.StudentName, &r.PaymentMethod,
		&teacher, &closer, &setter); err != nil {
		return compensation.RevenueRecord{}, err
	}

	d, err := generic.ParseDate(date)
	if err != nil {
		return compensation.RevenueRecord{}, fmt.Errorf("revenue record %q: %w", r.ID, err)
	}
	r.Date = d
	r.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return compensation.RevenueRecord{}, fmt.Errorf("revenue record %q amount: %w", r.ID, err)
	}
	r.TeacherName = teacher.String
	r.Closer = closer.String
	r.Setter = setter.String
	return r, nil
}

// =============================================================================
// SCORE HISTORY (compensation.ScoreHistory)
// =============================================================================

// RecordPerformanceScore stores score for the period, replacing any earlier
// score for the same period.
func (s *Store) RecordPerformanceScore(ctx context.Context, name string, period generic.Period, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO performance_scores (employee_name, period_start, period_end, score, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(employee_name, period_start, period_end) DO UPDATE SET
			score = excluded.score,
			recorded_at = excluded.recorded_at
	`

	_, err := s.db.ExecContext(ctx, query,
		name, period.Start.String(), period.End.String(), score, s.now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record score for %q: %w", name, err)
	}
	return nil
}

// ScoreHistory returns every recorded score of name, newest first.
func (s *Store) ScoreHistory(ctx context.Context, name string) ([]compensation.ScoreEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadScores(ctx, name, "")
}

// GetConsecutiveFullScoreCount counts the unbroken run of 10s ending at asOf.
func (s *Store) GetConsecutiveFullScoreCount(ctx context.Context, name string, asOf generic.Period) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.loadScores(ctx, name, asOf.Start.String())
	if err != nil {
		return 0, err
	}
	return compensation.CountFullScoreStreak(entries, asOf), nil
}

// GetPriorFullScoreCount counts the run of 10s ending directly before period.
func (s *Store) GetPriorFullScoreCount(ctx context.Context, name string, period generic.Period) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := s.loadScores(ctx, name, period.Start.String())
	if err != nil {
		return 0, err
	}
	return compensation.CountPriorFullScoreStreak(entries, period), nil
}

func (s *Store) loadScores(ctx context.Context, name, notAfter string) ([]compensation.ScoreEntry, error) {
	query := `
		SELECT period_start, period_end, score
		FROM performance_scores
		WHERE employee_name = ?`
	args := []any{name}
	if notAfter != "" {
		query += " AND period_start <= ?"
		args = append(args, notAfter)
	}
	query += " ORDER BY period_start DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var entries []compensation.ScoreEntry
	for rows.Next() {
		var start, end string
		e := compensation.ScoreEntry{EmployeeName: name}
		if err := rows.Scan(&start, &end, &e.Score); err != nil {
			return nil, err
		}
		if e.Period, err = parsePeriod(start, end); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// RESULTS (compensation.ResultStore)
// =============================================================================

// SaveResult persists result under a new id.
func (s *Store) SaveResult(ctx context.Context, result *compensation.Result) (*compensation.SavedResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	saved := &compensation.SavedResult{
		ID:           uuid.NewString(),
		EmployeeName: result.Employee.Name,
		Period:       result.Period,
		SavedAt:      s.clock().UTC().Truncate(time.Second),
		Result:       result,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO compensation_results
		(id, employee_name, period_start, period_end, total_salary, result_json, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		saved.ID,
		saved.EmployeeName,
		saved.Period.Start.String(),
		saved.Period.End.String(),
		result.TotalSalary.String(),
		string(resultJSON),
		saved.SavedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}
	return saved, nil
}

// GetResult retrieves a saved result by id.
func (s *Store) GetResult(ctx context.Context, id string) (*compensation.SavedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_name, period_start, period_end, result_json, saved_at
		FROM compensation_results WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("result %q: %w", id, generic.ErrResultNotFound)
	}
	saved, err := scanSavedResult(rows)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListResults returns the saved results of name, newest first.
func (s *Store) ListResults(ctx context.Context, name string) ([]compensation.SavedResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_name, period_start, period_end, result_json, saved_at
		FROM compensation_results
		WHERE employee_name = ?
		ORDER BY saved_at DESC, rowid DESC`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []compensation.SavedResult
	for rows.Next() {
		saved, err := scanSavedResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, rows.Err()
}

func scanSavedResult(rows *sql.Rows) (compensation.SavedResult, error) {
	var (
		saved                  compensation.SavedResult
		start, end, resultJSON string
		savedAt                string
	)
	if err := rows.Scan(&saved.ID, &saved.EmployeeName, &start, &end, &resultJSON, &savedAt); err != nil {
		return compensation.SavedResult{}, err
	}

	var err error
	if saved.Period, err = parsePeriod(start, end); err != nil {
		return compensation.SavedResult{}, err
	}
	if saved.SavedAt, err = time.Parse(time.RFC3339, savedAt); err != nil {
		return compensation.SavedResult{}, fmt.Errorf("failed to parse saved_at of result %q: %w", saved.ID, err)
	}

	saved.Result = &compensation.Result{}
	if err := json.Unmarshal([]byte(resultJSON), saved.Result); err != nil {
		return compensation.SavedResult{}, fmt.Errorf("failed to decode result %q: %w", saved.ID, err)
	}
	return saved, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"compensation_results", "performance_scores", "revenue_records", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) clock() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Store) now() string {
	return s.clock().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parsePeriod(start, end string) (generic.Period, error) {
	s, err := generic.ParseDate(start)
	if err != nil {
		return generic.Period{}, err
	}
	e, err := generic.ParseDate(end)
	if err != nil {
		return generic.Period{}, err
	}
	return generic.Period{Start: s, End: e}, nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
