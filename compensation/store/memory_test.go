package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/compensation"
	"github.com/warp/payroll-engine/compensation/store"
	"github.com/warp/payroll-engine/generic"
)

func TestMemory_RevenueFilteredByRoleAndDate(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.AppendRevenueRecords(ctx, []compensation.RevenueRecord{
		{ID: "a", Date: generic.NewDate(2025, time.March, 3), Amount: decimal.NewFromInt(100), TeacherName: "Karen"},
		{ID: "b", Date: generic.NewDate(2025, time.April, 3), Amount: decimal.NewFromInt(200), TeacherName: "Karen"},
		{ID: "c", Date: generic.NewDate(2025, time.March, 9), Amount: decimal.NewFromInt(300), Setter: "Karen"},
	}))

	march := generic.MonthPeriod(2025, time.March)
	records, err := m.GetRevenueRecords(ctx, "Karen", compensation.RoleTeacher, march.Start, march.End)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "a", records[0].ID)
}

func TestMemory_DuplicateRecordRejectsBatch(t *testing.T) {
	// GIVEN: Row "a" already imported
	// WHEN: Importing a batch containing "b" and "a" again
	// THEN: Nothing from the batch is stored

	m := store.NewMemory()
	ctx := context.Background()
	d := generic.NewDate(2025, time.March, 3)

	require.NoError(t, m.AppendRevenueRecords(ctx, []compensation.RevenueRecord{{ID: "a", Date: d, TeacherName: "Karen"}}))

	err := m.AppendRevenueRecords(ctx, []compensation.RevenueRecord{
		{ID: "b", Date: d, TeacherName: "Karen"},
		{ID: "a", Date: d, TeacherName: "Karen"},
	})
	assert.ErrorIs(t, err, generic.ErrDuplicateRecord)

	records, err := m.GetRevenueRecords(ctx, "Karen", compensation.RoleTeacher, d, d)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMemory_ScoreUpsertAndStreak(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	feb := generic.MonthPeriod(2025, time.February)
	mar := generic.MonthPeriod(2025, time.March)

	require.NoError(t, m.RecordPerformanceScore(ctx, "Karen", feb, 10))
	require.NoError(t, m.RecordPerformanceScore(ctx, "Karen", mar, 7))

	count, err := m.GetConsecutiveFullScoreCount(ctx, "Karen", mar)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Re-entering March replaces the 7
	require.NoError(t, m.RecordPerformanceScore(ctx, "Karen", mar, 10))
	count, err = m.GetConsecutiveFullScoreCount(ctx, "Karen", mar)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The prior run leaves March out
	prior, err := m.GetPriorFullScoreCount(ctx, "Karen", mar)
	require.NoError(t, err)
	assert.Equal(t, 1, prior)
}

func TestMemory_Results(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	m.Now = func() time.Time { return time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC) }

	first, err := m.SaveResult(ctx, &compensation.Result{Employee: compensation.EmployeeConfig{Name: "Karen"}})
	require.NoError(t, err)
	second, err := m.SaveResult(ctx, &compensation.Result{Employee: compensation.EmployeeConfig{Name: "Karen"}})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := m.GetResult(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Karen", got.EmployeeName)
	assert.Equal(t, m.Now(), got.SavedAt)

	list, err := m.ListResults(ctx, "Karen")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	_, err = m.GetResult(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrResultNotFound)
}
