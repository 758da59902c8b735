package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"grantmigrate/models"
	"grantmigrate/testutil"
)

func TestScheduleGenerator_ActiveMonths(t *testing.T) {
	g := NewScheduleGenerator(DefaultMinOverlapDays)
	d := testutil.Date

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []YearMonth
	}{
		{"六天不足", d(2025, time.March, 1), d(2025, time.March, 6), nil},
		{"刚好七天", d(2025, time.March, 1), d(2025, time.March, 7), []YearMonth{{2025, time.March}}},
		{"跨月两端都满足", d(2025, time.November, 24), d(2025, time.December, 20),
			[]YearMonth{{2025, time.November}, {2025, time.December}}},
		{"跨月首月仅六天", d(2025, time.November, 25), d(2025, time.December, 20),
			[]YearMonth{{2025, time.December}}},
		{"跨年", d(2025, time.December, 20), d(2026, time.January, 15),
			[]YearMonth{{2025, time.December}, {2026, time.January}}},
		{"月末不足七天", d(2025, time.April, 26), d(2025, time.June, 3),
			[]YearMonth{{2025, time.May}}},
		{"开始晚于结束", d(2025, time.May, 10), d(2025, time.May, 1), nil},
		{"二月闰年", d(2024, time.February, 23), d(2024, time.February, 29), []YearMonth{{2024, time.February}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.ActiveMonths(tt.start, tt.end))
		})
	}
}

func TestScheduleGenerator_IgnoresTimeOfDay(t *testing.T) {
	g := NewScheduleGenerator(7)
	tokyo := time.FixedZone("JST", 9*3600)
	start := time.Date(2025, time.March, 1, 23, 30, 0, 0, tokyo)
	end := time.Date(2025, time.March, 7, 0, 10, 0, 0, tokyo)
	assert.Equal(t, []YearMonth{{2025, time.March}}, g.ActiveMonths(start, end))
}

func TestScheduleGenerator_FullYear(t *testing.T) {
	g := NewScheduleGenerator(0)
	assert.Equal(t, DefaultMinOverlapDays, g.MinOverlapDays)

	months := g.ActiveMonths(testutil.Date(2025, time.April, 1), testutil.Date(2026, time.March, 31))
	require.Len(t, months, 12)
	assert.Equal(t, "2025-04", months[0].String())
	assert.Equal(t, "2026-03", months[11].String())
}

func TestScheduleGenerator_Generate(t *testing.T) {
	g := NewScheduleGenerator(7)
	entries := g.Generate(testutil.Date(2025, time.May, 1), testutil.Date(2025, time.June, 30), []uint{3, 4})
	require.Len(t, entries, 4)
	assert.Equal(t, ScheduleEntry{BudgetItemID: 3, YearMonth: YearMonth{2025, time.May}}, entries[0])
	assert.Equal(t, ScheduleEntry{BudgetItemID: 4, YearMonth: YearMonth{2025, time.June}}, entries[3])

	assert.Empty(t, g.Generate(testutil.Date(2025, time.May, 1), testutil.Date(2025, time.June, 30), nil))
}

// seedTarget 新系统种子数据：一个有期间的助成金（两个项目）、一个缺结束日期的助成金（一个项目）
func seedTarget(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.TargetDB(t)

	grants := []models.Grant{
		{ID: 1, Name: "子ども食堂助成", GrantCode: testutil.Str("G-001"),
			StartDate: testutil.DatePtr(2025, time.April, 1), EndDate: testutil.DatePtr(2025, time.September, 30)},
		{ID: 2, Name: "地域活動助成", GrantCode: testutil.Str("G-002"),
			StartDate: testutil.DatePtr(2025, time.April, 1)},
	}
	require.NoError(t, db.Create(&grants).Error)

	items := []models.BudgetItem{
		{ID: 1, Name: "食材費", GrantID: 1, SortOrder: 10},
		{ID: 2, Name: "消耗品費", GrantID: 1, SortOrder: 12},
		{ID: 3, Name: "会場費", GrantID: 2, SortOrder: 11},
	}
	require.NoError(t, db.Create(&items).Error)
	return db
}

func countSchedules(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.BudgetSchedule{}).Count(&n).Error)
	return n
}

func TestScheduleBuilder_Rebuild(t *testing.T) {
	db := seedTarget(t)
	require.NoError(t, db.Create(&models.BudgetSchedule{BudgetItemID: 3, Year: 2020, Month: 1, IsActive: true}).Error)

	b := NewScheduleBuilder(db, NewScheduleGenerator(7), false, zerolog.Nop())
	res, err := b.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Grants)
	assert.Equal(t, 1, res.SkippedGrants)
	assert.Equal(t, 12, res.Schedules)
	assert.Equal(t, int64(12), countSchedules(t, db))

	var stale int64
	require.NoError(t, db.Model(&models.BudgetSchedule{}).Where(&models.BudgetSchedule{BudgetItemID: 3}).Count(&stale).Error)
	assert.Zero(t, stale)

	var inactive int64
	require.NoError(t, db.Model(&models.BudgetSchedule{}).Where(map[string]interface{}{"isActive": false}).Count(&inactive).Error)
	assert.Zero(t, inactive)
}

func TestScheduleBuilder_RebuildIsIdempotent(t *testing.T) {
	db := seedTarget(t)
	b := NewScheduleBuilder(db, NewScheduleGenerator(7), false, zerolog.Nop())

	first, err := b.Rebuild(context.Background())
	require.NoError(t, err)
	second, err := b.Rebuild(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(first.Schedules), countSchedules(t, db))
}

func TestScheduleBuilder_DryRunRollsBack(t *testing.T) {
	db := seedTarget(t)
	require.NoError(t, db.Create(&models.BudgetSchedule{BudgetItemID: 3, Year: 2020, Month: 1, IsActive: true}).Error)

	b := NewScheduleBuilder(db, NewScheduleGenerator(7), true, zerolog.Nop())
	res, err := b.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, res.Schedules)
	assert.Equal(t, int64(1), countSchedules(t, db))
}

func TestScheduleBuilder_DeleteFailureAborts(t *testing.T) {
	db, mock := testutil.MockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `budget_schedules`").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	b := NewScheduleBuilder(db, NewScheduleGenerator(7), false, zerolog.Nop())
	_, err := b.Rebuild(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
