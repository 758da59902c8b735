package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantmigrate/models"
	"grantmigrate/testutil"
)

func TestVerifier_Verify(t *testing.T) {
	db := seedTarget(t)
	require.NoError(t, db.Create(&models.Grant{ID: 3, Name: "あおぞら基金"}).Error)
	_, err := NewScheduleBuilder(db, NewScheduleGenerator(7), false, zerolog.Nop()).Rebuild(context.Background())
	require.NoError(t, err)

	v, err := NewVerifier(db).Verify(context.Background())
	require.NoError(t, err)

	require.Len(t, v.Tables, 5)
	assert.Equal(t, int64(3), v.Count("grants"))
	assert.Equal(t, int64(3), v.Count("budget_items"))
	assert.Equal(t, int64(12), v.Count("budget_schedules"))
	assert.Zero(t, v.Count("transactions"))
	assert.Zero(t, v.Count("unknown"))

	// 按名称排序，没有项目的助成金计为 0
	require.Len(t, v.Grants, 3)
	assert.Equal(t, "あおぞら基金", v.Grants[0].Name)
	assert.Zero(t, v.Grants[0].Items)
	assert.Zero(t, v.Grants[0].Schedules)
	assert.Nil(t, v.Grants[0].GrantCode)

	assert.Equal(t, "地域活動助成", v.Grants[1].Name)
	assert.Equal(t, int64(1), v.Grants[1].Items)
	assert.Zero(t, v.Grants[1].Schedules)

	assert.Equal(t, "子ども食堂助成", v.Grants[2].Name)
	assert.Equal(t, "G-001", *v.Grants[2].GrantCode)
	assert.Equal(t, int64(2), v.Grants[2].Items)
	assert.Equal(t, int64(12), v.Grants[2].Schedules)
}

func TestVerifier_VerifyAllocations(t *testing.T) {
	db := seedAllocationTarget(t)
	_, err := newImporter(db, false).Run(context.Background(), legacySnapshot())
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.AllocationSplit{ID: "orphan_1", BudgetItemID: 3, Amount: testutil.Yen(10)}).Error)

	v, err := NewVerifier(db).VerifyAllocations(context.Background(), "import_v1_")
	require.NoError(t, err)

	assert.Equal(t, int64(2), v.Imported)
	assert.Equal(t, int64(1), v.Orphaned)
	require.Len(t, v.ByBudgetItem, 2)
	assert.Equal(t, uint(1), v.ByBudgetItem[0].BudgetItemID)
	assert.Equal(t, "食材費", v.ByBudgetItem[0].Name)
	assert.Equal(t, int64(1), v.ByBudgetItem[0].Splits)
	assert.True(t, v.ByBudgetItem[0].Total.Equal(testutil.Yen(12000)))
	assert.True(t, v.ByBudgetItem[1].Total.Equal(testutil.Yen(800)))
}

func TestVerifier_CountFailure(t *testing.T) {
	db, mock := testutil.MockDB(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `grants`").WillReturnError(assert.AnError)

	_, err := NewVerifier(db).Verify(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
