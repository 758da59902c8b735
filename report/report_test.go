package report

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"grantmigrate/service"
)

func code(s string) *string { return &s }

func budgetReport() *service.RunReport {
	return &service.RunReport{
		RunID:      "7d1f0c2a",
		Command:    "migrate-budget",
		StartedAt:  time.Date(2025, time.August, 9, 14, 30, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, time.August, 9, 14, 30, 3, 0, time.UTC),
		Items:      &service.ItemResult{Read: 40, Inserted: 3, Existing: 36, MissingGrant: 1},
		Schedules:  &service.ScheduleResult{Grants: 4, SkippedGrants: 1, Schedules: 288},
		Verification: &service.Verification{
			Tables: []service.TableCount{{Table: "grants", Count: 5}, {Table: "budget_schedules", Count: 288}},
			Grants: []service.GrantSummary{
				{Name: "子ども食堂助成", GrantCode: code("G-001"), Items: 12, Schedules: 144},
				{Name: "あおぞら基金", Items: 0, Schedules: 0},
			},
		},
	}
}

func allocationReport() *service.RunReport {
	return &service.RunReport{
		RunID:   "9a8b",
		Command: "import-allocations",
		Allocations: &service.AllocationResult{
			BackupTable: "allocation_splits_backup_20250809_143005",
			Read:        5, Attempted: 2, Imported: 2, ExactMatches: 1, FallbackMatches: 1, Ambiguous: 1,
			Skips: []service.Skip{
				{AllocationID: 102, TransactionID: "missing_1", BudgetItemID: 1, Reason: service.SkipNoLegacyTransaction},
				{AllocationID: 104, TransactionID: "A_1", BudgetItemID: 99, Reason: service.SkipNoBudgetItem},
			},
		},
		AllocationVerification: &service.AllocationVerification{
			Imported: 2,
			Orphaned: 1,
			ByBudgetItem: []service.BudgetItemAllocation{
				{BudgetItemID: 1, Name: "食材費", Splits: 1, Total: decimal.NewFromInt(1234567)},
				{BudgetItemID: 2, Name: "会場費", Splits: 1, Total: decimal.RequireFromString("800.50")},
			},
		},
	}
}

func TestFormatYen(t *testing.T) {
	assert.Equal(t, "¥0", FormatYen(decimal.Zero))
	assert.Equal(t, "¥999", FormatYen(decimal.NewFromInt(999)))
	assert.Equal(t, "¥1,000", FormatYen(decimal.RequireFromString("1000.00")))
	assert.Equal(t, "¥1,234,567", FormatYen(decimal.NewFromInt(1234567)))
	assert.Equal(t, "-¥12,000", FormatYen(decimal.NewFromInt(-12000)))
	assert.Equal(t, "¥800.50", FormatYen(decimal.RequireFromString("800.5")))
}

func TestPrinter_BudgetReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Banner("migrate-budget", "nagaiku_budget", "nagaiku_budget_v2_dev", false)
	p.Report(budgetReport())

	out := buf.String()
	assert.Contains(t, out, "nagaiku_budget_v2_dev")
	assert.NotContains(t, out, "ドライラン")
	assert.Contains(t, out, "新規挿入: 3")
	assert.Contains(t, out, "助成金コード不一致で未挿入: 1 件")
	assert.Contains(t, out, "budget_schedules")
	assert.Contains(t, out, "子ども食堂助成")
	assert.Contains(t, out, "144")
	assert.Contains(t, out, "🎉 完了")
	assert.NotContains(t, out, "割当インポート")
}

func TestPrinter_AllocationReport(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	rep := allocationReport()
	rep.DryRun = true
	p.Banner("import-allocations", "v1", "v2", true)
	p.Report(rep)

	out := buf.String()
	assert.Contains(t, out, "ドライラン")
	assert.Contains(t, out, "allocation_splits_backup_20250809_143005")
	assert.Contains(t, out, "候補が複数ある一致: 1 件")
	assert.Contains(t, out, "スキップ（現行取引なし）: 1")
	assert.Contains(t, out, "スキップ（明細なし）: 0")
	assert.Contains(t, out, "明細に紐付かない分割: 1 件")
	assert.Contains(t, out, "¥1,234,567")
	assert.Contains(t, out, "変更なし")
}

func TestPrinter_SectionsOmitsCompletion(t *testing.T) {
	var buf bytes.Buffer
	rep := budgetReport()
	rep.Schedules, rep.Verification = nil, nil
	NewPrinter(&buf).Sections(rep)

	out := buf.String()
	assert.Contains(t, out, "新規挿入: 3")
	assert.NotContains(t, out, "月チェック")
	assert.NotContains(t, out, "完了")
}

func TestPrinter_Error(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Error(errors.New("connection refused"))
	assert.Contains(t, buf.String(), "connection refused")
}

func TestWriteWorkbook_Budget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.xlsx")
	require.NoError(t, WriteWorkbook(path, budgetReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetGrants}, f.GetSheetList())

	v, err := f.GetCellValue(sheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "値", v)
	v, _ = f.GetCellValue(sheetSummary, "B2")
	assert.Equal(t, "7d1f0c2a", v)

	rows, err := f.GetRows(sheetGrants)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"子ども食堂助成", "G-001", "12", "144"}, rows[1])
	assert.Equal(t, "あおぞら基金", rows[2][0])
}

func TestWriteWorkbook_Allocations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allocations.xlsx")
	require.NoError(t, WriteWorkbook(path, allocationReport()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetSummary, sheetAllocations, sheetSkips}, f.GetSheetList())

	rows, err := f.GetRows(sheetAllocations)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "食材費", rows[1][1])
	assert.Equal(t, "合計", rows[3][0])
	assert.Equal(t, "2", rows[3][2])
	formula, err := f.GetCellFormula(sheetAllocations, "D4")
	require.NoError(t, err)
	assert.Equal(t, "SUM(D2:D3)", formula)

	skips, err := f.GetRows(sheetSkips)
	require.NoError(t, err)
	require.Len(t, skips, 3)
	assert.Equal(t, []string{"104", "A_1", "99", "no_budget_item"}, skips[2])
}
