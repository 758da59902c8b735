package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"grantmigrate/service"
)

const (
	sheetSummary     = "概要"
	sheetGrants      = "助成金"
	sheetAllocations = "割当集計"
	sheetSkips       = "スキップ"
)

type workbook struct {
	f           *excelize.File
	headerStyle int
	dataStyle   int
}

// WriteWorkbook 把运行结果导出为 Excel 文件
// 只写入本次运行实际执行的阶段对应的工作表
func WriteWorkbook(path string, rep *service.RunReport) error {
	f := excelize.NewFile()
	defer f.Close()

	w, err := newWorkbook(f)
	if err != nil {
		return err
	}

	f.SetSheetName("Sheet1", sheetSummary)
	if err := w.summary(rep); err != nil {
		return err
	}
	if rep.Verification != nil {
		if err := w.grants(rep.Verification); err != nil {
			return err
		}
	}
	if rep.AllocationVerification != nil {
		if err := w.allocations(rep.AllocationVerification); err != nil {
			return err
		}
	}
	if rep.Allocations != nil && len(rep.Allocations.Skips) > 0 {
		if err := w.skips(rep.Allocations.Skips); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存 Excel 失败: %w", err)
	}
	return nil
}

func newWorkbook(f *excelize.File) (*workbook, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}

	// 设置表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}

	// 数据样式
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return nil, err
	}
	return &workbook{f: f, headerStyle: headerStyle, dataStyle: dataStyle}, nil
}

// sheet 写入表头与数据行，返回错误时工作表内容不完整
func (w *workbook) sheet(name string, widths []float64, headers []string, rows [][]interface{}) error {
	if idx, _ := w.f.GetSheetIndex(name); idx < 0 {
		if _, err := w.f.NewSheet(name); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := w.f.SetColWidth(name, col, col, width); err != nil {
			return err
		}
	}

	// 写入表头
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		w.f.SetCellValue(name, cell, header)
		w.f.SetCellStyle(name, cell, cell, w.headerStyle)
	}

	// 写入数据
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := w.f.SetCellValue(name, cell, v); err != nil {
				return err
			}
		}
		first, _ := excelize.CoordinatesToCellName(1, r+2)
		last, _ := excelize.CoordinatesToCellName(len(row), r+2)
		w.f.SetCellStyle(name, first, last, w.dataStyle)
	}
	return nil
}

func (w *workbook) summary(rep *service.RunReport) error {
	rows := [][]interface{}{
		{"実行ID", rep.RunID},
		{"コマンド", rep.Command},
		{"開始", rep.StartedAt.Format("2006-01-02 15:04:05")},
		{"終了", rep.FinishedAt.Format("2006-01-02 15:04:05")},
		{"ドライラン", rep.DryRun},
	}
	if r := rep.Items; r != nil {
		rows = append(rows,
			[]interface{}{"予算項目 読込", r.Read},
			[]interface{}{"予算項目 新規", r.Inserted},
			[]interface{}{"予算項目 既存", r.Existing},
			[]interface{}{"予算項目 助成金なし", r.MissingGrant},
		)
	}
	if r := rep.Schedules; r != nil {
		rows = append(rows,
			[]interface{}{"月チェック 対象助成金", r.Grants},
			[]interface{}{"月チェック 期間未設定", r.SkippedGrants},
			[]interface{}{"月チェック 生成", r.Schedules},
		)
	}
	if v := rep.Verification; v != nil {
		for _, t := range v.Tables {
			rows = append(rows, []interface{}{t.Table, t.Count})
		}
	}
	if r := rep.Allocations; r != nil {
		rows = append(rows,
			[]interface{}{"バックアップ", r.BackupTable},
			[]interface{}{"割当 読込", r.Read},
			[]interface{}{"割当 インポート", r.Imported},
			[]interface{}{"完全一致", r.ExactMatches},
			[]interface{}{"日付・金額一致", r.FallbackMatches},
			[]interface{}{"候補複数", r.Ambiguous},
			[]interface{}{"スキップ", len(r.Skips)},
		)
	}
	if v := rep.AllocationVerification; v != nil {
		rows = append(rows,
			[]interface{}{"インポート済み件数", v.Imported},
			[]interface{}{"明細なし分割", v.Orphaned},
		)
	}
	return w.sheet(sheetSummary, []float64{26, 40}, []string{"項目", "値"}, rows)
}

func (w *workbook) grants(v *service.Verification) error {
	rows := make([][]interface{}, 0, len(v.Grants))
	for _, g := range v.Grants {
		code := ""
		if g.GrantCode != nil {
			code = *g.GrantCode
		}
		rows = append(rows, []interface{}{g.Name, code, g.Items, g.Schedules})
	}
	return w.sheet(sheetGrants, []float64{30, 15, 12, 16}, []string{"助成金", "コード", "予算項目", "月スケジュール"}, rows)
}

func (w *workbook) allocations(v *service.AllocationVerification) error {
	rows := make([][]interface{}, 0, len(v.ByBudgetItem)+1)
	var splits int64
	for _, b := range v.ByBudgetItem {
		total, _ := b.Total.Float64()
		rows = append(rows, []interface{}{b.BudgetItemID, b.Name, b.Splits, total})
		splits += b.Splits
	}
	if err := w.sheet(sheetAllocations, []float64{10, 30, 10, 16}, []string{"ID", "予算項目", "件数", "金額"}, rows); err != nil {
		return err
	}

	// 添加汇总行
	summaryRow := len(rows) + 2
	w.f.SetCellValue(sheetAllocations, fmt.Sprintf("A%d", summaryRow), "合計")
	w.f.MergeCell(sheetAllocations, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("B%d", summaryRow))
	w.f.SetCellValue(sheetAllocations, fmt.Sprintf("C%d", summaryRow), splits)
	w.f.SetCellFormula(sheetAllocations, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("SUM(D2:D%d)", summaryRow-1))
	w.f.SetCellStyle(sheetAllocations, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("D%d", summaryRow), w.headerStyle)
	return nil
}

func (w *workbook) skips(skips []service.Skip) error {
	rows := make([][]interface{}, 0, len(skips))
	for _, s := range skips {
		rows = append(rows, []interface{}{s.AllocationID, s.TransactionID, s.BudgetItemID, string(s.Reason)})
	}
	return w.sheet(sheetSkips, []float64{12, 20, 12, 24}, []string{"割当ID", "取引ID", "予算項目ID", "理由"}, rows)
}
