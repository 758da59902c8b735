package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"grantmigrate/database"
	"grantmigrate/models"
)

// TableCount 表行数
type TableCount struct {
	Table string
	Count int64
}

// GrantSummary 助成金的预算项目数与月度勾选数
type GrantSummary struct {
	Name      string
	GrantCode *string
	Items     int64
	Schedules int64
}

// Verification 迁移后核对结果
type Verification struct {
	Tables []TableCount
	Grants []GrantSummary
}

// Count 返回指定表的行数
func (v *Verification) Count(table string) int64 {
	for _, t := range v.Tables {
		if t.Table == table {
			return t.Count
		}
	}
	return 0
}

// BudgetItemAllocation 预算项目的导入拆分汇总
type BudgetItemAllocation struct {
	BudgetItemID uint
	Name         string
	Splits       int64
	Total        decimal.Decimal
}

// AllocationVerification 分配导入核对结果
// Orphaned 为 detailId 为空、无法关联到明细的拆分数
type AllocationVerification struct {
	Imported     int64
	Orphaned     int64
	ByBudgetItem []BudgetItemAllocation
}

// verifiedTables 核对行数的表
var verifiedTables = []string{"grants", "budget_items", "budget_schedules", "transactions", "allocation_splits"}

// Verifier 只读核对新系统数据
type Verifier struct {
	db *gorm.DB
}

// NewVerifier 创建核对器
func NewVerifier(db *gorm.DB) *Verifier {
	return &Verifier{db: db}
}

// Verify 统计各表行数与助成金汇总，没有项目的助成金计为 0
func (v *Verifier) Verify(ctx context.Context) (*Verification, error) {
	db := v.db.WithContext(ctx)
	result := &Verification{}

	for _, table := range verifiedTables {
		var n int64
		if err := db.Table(table).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("统计 %s 失败: %w", table, err)
		}
		result.Tables = append(result.Tables, TableCount{Table: table, Count: n})
	}

	q := func(name string) string { return database.Quote(db, name) }
	query := fmt.Sprintf(`
		SELECT g.name AS name, g.%s AS grant_code,
			COUNT(DISTINCT bi.id) AS items,
			COUNT(DISTINCT bs.id) AS schedules
		FROM grants g
		LEFT JOIN budget_items bi ON bi.%s = g.id
		LEFT JOIN budget_schedules bs ON bs.%s = bi.id
		GROUP BY g.id, g.name, g.%s
		ORDER BY g.name, g.id`,
		q("grantCode"), q("grantId"), q("budgetItemId"), q("grantCode"))
	if err := db.Raw(query).Scan(&result.Grants).Error; err != nil {
		return nil, fmt.Errorf("统计助成金汇总失败: %w", err)
	}
	return result, nil
}

// VerifyAllocations 统计以 idPrefix 开头的导入拆分、孤立拆分及按预算项目的件数与金额
func (v *Verifier) VerifyAllocations(ctx context.Context, idPrefix string) (*AllocationVerification, error) {
	db := v.db.WithContext(ctx)
	result := &AllocationVerification{}

	if err := db.Model(&models.AllocationSplit{}).Where("id LIKE ?", idPrefix+"%").Count(&result.Imported).Error; err != nil {
		return nil, fmt.Errorf("统计导入拆分失败: %w", err)
	}
	if err := db.Model(&models.AllocationSplit{}).Where(map[string]interface{}{"detailId": nil}).Count(&result.Orphaned).Error; err != nil {
		return nil, fmt.Errorf("统计孤立拆分失败: %w", err)
	}

	q := func(name string) string { return database.Quote(db, name) }
	query := fmt.Sprintf(`
		SELECT bi.id AS budget_item_id, bi.name AS name,
			COUNT(s.id) AS splits,
			COALESCE(SUM(s.amount), 0) AS total
		FROM allocation_splits s
		JOIN budget_items bi ON s.%s = bi.id
		WHERE s.id LIKE ?
		GROUP BY bi.id, bi.name
		ORDER BY bi.id`, q("budgetItemId"))
	if err := db.Raw(query, idPrefix+"%").Scan(&result.ByBudgetItem).Error; err != nil {
		return nil, fmt.Errorf("统计预算项目分配失败: %w", err)
	}
	return result, nil
}
