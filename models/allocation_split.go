package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationSplit 交易分配到预算项目的拆分
// 迁移导入的记录 ID 形如 import_v1_<旧分配ID>_<运行时间戳>
type AllocationSplit struct {
	ID           string          `gorm:"primaryKey;size:100"`
	DetailID     *int64          `gorm:"column:detailId;index"`
	BudgetItemID uint            `gorm:"column:budgetItemId;index;not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Note         *string
	CreatedAt    time.Time `gorm:"column:createdAt;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"column:updatedAt"`
}

func (AllocationSplit) TableName() string {
	return "allocation_splits"
}

// TargetModels 新系统全部模型（测试建表用）
func TargetModels() []interface{} {
	return []interface{}{&Grant{}, &BudgetItem{}, &BudgetSchedule{}, &Transaction{}, &AllocationSplit{}}
}
