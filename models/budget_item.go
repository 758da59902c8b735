package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetItem 预算项目（新系统）
// SortOrder 既用于排序显示，也是跨次运行的幂等键（取旧系统 ID）
type BudgetItem struct {
	ID             uint            `gorm:"primaryKey"`
	Name           string          `gorm:"size:255;not null"`
	Category       *string         `gorm:"size:100"`
	BudgetedAmount decimal.Decimal `gorm:"column:budgetedAmount;type:decimal(15,2);not null;default:0"`
	Note           *string
	GrantID        uint      `gorm:"column:grantId;index;not null"`
	SortOrder      int64     `gorm:"column:sortOrder;default:0"`
	CreatedAt      time.Time `gorm:"column:createdAt;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time `gorm:"column:updatedAt"`
}

func (BudgetItem) TableName() string {
	return "budget_items"
}
