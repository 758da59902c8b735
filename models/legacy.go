package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 旧系统（v1）模型，列名为下划线风格，沿用 gorm 默认命名策略

// LegacyGrant 旧系统助成金
type LegacyGrant struct {
	ID          int64 `gorm:"primaryKey"`
	Name        string
	GrantCode   *string
	TotalAmount decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *string
}

func (LegacyGrant) TableName() string {
	return "grants"
}

// LegacyBudgetItem 旧系统预算项目
type LegacyBudgetItem struct {
	ID             int64 `gorm:"primaryKey"`
	Name           string
	Category       *string
	BudgetedAmount decimal.NullDecimal `gorm:"type:decimal(15,2)"`
	Remarks        *string
	GrantID        int64 `gorm:"index"`
}

func (LegacyBudgetItem) TableName() string {
	return "budget_items"
}

// LegacyTransaction 旧系统交易，ID 形如 "仕訳ID_行番号"
type LegacyTransaction struct {
	ID                string `gorm:"primaryKey;size:64"`
	JournalNumber     int64
	JournalLineNumber *int
	Date              time.Time
	Amount            decimal.Decimal `gorm:"type:decimal(15,2)"`
	FreeeDealID       *int64
}

func (LegacyTransaction) TableName() string {
	return "transactions"
}

// LegacyAllocation 旧系统分配，通过原始交易 ID 引用交易
type LegacyAllocation struct {
	ID            int64 `gorm:"primaryKey"`
	TransactionID *string
	BudgetItemID  *int64
	Amount        decimal.Decimal `gorm:"type:decimal(15,2)"`
	CreatedAt     *time.Time
}

func (LegacyAllocation) TableName() string {
	return "allocations"
}

// LegacyModels 旧系统全部模型（测试建表用）
func LegacyModels() []interface{} {
	return []interface{}{&LegacyGrant{}, &LegacyBudgetItem{}, &LegacyTransaction{}, &LegacyAllocation{}}
}
