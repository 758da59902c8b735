package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction 交易（新系统），DetailID 指向明细实体
type Transaction struct {
	ID                string          `gorm:"primaryKey;size:64"`
	JournalNumber     int64           `gorm:"column:journalNumber;not null"`
	JournalLineNumber int             `gorm:"column:journalLineNumber;not null;default:0"`
	DetailID          *int64          `gorm:"column:detailId;uniqueIndex"`
	Date              time.Time       `gorm:"not null"`
	Description       *string
	Amount            decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	FreeDealID        *int64          `gorm:"column:freeDealId;index"`
	CreatedAt         time.Time       `gorm:"column:createdAt;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time       `gorm:"column:updatedAt"`
}

func (Transaction) TableName() string {
	return "transactions"
}
