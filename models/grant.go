package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Grant 助成金（新系统）
type Grant struct {
	ID          uint                `gorm:"primaryKey"`
	Name        string              `gorm:"size:255;not null"`
	GrantCode   *string             `gorm:"column:grantCode;size:100"`
	TotalAmount decimal.NullDecimal `gorm:"column:totalAmount;type:decimal(15,2)"`
	StartDate   *time.Time          `gorm:"column:startDate"`
	EndDate     *time.Time          `gorm:"column:endDate"`
	Status      string              `gorm:"size:20;default:active"`
	CreatedAt   time.Time           `gorm:"column:createdAt;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time           `gorm:"column:updatedAt"`
}

func (Grant) TableName() string {
	return "grants"
}

// Period 返回助成期间 [start, end]，任一日期为空时 ok 为 false
func (g Grant) Period() (start, end time.Time, ok bool) {
	if g.StartDate == nil || g.EndDate == nil {
		return time.Time{}, time.Time{}, false
	}
	return *g.StartDate, *g.EndDate, true
}

// Code 返回助成金编码，未设置时为空串
func (g Grant) Code() string {
	if g.GrantCode == nil {
		return ""
	}
	return *g.GrantCode
}
