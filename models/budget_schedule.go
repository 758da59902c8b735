package models

import "time"

// BudgetSchedule 预算项目月度勾选（某月是否活跃）
type BudgetSchedule struct {
	ID           uint      `gorm:"primaryKey"`
	BudgetItemID uint      `gorm:"column:budgetItemId;not null;uniqueIndex:uq_budget_schedules_item_month"`
	Year         int       `gorm:"not null;uniqueIndex:uq_budget_schedules_item_month"`
	Month        int       `gorm:"not null;uniqueIndex:uq_budget_schedules_item_month"`
	IsActive     bool      `gorm:"column:isActive;not null"`
	CreatedAt    time.Time `gorm:"column:createdAt;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"column:updatedAt"`
}

func (BudgetSchedule) TableName() string {
	return "budget_schedules"
}
