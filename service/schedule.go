package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"grantmigrate/models"
)

// DefaultMinOverlapDays 月份计为活跃所需的最少重叠天数
const DefaultMinOverlapDays = 7

// YearMonth 年月
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// ScheduleEntry 预算项目在某月活跃
type ScheduleEntry struct {
	BudgetItemID uint
	YearMonth
}

// ScheduleGenerator 根据助成期间计算活跃月份，不访问数据库
type ScheduleGenerator struct {
	MinOverlapDays int
}

// NewScheduleGenerator 创建生成器，minOverlapDays 小于 1 时使用默认值
func NewScheduleGenerator(minOverlapDays int) ScheduleGenerator {
	if minOverlapDays < 1 {
		minOverlapDays = DefaultMinOverlapDays
	}
	return ScheduleGenerator{MinOverlapDays: minOverlapDays}
}

// civilDay 把时间归一为 UTC 零点，只保留自然日
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ActiveMonths 返回与 [start, end] 重叠天数不少于阈值的月份，按时间升序
func (g ScheduleGenerator) ActiveMonths(start, end time.Time) []YearMonth {
	start, end = civilDay(start), civilDay(end)
	if start.After(end) {
		return nil
	}

	var months []YearMonth
	for monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !monthStart.After(end); monthStart = monthStart.AddDate(0, 1, 0) {
		monthEnd := monthStart.AddDate(0, 1, -1)

		overlapStart := monthStart
		if start.After(overlapStart) {
			overlapStart = start
		}
		overlapEnd := monthEnd
		if end.Before(overlapEnd) {
			overlapEnd = end
		}
		if overlapEnd.Before(overlapStart) {
			continue
		}

		days := int(overlapEnd.Sub(overlapStart).Hours()/24) + 1
		if days >= g.MinOverlapDays {
			months = append(months, YearMonth{Year: monthStart.Year(), Month: monthStart.Month()})
		}
	}
	return months
}

// Generate 为每个活跃月份和每个预算项目生成一条记录
func (g ScheduleGenerator) Generate(start, end time.Time, itemIDs []uint) []ScheduleEntry {
	if len(itemIDs) == 0 {
		return nil
	}
	months := g.ActiveMonths(start, end)
	entries := make([]ScheduleEntry, 0, len(months)*len(itemIDs))
	for _, ym := range months {
		for _, id := range itemIDs {
			entries = append(entries, ScheduleEntry{BudgetItemID: id, YearMonth: ym})
		}
	}
	return entries
}

// ScheduleResult 月度勾选重建结果
type ScheduleResult struct {
	Grants        int
	SkippedGrants int
	Schedules     int
}

// ScheduleBuilder 在新系统中重建 budget_schedules
type ScheduleBuilder struct {
	db        *gorm.DB
	generator ScheduleGenerator
	dryRun    bool
	log       zerolog.Logger
}

// NewScheduleBuilder 创建重建器
func NewScheduleBuilder(db *gorm.DB, generator ScheduleGenerator, dryRun bool, log zerolog.Logger) *ScheduleBuilder {
	return &ScheduleBuilder{db: db, generator: generator, dryRun: dryRun, log: log}
}

// Rebuild 在一个事务内清空并重新生成全部月度勾选
// 缺少开始或结束日期的助成金直接跳过
func (b *ScheduleBuilder) Rebuild(ctx context.Context) (*ScheduleResult, error) {
	result := &ScheduleResult{}
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.BudgetSchedule{}).Error; err != nil {
			return fmt.Errorf("清空月度勾选失败: %w", err)
		}

		var grants []models.Grant
		if err := tx.Order("id").Find(&grants).Error; err != nil {
			return fmt.Errorf("读取助成金失败: %w", err)
		}

		var rows []models.BudgetSchedule
		for _, g := range grants {
			start, end, ok := g.Period()
			if !ok {
				result.SkippedGrants++
				continue
			}
			result.Grants++

			var itemIDs []uint
			if err := tx.Model(&models.BudgetItem{}).
				Where(&models.BudgetItem{GrantID: g.ID}).
				Order("id").
				Pluck("id", &itemIDs).Error; err != nil {
				return fmt.Errorf("读取助成金 %d 的预算项目失败: %w", g.ID, err)
			}

			entries := b.generator.Generate(start, end, itemIDs)
			for _, e := range entries {
				rows = append(rows, models.BudgetSchedule{
					BudgetItemID: e.BudgetItemID,
					Year:         e.Year,
					Month:        int(e.Month),
					IsActive:     true,
				})
			}
			b.log.Debug().
				Uint("grant_id", g.ID).
				Str("grant", g.Name).
				Int("items", len(itemIDs)).
				Int("schedules", len(entries)).
				Msg("生成月度勾选")
		}

		if len(rows) > 0 {
			if err := tx.CreateInBatches(&rows, 500).Error; err != nil {
				return fmt.Errorf("写入月度勾选失败: %w", err)
			}
		}
		result.Schedules = len(rows)

		if b.dryRun {
			return errDryRunRollback
		}
		return nil
	})
	if err := finishTx(err); err != nil {
		return nil, err
	}

	b.log.Info().
		Int("grants", result.Grants).
		Int("skipped_grants", result.SkippedGrants).
		Int("schedules", result.Schedules).
		Bool("dry_run", b.dryRun).
		Msg("月度勾选重建完成")
	return result, nil
}
