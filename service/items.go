package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grantmigrate/models"
	"grantmigrate/source"
)

// ItemResult 预算项目迁移结果
// MissingGrant 为新系统中找不到对应助成金编码而未插入的项目数
type ItemResult struct {
	Read         int
	Inserted     int
	Existing     int
	MissingGrant int
}

// BudgetItemWriter 把旧系统预算项目写入新系统
// 以 sortOrder（旧系统 ID）作为幂等键，已存在的项目不会重复插入
type BudgetItemWriter struct {
	db     *gorm.DB
	dryRun bool
	log    zerolog.Logger
}

// NewBudgetItemWriter 创建写入器
func NewBudgetItemWriter(db *gorm.DB, dryRun bool, log zerolog.Logger) *BudgetItemWriter {
	return &BudgetItemWriter{db: db, dryRun: dryRun, log: log}
}

// Migrate 在一个事务内插入尚未迁移的预算项目
// 助成金按编码而不是数字 ID 关联，新旧系统的 ID 并不一致
func (w *BudgetItemWriter) Migrate(ctx context.Context, items []source.BudgetItem) (*ItemResult, error) {
	result := &ItemResult{Read: len(items)}
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sortOrders []int64
		if err := tx.Model(&models.BudgetItem{}).Pluck("sortOrder", &sortOrders).Error; err != nil {
			return fmt.Errorf("读取已迁移预算项目失败: %w", err)
		}
		existing := make(map[int64]struct{}, len(sortOrders))
		for _, so := range sortOrders {
			existing[so] = struct{}{}
		}

		grantIDs, err := grantIDsByCode(tx)
		if err != nil {
			return err
		}

		for _, item := range items {
			if _, ok := existing[item.ID]; ok {
				result.Existing++
				continue
			}

			code := ""
			if item.GrantCode != nil {
				code = *item.GrantCode
			}
			grantID, ok := grantIDs[code]
			if !ok {
				result.MissingGrant++
				w.log.Debug().Int64("item_id", item.ID).Str("grant_code", code).Msg("新系统中没有对应助成金，跳过")
				continue
			}

			amount := decimal.Zero
			if item.BudgetedAmount.Valid {
				amount = item.BudgetedAmount.Decimal
			}
			row := models.BudgetItem{
				Name:           item.Name,
				Category:       item.Category,
				BudgetedAmount: amount,
				Note:           item.Remarks,
				GrantID:        grantID,
				SortOrder:      item.ID,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("插入预算项目 %d 失败: %w", item.ID, err)
			}
			existing[item.ID] = struct{}{}
			result.Inserted++
		}

		if w.dryRun {
			return errDryRunRollback
		}
		return nil
	})
	if err := finishTx(err); err != nil {
		return nil, err
	}

	w.log.Info().
		Int("read", result.Read).
		Int("inserted", result.Inserted).
		Int("existing", result.Existing).
		Int("missing_grant", result.MissingGrant).
		Bool("dry_run", w.dryRun).
		Msg("预算项目迁移完成")
	return result, nil
}

// grantIDsByCode 读取新系统助成金编码到 ID 的映射，编码重复时保留最小 ID
func grantIDsByCode(tx *gorm.DB) (map[string]uint, error) {
	var grants []models.Grant
	if err := tx.Select("id", "grantCode").Where(clause.Neq{Column: "grantCode", Value: nil}).Order("id").Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("读取助成金编码失败: %w", err)
	}
	ids := make(map[string]uint, len(grants))
	for _, g := range grants {
		if _, ok := ids[g.Code()]; !ok {
			ids[g.Code()] = g.ID
		}
	}
	return ids, nil
}
