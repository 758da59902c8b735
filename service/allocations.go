package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"grantmigrate/config"
	"grantmigrate/database"
	"grantmigrate/models"
	"grantmigrate/source"
)

// SkipReason 分配未导入的原因
type SkipReason string

const (
	SkipNoLegacyTransaction SkipReason = "no_legacy_transaction"
	SkipNoDetail            SkipReason = "no_detail"
	SkipNoBudgetItem        SkipReason = "no_budget_item"
)

// Skip 一条未导入的旧系统分配
type Skip struct {
	AllocationID  int64
	TransactionID string
	BudgetItemID  int64
	Reason        SkipReason
}

// AllocationResult 分配导入结果
type AllocationResult struct {
	RunAt           time.Time
	DryRun          bool
	BackupTable     string
	Read            int
	Attempted       int
	Imported        int
	ExactMatches    int
	FallbackMatches int
	Ambiguous       int
	Skips           []Skip
}

// Skipped 按原因统计跳过数
func (r *AllocationResult) Skipped(reason SkipReason) int {
	n := 0
	for _, s := range r.Skips {
		if s.Reason == reason {
			n++
		}
	}
	return n
}

// AllocationImporter 把旧系统分配导入新系统 allocation_splits
type AllocationImporter struct {
	db  *gorm.DB
	cfg config.MigrationConfig
	log zerolog.Logger

	// Now 运行时间，决定备份表名与拆分 ID 的时间戳部分
	Now func() time.Time
}

// NewAllocationImporter 创建导入器
func NewAllocationImporter(db *gorm.DB, cfg config.MigrationConfig, log zerolog.Logger) *AllocationImporter {
	return &AllocationImporter{db: db, cfg: cfg, log: log, Now: time.Now}
}

// BackupTableName 本次运行的备份表名
func (a *AllocationImporter) BackupTableName(runAt time.Time) string {
	return a.cfg.BackupTablePrefix + runAt.Format("20060102_150405")
}

// SplitID 由旧分配 ID 与运行时间戳派生的拆分 ID
func (a *AllocationImporter) SplitID(allocationID int64, runAt time.Time) string {
	return fmt.Sprintf("%s%d_%d", a.cfg.SplitIDPrefix, allocationID, runAt.Unix())
}

// Note 写入拆分备注的来源说明
func (a *AllocationImporter) Note(transactionID string) string {
	return fmt.Sprintf(a.cfg.NoteTemplate, transactionID)
}

// Run 备份并清空 allocation_splits，再逐条导入旧系统分配
// 备份单独提交；清空与导入在同一事务中，任何错误都会整体回滚
func (a *AllocationImporter) Run(ctx context.Context, snap *source.Snapshot) (*AllocationResult, error) {
	runAt := a.Now()
	result := &AllocationResult{RunAt: runAt, DryRun: a.cfg.DryRun, Read: len(snap.Allocations)}
	db := a.db.WithContext(ctx)

	if !a.cfg.DryRun {
		name, err := a.backup(db, runAt)
		if err != nil {
			return nil, err
		}
		result.BackupTable = name
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(database.TruncateSQL(tx, models.AllocationSplit{}.TableName())).Error; err != nil {
			return fmt.Errorf("清空 allocation_splits 失败: %w", err)
		}

		var txs []models.Transaction
		if err := tx.Where(clause.Neq{Column: "detailId", Value: nil}).Find(&txs).Error; err != nil {
			return fmt.Errorf("读取新系统交易失败: %w", err)
		}
		resolver := NewResolver(txs)
		a.log.Info().Int("keys", resolver.Len()).Msg("交易映射已建立")

		var itemIDs []uint
		if err := tx.Model(&models.BudgetItem{}).Pluck("id", &itemIDs).Error; err != nil {
			return fmt.Errorf("读取新系统预算项目失败: %w", err)
		}
		items := make(map[int64]struct{}, len(itemIDs))
		for _, id := range itemIDs {
			items[int64(id)] = struct{}{}
		}

		for _, alloc := range snap.Allocations {
			if err := a.importOne(tx, alloc, snap, resolver, items, runAt, result); err != nil {
				return err
			}
		}

		if a.cfg.DryRun {
			return errDryRunRollback
		}
		return nil
	})
	if err := finishTx(err); err != nil {
		return nil, err
	}

	a.log.Info().
		Int("read", result.Read).
		Int("imported", result.Imported).
		Int("exact", result.ExactMatches).
		Int("fallback", result.FallbackMatches).
		Int("ambiguous", result.Ambiguous).
		Int("skipped", len(result.Skips)).
		Bool("dry_run", result.DryRun).
		Msg("分配导入完成")
	return result, nil
}

func (a *AllocationImporter) backup(db *gorm.DB, runAt time.Time) (string, error) {
	name := a.BackupTableName(runAt)
	stmt := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s",
		database.Quote(db, name), database.Quote(db, models.AllocationSplit{}.TableName()))
	if err := db.Exec(stmt).Error; err != nil {
		return "", fmt.Errorf("备份 allocation_splits 失败: %w", err)
	}
	a.log.Info().Str("table", name).Msg("已备份 allocation_splits")
	return name, nil
}

func (a *AllocationImporter) importOne(
	tx *gorm.DB,
	alloc models.LegacyAllocation,
	snap *source.Snapshot,
	resolver *Resolver,
	items map[int64]struct{},
	runAt time.Time,
	result *AllocationResult,
) error {
	skip := Skip{AllocationID: alloc.ID}
	if alloc.TransactionID != nil {
		skip.TransactionID = *alloc.TransactionID
	}
	if alloc.BudgetItemID != nil {
		skip.BudgetItemID = *alloc.BudgetItemID
	}

	legacy, ok := snap.Transaction(skip.TransactionID)
	if !ok {
		skip.Reason = SkipNoLegacyTransaction
		result.Skips = append(result.Skips, skip)
		return nil
	}

	res := resolver.Resolve(legacy)
	if !res.Found() {
		skip.Reason = SkipNoDetail
		result.Skips = append(result.Skips, skip)
		return nil
	}
	if _, ok := items[skip.BudgetItemID]; !ok {
		skip.Reason = SkipNoBudgetItem
		result.Skips = append(result.Skips, skip)
		return nil
	}

	if res.Kind == MatchExact {
		result.ExactMatches++
	} else {
		result.FallbackMatches++
	}
	if res.Ambiguous() {
		result.Ambiguous++
		a.log.Warn().
			Int64("allocation_id", alloc.ID).
			Str("transaction_id", legacy.ID).
			Int("candidates", res.Candidates).
			Int64("detail_id", res.DetailID).
			Msg("同日期同金额存在多个候选明细")
	}

	result.Attempted++
	detailID := res.DetailID
	note := a.Note(legacy.ID)
	split := models.AllocationSplit{
		ID:           a.SplitID(alloc.ID, runAt),
		DetailID:     &detailID,
		BudgetItemID: uint(skip.BudgetItemID),
		Amount:       alloc.Amount,
		Note:         &note,
		CreatedAt:    runAt,
		UpdatedAt:    runAt,
	}
	// 保留旧系统的分配时间
	if alloc.CreatedAt != nil {
		split.CreatedAt = *alloc.CreatedAt
		split.UpdatedAt = *alloc.CreatedAt
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: append(clause.AssignmentColumns([]string{"budgetItemId", "amount", "note"}),
			clause.Assignment{Column: clause.Column{Name: "updatedAt"}, Value: gorm.Expr("CURRENT_TIMESTAMP")}),
	}).Create(&split).Error
	if err != nil {
		return fmt.Errorf("写入分配 %d 失败: %w", alloc.ID, err)
	}
	result.Imported++
	return nil
}
