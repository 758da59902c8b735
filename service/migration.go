package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"grantmigrate/config"
	"grantmigrate/source"
)

// RunReport 一次运行的结果汇总，供终端输出、Excel 与邮件使用
// 未执行的阶段对应字段为 nil
type RunReport struct {
	RunID      string
	Command    string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	Items        *ItemResult
	Schedules    *ScheduleResult
	Verification *Verification

	Allocations            *AllocationResult
	AllocationVerification *AllocationVerification
}

// Duration 运行耗时
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// BudgetMigration 预算项目迁移：项目写入、月度勾选重建、核对
// 每个阶段独立提交，失败时终止后续阶段，已提交的阶段不回滚
type BudgetMigration struct {
	reader    *source.Reader
	items     *BudgetItemWriter
	schedules *ScheduleBuilder
	verifier  *Verifier
	dryRun    bool
	log       zerolog.Logger
}

// NewBudgetMigration 创建预算项目迁移
func NewBudgetMigration(legacy, target *gorm.DB, cfg config.MigrationConfig, log zerolog.Logger) *BudgetMigration {
	return &BudgetMigration{
		reader:    source.NewReader(legacy),
		items:     NewBudgetItemWriter(target, cfg.DryRun, log.With().Str("phase", "items").Logger()),
		schedules: NewScheduleBuilder(target, NewScheduleGenerator(cfg.MinOverlapDays), cfg.DryRun, log.With().Str("phase", "schedules").Logger()),
		verifier:  NewVerifier(target),
		dryRun:    cfg.DryRun,
		log:       log,
	}
}

// Run 依次执行三个阶段，出错时返回已完成部分的报告和错误
func (m *BudgetMigration) Run(ctx context.Context, runID string) (*RunReport, error) {
	report := &RunReport{RunID: runID, Command: "migrate-budget", DryRun: m.dryRun, StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	m.log.Info().Msg("阶段 1/3：迁移预算项目")
	items, err := m.reader.BudgetItems(ctx)
	if err != nil {
		return report, err
	}
	if report.Items, err = m.items.Migrate(ctx, items); err != nil {
		return report, fmt.Errorf("预算项目迁移失败: %w", err)
	}

	m.log.Info().Msg("阶段 2/3：重建月度勾选")
	if report.Schedules, err = m.schedules.Rebuild(ctx); err != nil {
		return report, fmt.Errorf("月度勾选重建失败: %w", err)
	}

	m.log.Info().Msg("阶段 3/3：核对迁移结果")
	if report.Verification, err = m.verifier.Verify(ctx); err != nil {
		return report, fmt.Errorf("核对失败: %w", err)
	}
	return report, nil
}

// AllocationMigration 分配导入：读取旧系统快照、导入拆分、核对
type AllocationMigration struct {
	reader   *source.Reader
	importer *AllocationImporter
	verifier *Verifier
	cfg      config.MigrationConfig
	log      zerolog.Logger
}

// NewAllocationMigration 创建分配导入
func NewAllocationMigration(legacy, target *gorm.DB, cfg config.MigrationConfig, log zerolog.Logger) *AllocationMigration {
	return &AllocationMigration{
		reader:   source.NewReader(legacy),
		importer: NewAllocationImporter(target, cfg, log.With().Str("phase", "allocations").Logger()),
		verifier: NewVerifier(target),
		cfg:      cfg,
		log:      log,
	}
}

// Importer 返回底层导入器，用于替换时钟
func (m *AllocationMigration) Importer() *AllocationImporter {
	return m.importer
}

// Run 读取快照并导入，出错时返回已完成部分的报告和错误
func (m *AllocationMigration) Run(ctx context.Context, runID string) (*RunReport, error) {
	report := &RunReport{RunID: runID, Command: "import-allocations", DryRun: m.cfg.DryRun, StartedAt: time.Now()}
	defer func() { report.FinishedAt = time.Now() }()

	snap, err := m.reader.Snapshot(ctx)
	if err != nil {
		return report, err
	}
	m.log.Info().
		Int("transactions", len(snap.Transactions)).
		Int("allocations", len(snap.Allocations)).
		Msg("已读取旧系统快照")

	if report.Allocations, err = m.importer.Run(ctx, snap); err != nil {
		return report, fmt.Errorf("分配导入失败: %w", err)
	}
	if report.AllocationVerification, err = m.verifier.VerifyAllocations(ctx, m.cfg.SplitIDPrefix); err != nil {
		return report, fmt.Errorf("核对失败: %w", err)
	}
	return report, nil
}
