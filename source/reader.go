// Package source 读取旧系统（v1）数据快照，只执行查询，不产生任何写入。
package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"grantmigrate/models"
)

// BudgetItem 旧系统预算项目，附带所属助成金编码
// 编码是跨新旧系统唯一稳定的助成金标识
type BudgetItem struct {
	ID             int64
	Name           string
	Category       *string
	BudgetedAmount decimal.NullDecimal
	Remarks        *string
	GrantID        int64
	GrantCode      *string
}

// Snapshot 一次运行中读取的旧系统数据，读取后不再变化
type Snapshot struct {
	Grants       []models.LegacyGrant
	BudgetItems  []BudgetItem
	Transactions []models.LegacyTransaction
	Allocations  []models.LegacyAllocation

	txByID map[string]models.LegacyTransaction
}

// Transaction 按原始 ID 查找旧系统交易
func (s *Snapshot) Transaction(id string) (models.LegacyTransaction, bool) {
	if s.txByID == nil {
		s.txByID = make(map[string]models.LegacyTransaction, len(s.Transactions))
		for _, tx := range s.Transactions {
			s.txByID[tx.ID] = tx
		}
	}
	tx, ok := s.txByID[id]
	return tx, ok
}

// Reader 旧系统快照读取器
type Reader struct {
	db *gorm.DB
}

// NewReader 创建读取器
func NewReader(db *gorm.DB) *Reader {
	return &Reader{db: db}
}

// Snapshot 在同一个只读事务中读取全部旧系统数据
func (r *Reader) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("id").Find(&snap.Grants).Error; err != nil {
			return fmt.Errorf("读取助成金失败: %w", err)
		}
		items, err := readBudgetItems(tx)
		if err != nil {
			return err
		}
		snap.BudgetItems = items
		if err := tx.Where("id IS NOT NULL").Order("id").Find(&snap.Transactions).Error; err != nil {
			return fmt.Errorf("读取交易失败: %w", err)
		}
		if err := tx.Where("transaction_id IS NOT NULL AND budget_item_id IS NOT NULL").
			Order("id").
			Find(&snap.Allocations).Error; err != nil {
			return fmt.Errorf("读取分配失败: %w", err)
		}
		return nil
	}, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// BudgetItems 单独读取预算项目（含助成金编码）
func (r *Reader) BudgetItems(ctx context.Context) ([]BudgetItem, error) {
	return readBudgetItems(r.db.WithContext(ctx))
}

func readBudgetItems(db *gorm.DB) ([]BudgetItem, error) {
	var items []BudgetItem
	err := db.Raw(`
		SELECT bi.id, bi.name, bi.category, bi.budgeted_amount, bi.remarks, bi.grant_id, g.grant_code
		FROM budget_items bi
		JOIN grants g ON bi.grant_id = g.id
		ORDER BY bi.id
	`).Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("读取预算项目失败: %w", err)
	}
	return items, nil
}
