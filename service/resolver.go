package service

import (
	"strconv"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"

	"grantmigrate/models"
)

// DetailKey 交易复合键：仕訳番号 + 日期 + 金额
// 日期取自然日，金额取规范化字符串，因此 1000 与 1000.00 视为同一键
type DetailKey struct {
	JournalNumber int64
	Date          string
	Amount        string
}

// NewDetailKey 构造复合键
func NewDetailKey(journalNumber int64, date time.Time, amount decimal.Decimal) DetailKey {
	return DetailKey{
		JournalNumber: journalNumber,
		Date:          date.Format(time.DateOnly),
		Amount:        amount.String(),
	}
}

func (k DetailKey) dateAmount() dateAmountKey {
	return dateAmountKey{Date: k.Date, Amount: k.Amount}
}

type dateAmountKey struct {
	Date   string
	Amount string
}

// MatchKind 解析结果类型
type MatchKind int

const (
	// MatchNone 未找到对应明细
	MatchNone MatchKind = iota
	// MatchExact 复合键完全匹配
	MatchExact
	// MatchFallback 忽略仕訳番号，仅按日期与金额匹配
	MatchFallback
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Resolution 一次解析的结果
// Candidates 为兜底匹配时同日期同金额的候选数
type Resolution struct {
	Kind       MatchKind
	DetailID   int64
	Candidates int
}

// Found 是否解析到明细
func (r Resolution) Found() bool {
	return r.Kind != MatchNone
}

// Ambiguous 兜底匹配存在多个候选
func (r Resolution) Ambiguous() bool {
	return r.Kind == MatchFallback && r.Candidates > 1
}

type candidate struct {
	journalNumber int64
	detailID      int64
}

// Resolver 把旧系统交易解析为新系统明细 ID，构建后只读
type Resolver struct {
	exact    map[DetailKey]int64
	fallback map[dateAmountKey][]candidate
}

// NewResolver 以新系统中带明细的交易建立索引
// 同一复合键出现多次时保留最小的明细 ID
func NewResolver(txs []models.Transaction) *Resolver {
	r := &Resolver{
		exact:    make(map[DetailKey]int64, len(txs)),
		fallback: make(map[dateAmountKey][]candidate),
	}
	for _, tx := range txs {
		if tx.DetailID == nil {
			continue
		}
		key := NewDetailKey(tx.JournalNumber, tx.Date, tx.Amount)
		if id, ok := r.exact[key]; !ok || *tx.DetailID < id {
			r.exact[key] = *tx.DetailID
		}
		da := key.dateAmount()
		r.fallback[da] = append(r.fallback[da], candidate{journalNumber: tx.JournalNumber, detailID: *tx.DetailID})
	}
	return r
}

// Len 已索引的复合键数量
func (r *Resolver) Len() int {
	return len(r.exact)
}

// Resolve 解析旧系统交易
// 先按复合键精确匹配；未命中时在同日期同金额的候选中按仕訳番号编辑距离、仕訳番号、明细 ID 依次排序取第一个
func (r *Resolver) Resolve(tx models.LegacyTransaction) Resolution {
	key := NewDetailKey(tx.JournalNumber, tx.Date, tx.Amount)
	if id, ok := r.exact[key]; ok {
		return Resolution{Kind: MatchExact, DetailID: id, Candidates: 1}
	}

	cands := r.fallback[key.dateAmount()]
	if len(cands) == 0 {
		return Resolution{Kind: MatchNone}
	}

	journal := strconv.FormatInt(tx.JournalNumber, 10)
	best := cands[0]
	bestDist := levenshtein.ComputeDistance(journal, strconv.FormatInt(best.journalNumber, 10))
	for _, c := range cands[1:] {
		d := levenshtein.ComputeDistance(journal, strconv.FormatInt(c.journalNumber, 10))
		if less(d, c, bestDist, best) {
			best, bestDist = c, d
		}
	}
	return Resolution{Kind: MatchFallback, DetailID: best.detailID, Candidates: len(cands)}
}

func less(d int, c candidate, bestDist int, best candidate) bool {
	if d != bestDist {
		return d < bestDist
	}
	if c.journalNumber != best.journalNumber {
		return c.journalNumber < best.journalNumber
	}
	return c.detailID < best.detailID
}
