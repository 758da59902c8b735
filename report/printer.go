// Package report 把运行结果输出到终端与 Excel 文件。
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"grantmigrate/service"
)

var (
	colorBlue   = lipgloss.Color("#89b4fa")
	colorGreen  = lipgloss.Color("#a6e3a1")
	colorYellow = lipgloss.Color("#f9e2af")
	colorRed    = lipgloss.Color("#f38ba8")
	colorSubtle = lipgloss.Color("#7f849c")
)

// Printer 面向运维人员的终端输出
type Printer struct {
	out io.Writer
	r   *lipgloss.Renderer

	title lipgloss.Style
	label lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
}

// NewPrinter 创建输出器，颜色能力按 w 自动检测
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out:   w,
		r:     r,
		title: r.NewStyle().Bold(true).Foreground(colorBlue),
		label: r.NewStyle().Foreground(colorSubtle),
		ok:    r.NewStyle().Foreground(colorGreen),
		warn:  r.NewStyle().Foreground(colorYellow),
		fail:  r.NewStyle().Bold(true).Foreground(colorRed),
	}
}

// Banner 开始提示，说明只读与写入的数据库
func (p *Printer) Banner(command, source, target string, dryRun bool) {
	fmt.Fprintln(p.out, p.title.Render("🚀 "+command))
	fmt.Fprintln(p.out, p.label.Render("⚠️  現行システム（"+source+"）は読み取り専用です"))
	fmt.Fprintln(p.out, p.label.Render("✅ 新システム（"+target+"）のみに書き込みます"))
	if dryRun {
		fmt.Fprintln(p.out, p.warn.Render("🧪 ドライラン: 書き込みはすべてロールバックされます"))
	}
	fmt.Fprintln(p.out)
}

// Report 输出一次运行的全部结果与完成提示
func (p *Printer) Report(rep *service.RunReport) {
	p.Sections(rep)

	fmt.Fprintln(p.out)
	msg := "🎉 完了"
	if rep.DryRun {
		msg += "（ドライラン、変更なし）"
	}
	fmt.Fprintln(p.out, p.ok.Render(msg))
}

// Sections 只输出已执行阶段的结果，失败时用于展示已提交的部分
func (p *Printer) Sections(rep *service.RunReport) {
	if r := rep.Items; r != nil {
		p.section("📥 予算項目")
		p.kv("読込", r.Read)
		p.kv("新規挿入", r.Inserted)
		p.kv("既存", r.Existing)
		if r.MissingGrant > 0 {
			p.warnf("助成金コード不一致で未挿入: %d 件", r.MissingGrant)
		}
	}
	if r := rep.Schedules; r != nil {
		p.section("📅 月チェック")
		p.kv("対象助成金", r.Grants)
		p.kv("期間未設定", r.SkippedGrants)
		p.kv("生成", r.Schedules)
	}
	if v := rep.Verification; v != nil {
		p.section("📊 移行結果")
		p.render(p.tableCounts(v))
		fmt.Fprintln(p.out)
		p.render(p.grantSummary(v))
	}
	if r := rep.Allocations; r != nil {
		p.section("📦 割当インポート")
		if r.BackupTable != "" {
			p.kv("バックアップ", r.BackupTable)
		}
		p.kv("読込", r.Read)
		p.kv("インポート", r.Imported)
		p.kv("完全一致", r.ExactMatches)
		p.kv("日付・金額一致", r.FallbackMatches)
		if r.Ambiguous > 0 {
			p.warnf("候補が複数ある一致: %d 件", r.Ambiguous)
		}
		p.kv("スキップ（現行取引なし）", r.Skipped(service.SkipNoLegacyTransaction))
		p.kv("スキップ（明細なし）", r.Skipped(service.SkipNoDetail))
		p.kv("スキップ（予算項目なし）", r.Skipped(service.SkipNoBudgetItem))
	}
	if v := rep.AllocationVerification; v != nil {
		p.section("🔍 インポート結果")
		p.kv("インポート済み", v.Imported)
		if v.Orphaned > 0 {
			p.warnf("明細に紐付かない分割: %d 件", v.Orphaned)
		}
		p.render(p.allocationSummary(v))
	}
}

// Error 输出致命错误
func (p *Printer) Error(err error) {
	fmt.Fprintln(p.out, p.fail.Render("❌ エラーが発生しました: "+err.Error()))
}

func (p *Printer) section(title string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.title.Render(title))
}

func (p *Printer) kv(label string, value interface{}) {
	fmt.Fprintf(p.out, "  %s %v\n", p.label.Render(label+":"), value)
}

func (p *Printer) warnf(format string, args ...interface{}) {
	fmt.Fprintln(p.out, "  "+p.warn.Render("⚠️  "+fmt.Sprintf(format, args...)))
}

func (p *Printer) render(t *table.Table) {
	fmt.Fprintln(p.out, t.String())
}

func (p *Printer) newTable(headers ...string) *table.Table {
	header := p.r.NewStyle().Bold(true).Padding(0, 1)
	cell := p.r.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(p.label).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
}

func (p *Printer) tableCounts(v *service.Verification) *table.Table {
	t := p.newTable("テーブル", "件数")
	for _, c := range v.Tables {
		t.Row(c.Table, strconv.FormatInt(c.Count, 10))
	}
	return t
}

func (p *Printer) grantSummary(v *service.Verification) *table.Table {
	t := p.newTable("助成金", "コード", "予算項目", "月スケジュール")
	for _, g := range v.Grants {
		code := "-"
		if g.GrantCode != nil {
			code = *g.GrantCode
		}
		t.Row(g.Name, code, strconv.FormatInt(g.Items, 10), strconv.FormatInt(g.Schedules, 10))
	}
	return t
}

func (p *Printer) allocationSummary(v *service.AllocationVerification) *table.Table {
	t := p.newTable("予算項目", "件数", "金額")
	for _, b := range v.ByBudgetItem {
		t.Row(b.Name, strconv.FormatInt(b.Splits, 10), FormatYen(b.Total))
	}
	return t
}
