package service

import (
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"

	"grantmigrate/config"
)

// EmailService 邮件服务，把运行结果发送给运维人员
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendRunReport 发送运行结果邮件，runErr 非空时标记为失败
func (s *EmailService) SendRunReport(report *RunReport, runErr error) error {
	if !s.cfg.Enabled {
		return ErrEmailDisabled
	}

	status := "完了"
	if runErr != nil {
		status = "失敗"
	}
	if report.DryRun {
		status += "（ドライラン）"
	}
	subject := fmt.Sprintf("【データ移行】%s %s", report.Command, status)
	body := s.generateRunReportBody(report, runErr)

	return s.sendEmail(s.cfg.Recipients, subject, body)
}

// generateRunReportBody 生成运行结果邮件内容
func (s *EmailService) generateRunReportBody(report *RunReport, runErr error) string {
	var rows strings.Builder
	row := func(label string, value interface{}) {
		fmt.Fprintf(&rows, "<tr><th>%s</th><td>%s</td></tr>\n", html.EscapeString(label), html.EscapeString(fmt.Sprint(value)))
	}

	row("実行ID", report.RunID)
	row("コマンド", report.Command)
	row("開始", report.StartedAt.Format("2006-01-02 15:04:05"))
	row("所要時間", report.Duration().Round(1e6))
	row("ドライラン", report.DryRun)

	if r := report.Items; r != nil {
		row("予算項目 読込", r.Read)
		row("予算項目 新規", r.Inserted)
		row("予算項目 既存", r.Existing)
		row("予算項目 助成金なし", r.MissingGrant)
	}
	if r := report.Schedules; r != nil {
		row("月チェック 対象助成金", r.Grants)
		row("月チェック 期間なし", r.SkippedGrants)
		row("月チェック 生成", r.Schedules)
	}
	if v := report.Verification; v != nil {
		for _, t := range v.Tables {
			row(t.Table, t.Count)
		}
	}
	if r := report.Allocations; r != nil {
		row("バックアップ", r.BackupTable)
		row("割当 読込", r.Read)
		row("割当 インポート", r.Imported)
		row("完全一致", r.ExactMatches)
		row("日付・金額一致", r.FallbackMatches)
		row("候補複数", r.Ambiguous)
		row("スキップ", len(r.Skips))
	}
	if v := report.AllocationVerification; v != nil {
		row("インポート済み件数", v.Imported)
		row("明細なし分割", v.Orphaned)
	}

	errorBlock := ""
	if runErr != nil {
		errorBlock = fmt.Sprintf(`<div class="error"><p>%s</p></div>`, html.EscapeString(runErr.Error()))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Hiragino Sans', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 640px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 24px; text-align: center; }
        .header h1 { margin: 0; font-size: 22px; }
        .content { padding: 30px; }
        table { width: 100%%; border-collapse: collapse; }
        th, td { border-bottom: 1px solid #e5e7eb; padding: 8px 12px; text-align: left; font-size: 14px; }
        th { color: #6b7280; font-weight: 500; width: 45%%; }
        .error { background: #fef2f2; border-left: 4px solid #ef4444; padding: 15px; margin-bottom: 20px; border-radius: 4px; }
        .error p { margin: 0; color: #991b1b; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 16px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>データ移行レポート</h1>
        </div>
        <div class="content">
            %s
            <table>
%s            </table>
        </div>
        <div class="footer">
            <p>このメールはシステムから自動送信されています</p>
        </div>
    </div>
</body>
</html>
`, errorBlock, rows.String())
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to []string, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}
