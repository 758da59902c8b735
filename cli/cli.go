// Package cli 两个迁移命令共用的启动流程：参数、配置、日志、数据库连接与结果输出。
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"grantmigrate/config"
	"grantmigrate/database"
	"grantmigrate/logger"
	"grantmigrate/report"
	"grantmigrate/service"
)

// Version 版本号，构建时可通过 -ldflags 覆盖
var Version = "1.0.0"

// Options 命令行参数
type Options struct {
	ConfigFile  string
	DryRun      bool
	ShowVersion bool
}

// RegisterFlags 注册公共参数
func RegisterFlags(fs *flag.FlagSet, opts *Options) {
	fs.StringVar(&opts.ConfigFile, "config", "", "外部配置文件路径（可选）")
	fs.StringVar(&opts.ConfigFile, "c", "", "外部配置文件路径（简写）")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "试运行：执行全部写入后回滚")
	fs.BoolVar(&opts.ShowVersion, "version", false, "显示版本信息")
	fs.BoolVar(&opts.ShowVersion, "v", false, "显示版本信息（简写）")
}

// Runner 执行一次迁移，返回的报告在出错时可能只包含已完成的阶段
type Runner func(ctx context.Context, legacy, target *gorm.DB, cfg *config.Config, log zerolog.Logger, runID string) (*service.RunReport, error)

// Main 解析参数并执行 run，返回进程退出码
func Main(command string, args []string, stdout io.Writer, run Runner) int {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stdout)
	var opts Options
	RegisterFlags(fs, &opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if opts.ShowVersion {
		fmt.Fprintf(stdout, "%s v%s\n", command, Version)
		return 0
	}

	printer := report.NewPrinter(stdout)
	if err := Execute(context.Background(), command, opts, printer, run); err != nil {
		printer.Error(err)
		return 1
	}
	return 0
}

// Execute 加载配置、连接数据库并执行迁移，之后输出报告、导出 Excel、发送邮件
func Execute(ctx context.Context, command string, opts Options, printer *report.Printer, run Runner) error {
	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(opts.ConfigFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if opts.DryRun {
		cfg.Migration.DryRun = true
	}

	runID := uuid.NewString()
	log := logger.WithRunID(logger.New(cfg.Log), runID).With().Str("command", command).Logger()
	ctx = logger.WithContext(ctx, log)
	config.PrintConfig(cfg, log)

	legacy, err := database.Open(cfg.Source, log, cfg.Log.SQL)
	if err != nil {
		return fmt.Errorf("连接现行系统数据库失败: %w", err)
	}
	defer database.Close(legacy)

	target, err := database.Open(cfg.Target, log, cfg.Log.SQL)
	if err != nil {
		return fmt.Errorf("连接新系统数据库失败: %w", err)
	}
	defer database.Close(target)

	printer.Banner(command, cfg.Source.String(), cfg.Target.String(), cfg.Migration.DryRun)

	rep, runErr := run(ctx, legacy, target, cfg, log, runID)
	if runErr == nil {
		printer.Report(rep)
	} else {
		log.Error().Err(runErr).Msg("迁移失败")
		// 失败前已提交的阶段仍然输出
		if rep != nil {
			printer.Sections(rep)
		}
	}

	if rep != nil {
		if err := deliver(ctx, cfg, rep, runErr); err != nil && runErr == nil {
			return err
		}
	}
	return runErr
}

// deliver 导出 Excel 并发送邮件，邮件未启用时跳过
func deliver(ctx context.Context, cfg *config.Config, rep *service.RunReport, runErr error) error {
	log := logger.FromContext(ctx)

	if cfg.Report.XLSXPath != "" {
		if err := report.WriteWorkbook(cfg.Report.XLSXPath, rep); err != nil {
			return err
		}
		log.Info().Str("path", cfg.Report.XLSXPath).Msg("已导出 Excel 报告")
	}

	err := service.NewEmailService(&cfg.Email).SendRunReport(rep, runErr)
	switch {
	case errors.Is(err, service.ErrEmailDisabled):
		return nil
	case err != nil:
		log.Warn().Err(err).Msg("发送运行结果邮件失败")
		return nil
	}
	log.Info().Strs("recipients", cfg.Email.Recipients).Msg("已发送运行结果邮件")
	return nil
}
