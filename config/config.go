package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("invalid config")

// Config 迁移工具配置
type Config struct {
	Source    DatabaseConfig  `mapstructure:"source"`
	Target    DatabaseConfig  `mapstructure:"target"`
	Migration MigrationConfig `mapstructure:"migration"`
	Log       LogConfig       `mapstructure:"log"`
	Report    ReportConfig    `mapstructure:"report"`
	Email     EmailConfig     `mapstructure:"email"`
}

// DatabaseConfig 数据库配置
// Driver 为 postgres、mysql 或 sqlite；sqlite 仅使用 Path
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Charset  string `mapstructure:"charset"`
	TimeZone string `mapstructure:"timezone"`
	Path     string `mapstructure:"path"`
}

// MigrationConfig 迁移行为配置
type MigrationConfig struct {
	MinOverlapDays    int    `mapstructure:"min_overlap_days"`
	BackupTablePrefix string `mapstructure:"backup_table_prefix"`
	SplitIDPrefix     string `mapstructure:"split_id_prefix"`
	NoteTemplate      string `mapstructure:"note_template"`
	DryRun            bool   `mapstructure:"dry_run"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	SQL    bool   `mapstructure:"sql"`
}

// ReportConfig 报表配置，XLSXPath 为空时不导出
type ReportConfig struct {
	XLSXPath string `mapstructure:"xlsx_path"`
}

// EmailConfig 邮件配置
type EmailConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	Host       string   `mapstructure:"host"`
	Port       int      `mapstructure:"port"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	From       string   `mapstructure:"from"`
	Recipients []string `mapstructure:"recipients"`
}

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
// configPath: 可选的外部配置文件路径
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}

	// 2. 合并外部配置文件（可选）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", configPath, err)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/grantmigrate")
		externalViper.AddConfigPath("$HOME/.grantmigrate")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("合并外部配置失败: %w", err)
			}
		}
	}

	// 3. 环境变量覆盖，例如 GRANTMIGRATE_TARGET_DBNAME
	v.SetEnvPrefix("GRANTMIGRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	for name, db := range map[string]DatabaseConfig{"source": c.Source, "target": c.Target} {
		switch db.Driver {
		case "postgres", "mysql":
		case "sqlite":
			if db.Path == "" {
				return fmt.Errorf("%w: %s.path 不能为空", ErrInvalidConfig, name)
			}
		default:
			return fmt.Errorf("%w: %s.driver 不支持 %q", ErrInvalidConfig, name, db.Driver)
		}
	}
	if c.Migration.MinOverlapDays < 1 {
		return fmt.Errorf("%w: migration.min_overlap_days 必须大于 0", ErrInvalidConfig)
	}
	if c.Email.Enabled && len(c.Email.Recipients) == 0 {
		return fmt.Errorf("%w: 已启用邮件通知但未配置 email.recipients", ErrInvalidConfig)
	}
	return nil
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig(cfg *Config, log zerolog.Logger) {
	if cfg == nil {
		return
	}
	log.Info().
		Str("source", cfg.Source.String()).
		Str("target", cfg.Target.String()).
		Int("min_overlap_days", cfg.Migration.MinOverlapDays).
		Bool("dry_run", cfg.Migration.DryRun).
		Bool("email", cfg.Email.Enabled).
		Str("xlsx", cfg.Report.XLSXPath).
		Msg("当前配置")
}

// String 返回不含密码的连接描述
func (d DatabaseConfig) String() string {
	if d.Driver == "sqlite" {
		return "sqlite:" + d.Path
	}
	return fmt.Sprintf("%s://%s@%s:%s/%s", d.Driver, d.Username, d.Host, d.Port, d.DBName)
}
