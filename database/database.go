package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"grantmigrate/config"
)

// ErrUnsupportedDriver 不支持的数据库驱动
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Open 按配置打开数据库连接
// 每次运行只在单连接上顺序执行，因此连接池上限为 1
func Open(cfg config.DatabaseConfig, log zerolog.Logger, logSQL bool) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(log, logSQL),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败 (%s): %w", cfg.String(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Dialector 根据驱动名构建 gorm 方言
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.DBName, orDefault(cfg.SSLMode, "disable"))
		if cfg.TimeZone != "" {
			dsn += " TimeZone=" + cfg.TimeZone
		}
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, orDefault(cfg.Charset, "utf8mb4"))
		return mysql.Open(dsn), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		return sqlite.Open(cfg.Path + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Quote 按当前方言为标识符加引号
// 新系统列名为驼峰式（如 grantCode），在 PostgreSQL 中必须加引号才能保留大小写
func Quote(db *gorm.DB, name string) string {
	return db.Statement.Quote(name)
}

// TruncateSQL 返回清空表的语句
// PostgreSQL 的 TRUNCATE 可在事务内回滚；MySQL 的 TRUNCATE 会隐式提交，SQLite 没有 TRUNCATE，两者改用 DELETE
func TruncateSQL(db *gorm.DB, table string) string {
	if db.Dialector.Name() == "postgres" {
		return "TRUNCATE TABLE " + Quote(db, table) + " CASCADE"
	}
	return "DELETE FROM " + Quote(db, table)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// gormWriter 把 gorm 日志写入 zerolog
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Debug().Msgf(format, args...)
}

// NewGormLogger 创建桥接到 zerolog 的 gorm 日志器，logSQL 为 false 时仅记录错误
func NewGormLogger(log zerolog.Logger, logSQL bool) logger.Interface {
	level := logger.Error
	if logSQL {
		level = logger.Info
	}
	return logger.New(gormWriter{log: log.With().Str("component", "gorm").Logger()}, logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
