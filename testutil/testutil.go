// Package testutil 为各包测试提供临时 SQLite 数据库与种子数据。
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"grantmigrate/config"
	"grantmigrate/database"
	"grantmigrate/models"
)

// OpenSQLite 在临时目录中创建 SQLite 数据库并建表
func OpenSQLite(t *testing.T, name string, schema ...interface{}) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), name+".db"),
	}, zerolog.Nop(), false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	if len(schema) > 0 {
		require.NoError(t, db.AutoMigrate(schema...))
	}
	return db
}

// LegacyDB 旧系统测试库
func LegacyDB(t *testing.T) *gorm.DB {
	return OpenSQLite(t, "v1", models.LegacyModels()...)
}

// TargetDB 新系统测试库
func TargetDB(t *testing.T) *gorm.DB {
	return OpenSQLite(t, "v2", models.TargetModels()...)
}

// MockDB 基于 sqlmock 的 gorm 连接，用于失败路径测试
func MockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

// Date 构造 UTC 日期
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr 构造 UTC 日期指针
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}

// Str 返回字符串指针
func Str(s string) *string {
	return &s
}

// Int64 返回 int64 指针
func Int64(v int64) *int64 {
	return &v
}

// Yen 整数金额
func Yen(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
