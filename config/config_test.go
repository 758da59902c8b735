package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Source.Driver)
	assert.Equal(t, "nagaiku_budget", cfg.Source.DBName)
	assert.Equal(t, "nagaiku_budget_v2_dev", cfg.Target.DBName)
	assert.Equal(t, 7, cfg.Migration.MinOverlapDays)
	assert.Equal(t, "allocation_splits_backup_", cfg.Migration.BackupTablePrefix)
	assert.Equal(t, "import_v1_", cfg.Migration.SplitIDPrefix)
	assert.Contains(t, cfg.Migration.NoteTemplate, "%s")
	assert.False(t, cfg.Migration.DryRun)
	assert.False(t, cfg.Email.Enabled)
}

func TestLoadConfig_ExternalFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	content := `
target:
  driver: sqlite
  path: /tmp/v2.db
migration:
  min_overlap_days: 10
  dry_run: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Target.Driver)
	assert.Equal(t, "/tmp/v2.db", cfg.Target.Path)
	assert.Equal(t, 10, cfg.Migration.MinOverlapDays)
	assert.True(t, cfg.Migration.DryRun)
	// 未覆盖的字段保留默认值
	assert.Equal(t, "postgres", cfg.Source.Driver)
	assert.Equal(t, "import_v1_", cfg.Migration.SplitIDPrefix)
}

func TestLoadConfig_MissingExternalFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GRANTMIGRATE_TARGET_DBNAME", "nagaiku_budget_v2_prod")
	t.Setenv("GRANTMIGRATE_SOURCE_PASSWORD", "secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "nagaiku_budget_v2_prod", cfg.Target.DBName)
	assert.Equal(t, "secret", cfg.Source.Password)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Source:    DatabaseConfig{Driver: "postgres"},
			Target:    DatabaseConfig{Driver: "mysql"},
			Migration: MigrationConfig{MinOverlapDays: 7},
		}
	}

	assert.NoError(t, valid().Validate())

	c := valid()
	c.Source.Driver = "oracle"
	assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)

	c = valid()
	c.Target = DatabaseConfig{Driver: "sqlite"}
	assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)

	c = valid()
	c.Migration.MinOverlapDays = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)

	c = valid()
	c.Email.Enabled = true
	assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
	c.Email.Recipients = []string{"ops@example.com"}
	assert.NoError(t, c.Validate())
}

func TestDatabaseConfig_StringHidesPassword(t *testing.T) {
	d := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", Username: "u", Password: "p@ss", DBName: "v2"}
	assert.Equal(t, "postgres://u@db:5432/v2", d.String())
	assert.NotContains(t, d.String(), "p@ss")

	s := DatabaseConfig{Driver: "sqlite", Path: "/data/v2.db"}
	assert.Equal(t, "sqlite:/data/v2.db", s.String())
}
