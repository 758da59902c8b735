// migrate-budget 把现行系统的预算项目迁移到新系统，重建月度勾选并核对结果。
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"grantmigrate/cli"
	"grantmigrate/config"
	"grantmigrate/service"
)

func main() {
	os.Exit(cli.Main("migrate-budget", os.Args[1:], os.Stdout, run))
}

func run(ctx context.Context, legacy, target *gorm.DB, cfg *config.Config, log zerolog.Logger, runID string) (*service.RunReport, error) {
	return service.NewBudgetMigration(legacy, target, cfg.Migration, log).Run(ctx, runID)
}
