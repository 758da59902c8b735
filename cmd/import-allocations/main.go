// import-allocations 备份并清空新系统的分配拆分，再从现行系统重新导入。
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
	os.Exit(cli.Main("import-allocations", os.Args[1:], os.Stdout, run))
}

func run(ctx context.Context, legacy, target *gorm.DB, cfg *config.Config, log zerolog.Logger, runID string) (*service.RunReport, error) {
	return service.NewAllocationMigration(legacy, target, cfg.Migration, log).Run(ctx, runID)
}
