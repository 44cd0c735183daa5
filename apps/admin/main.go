package main

import (
	"database/sql"
	"log"
	"os"

	"go.uber.org/zap"

	dig_container "github.com/trezcool/admission/apps/api/di/dig"
	"github.com/trezcool/admission/core"
	"github.com/trezcool/admission/core/workflow"
)

func main() {
	container := dig_container.New()

	code := 0
	err := container.Invoke(func(conf *core.Config, local *zap.Logger, db *sql.DB, svc *workflow.Service) {
		logger := local.Named("admin")
		defer func() { _ = logger.Sync() }()
		if db != nil {
			defer func() { _ = db.Close() }()
		}

		cli := commandLine{
			conf: conf,
			db:   db,
			svc:  svc,
			out:  os.Stdout,
		}
		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Error("command failed", zap.String("command", os.Args[1]), zap.Error(err))
			}
			code = 1
		}
	})
	if err != nil {
		log.Fatalf("resolving dependencies: %v", err)
	}
	os.Exit(code)
}
