package main

import (
	"context"
	"os"

	"github.com/miu/unidesk/internal/app/migrations"
	"github.com/miu/unidesk/internal/bootstrap"
	"github.com/miu/unidesk/internal/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configPath := os.Getenv("UNIDESK_CONFIG")
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	errAndDie(err)

	// migrations are run explicitly by the migrate command
	cfg.Database.AutoMigrate = false
	dbPool, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	errAndDie(err)
	if dbPool != nil {
		defer dbPool.Close()
	}

	deps, err := bootstrap.BuildDependencies(ctx, cfg, dbPool, lgr)
	errAndDie(err)

	cli := commandLine{
		voters:   deps.VoterService,
		students: deps.StudentService,
		seed: func(ctx context.Context) error {
			return bootstrap.Seed(ctx, deps)
		},
	}
	if dbPool != nil {
		migrator := migrations.NewMigrator(dbPool, lgr)
		cli.migrate = migrator.Migrate
		cli.pending = func(context.Context) ([]string, error) {
			return migrations.Pending(migrations.Files())
		}
	}

	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			lgr.Error().Err(err).Msg("Command failed")
		}
		cancel()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal().Err(err).Msg("Setup failed")
	}
}
