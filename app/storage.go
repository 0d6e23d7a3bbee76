package app

import (
	"context"
	"fmt"

	"todo-tree/app/config"
	"todo-tree/app/logger"
	"todo-tree/app/repository"
	"todo-tree/app/repository/gormstore"
	"todo-tree/app/repository/graphstore"
	"todo-tree/app/repository/memstore"
	"todo-tree/app/repository/sqlstore"
)

// Storage is an open repository and the function that releases it.
type Storage struct {
	Repo  repository.Repository
	close func() error
}

func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStorage connects the repository selected by cfg.Driver. When migrate is
// true the schema (or graph constraints) is created first.
func OpenStorage(ctx context.Context, cfg config.Config, migrate bool) (*Storage, error) {
	log := logger.Repository().WithField("driver", cfg.Storage.Driver)

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := config.OpenSQL(cfg.Storage)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := sqlstore.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to migrate: %w", err)
			}
			log.Info().Msg("schema ready")
		}
		return &Storage{Repo: sqlstore.New(db), close: db.Close}, nil

	case config.DriverGorm, config.DriverSQLite:
		db, err := config.OpenGorm(cfg.Storage)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := gormstore.Migrate(db.WithContext(ctx)); err != nil {
				sqlDB.Close()
				return nil, fmt.Errorf("failed to migrate: %w", err)
			}
			log.Info().Msg("schema ready")
		}
		return &Storage{Repo: gormstore.New(db), close: sqlDB.Close}, nil

	case config.DriverNeo4j:
		driver, err := config.InitNeo4j(ctx, cfg.Neo4j)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := graphstore.EnsureConstraints(ctx, driver, cfg.Neo4j.Database); err != nil {
				driver.Close(ctx)
				return nil, fmt.Errorf("failed to create constraints: %w", err)
			}
			log.Info().Msg("constraints ready")
		}
		return &Storage{
			Repo:  graphstore.New(driver, cfg.Neo4j.Database),
			close: func() error { return driver.Close(context.Background()) },
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory storage, data is lost on exit")
		return &Storage{Repo: memstore.New()}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
