package migration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// драйвер postgres и файловый источник регистрируются при импорте
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"pacekeeper/internal/app/server/config"
)

// ErrDirty предыдущая миграция упала посередине, нужна ручная правка схемы
var ErrDirty = errors.New("схема в грязном состоянии")

// Migrator часть migrate.Migrate, которой пользуется Up
type Migrator interface {
	Up() error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

// MigrationEngine открывает мигратор; в тестах подменяется моком
type MigrationEngine func(sourceURL, databaseURL string) (Migrator, error)

type Migration struct {
	cfg    *config.Config
	engine MigrationEngine
}

func NewMigration(conf *config.Config, engine MigrationEngine) *Migration {
	return &Migration{
		cfg:    conf,
		engine: engine,
	}
}

func DefaultEngine(sourceURL, databaseURL string) (Migrator, error) {
	return migrate.New(sourceURL, databaseURL)
}

// Up применяет новые миграции из MIGRATIONS_PATH и возвращает версию схемы.
func (mg *Migration) Up() (version uint, err error) {
	m, err := mg.engine(mg.sourceURL(), mg.cfg.DB.DatabaseURI)
	if err != nil {
		return 0, err
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			err = errors.Join(err, fmt.Errorf("migration source: %w", srcErr))
		}
		if dbErr != nil {
			err = errors.Join(err, fmt.Errorf("migration database: %w", dbErr))
		}
	}()

	if upErr := m.Up(); upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return 0, fmt.Errorf("migration up: %w", upErr)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("%w: версия %d", ErrDirty, version)
	}
	return version, nil
}

func (mg *Migration) sourceURL() string {
	path := mg.cfg.DB.Migrations
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}
