package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"pacekeeper/internal/app/server/config"
	"pacekeeper/internal/infrastructure/migration"
)

// Коды ошибок PostgreSQL, которые переводятся в доменные.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

type Storage struct {
	pool          *pgxpool.Pool
	schemaVersion uint
}

// New применяет миграции и открывает пул соединений.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	version, err := migration.NewMigration(cfg, migration.DefaultEngine).Up()
	if err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DB.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Storage{pool: pool, schemaVersion: version}, nil
}

// SchemaVersion версия схемы после применения миграций.
func (s *Storage) SchemaVersion() uint {
	return s.schemaVersion
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

// Ping проверяет соединение, используется health-check'ом.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
