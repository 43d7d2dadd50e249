package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"

	"pacekeeper/internal/domain/store"
)

// RowRepository хранит строки коллекций в jsonb. Имена таблиц берутся
// только из реестра store, поэтому подставляются в запрос напрямую.
type RowRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewRowRepository(pool *pgxpool.Pool, log *slog.Logger) *RowRepository {
	return &RowRepository{
		pool: pool,
		log:  log.With("component", "row_repository"),
	}
}

func (r *RowRepository) Upsert(ctx context.Context, c store.Collection, row store.Row) (map[string]any, error) {
	data, err := json.Marshal(row.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidRow, err)
	}

	var (
		query string
		args  []any
	)

	// чужая строка с тем же глобальным id не обновляется, запрос вернёт 0 строк
	ownerGuard := fmt.Sprintf("WHERE %s.owner_id = EXCLUDED.owner_id", c.Name)
	target := "(id)"
	if c.OwnerScoped {
		target, ownerGuard = "(owner_id, id)", ""
	}

	switch {
	case c.NaturalKey != "":
		// дубликат по естественному ключу сохраняет исходный id строки
		query = fmt.Sprintf(`
			INSERT INTO %[1]s (id, owner_id, workout_id, plan_id, data)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5)
			ON CONFLICT (owner_id, workout_id, plan_key) DO UPDATE
			SET data = jsonb_set(EXCLUDED.data, '{id}', to_jsonb(%[1]s.id)),
			    updated_at = now()
			RETURNING data`, c.Name)
		args = []any{row.ID, row.OwnerID, row.NaturalKey, row.ParentID, data}
	case c.Parent != "":
		query = fmt.Sprintf(`
			INSERT INTO %[1]s (id, owner_id, plan_id, data)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT %[2]s DO UPDATE
			SET data = EXCLUDED.data, updated_at = now()
			%[3]s
			RETURNING data`, c.Name, target, ownerGuard)
		args = []any{row.ID, row.OwnerID, row.ParentID, data}
	default:
		query = fmt.Sprintf(`
			INSERT INTO %[1]s (id, owner_id, data)
			VALUES ($1, $2, $3)
			ON CONFLICT %[2]s DO UPDATE
			SET data = EXCLUDED.data, updated_at = now()
			%[3]s
			RETURNING data`, c.Name, target, ownerGuard)
		args = []any{row.ID, row.OwnerID, data}
	}

	var stored []byte
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&stored); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// конфликт по id со строкой другого владельца
			return nil, store.ErrForbidden
		}
		return nil, mapError(err)
	}

	return decodeRow(stored)
}

func (r *RowRepository) Select(ctx context.Context, c store.Collection, ownerID string) ([]map[string]any, error) {
	query := fmt.Sprintf(`SELECT data FROM %s WHERE owner_id = $1 ORDER BY created_at DESC`, c.Name)

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		r.log.Error("failed to select rows", "collection", c.Name, "error", err)
		return nil, mapError(err)
	}
	defer rows.Close()

	result := make([]map[string]any, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row, err := decodeRow(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return result, nil
}

func (r *RowRepository) Update(ctx context.Context, c store.Collection, ownerID, id string, patch map[string]any) (map[string]any, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidRow, err)
	}

	query := fmt.Sprintf(`
		UPDATE %s SET data = data || $3::jsonb, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING data`, c.Name)

	var stored []byte
	if err := r.pool.QueryRow(ctx, query, id, ownerID, data).Scan(&stored); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, mapError(err)
	}

	return decodeRow(stored)
}

func decodeRow(raw []byte) (map[string]any, error) {
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("decode row: %w", err)
	}
	return row, nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", store.ErrMissingParent, pgErr.ConstraintName)
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", store.ErrConflict, pgErr.ConstraintName)
		}
	}
	return err
}
