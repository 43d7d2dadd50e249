package store

import "context"

type Repository interface {
	// Upsert вставляет строку или обновляет существующую того же владельца.
	Upsert(ctx context.Context, c Collection, row Row) (map[string]any, error)
	Select(ctx context.Context, c Collection, ownerID string) ([]map[string]any, error)
	// Update сливает patch с данными строки владельца.
	Update(ctx context.Context, c Collection, ownerID, id string, patch map[string]any) (map[string]any, error)
}
