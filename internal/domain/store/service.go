package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

type Servicer interface {
	Upsert(ctx context.Context, ownerID, collection string, data map[string]any) (map[string]any, error)
	Select(ctx context.Context, ownerID, collection, filterOwner string) ([]map[string]any, error)
	Update(ctx context.Context, ownerID, collection, id string, patch map[string]any) (map[string]any, error)
}

type Service struct {
	repo  Repository
	log   *slog.Logger
	newID func() string
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		log:   log.With("component", "store_service"),
		newID: uuid.NewString,
	}
}

// Upsert пишет строку от имени владельца. owner_id всегда берётся из сессии,
// присланный клиентом игнорируется.
func (s *Service) Upsert(ctx context.Context, ownerID, collection string, data map[string]any) (map[string]any, error) {
	c, err := Lookup(collection)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}

	id := stringField(data, "id")
	if id == "" {
		id = s.newID()
	}
	data["id"] = id
	data["owner_id"] = ownerID
	delete(data, "sync_status")

	for _, field := range c.Required {
		if stringField(data, field) == "" {
			return nil, fmt.Errorf("%w: поле %s обязательно", ErrInvalidRow, field)
		}
	}

	row := Row{
		ID:         id,
		OwnerID:    ownerID,
		ParentID:   stringField(data, c.Parent),
		NaturalKey: stringField(data, c.NaturalKey),
		Data:       data,
	}

	stored, err := s.repo.Upsert(ctx, c, row)
	if err != nil {
		failureCounter.WithLabelValues(c.Name, "upsert").Inc()
		s.log.Debug("Ошибка записи строки", "collection", c.Name, "id", id, "error", err)
		return nil, fmt.Errorf("запись в %s: %w", c.Name, err)
	}

	upsertCounter.WithLabelValues(c.Name).Inc()
	return stored, nil
}

// Select возвращает строки владельца. Чужой owner_id в фильтре запрещён.
func (s *Service) Select(ctx context.Context, ownerID, collection, filterOwner string) ([]map[string]any, error) {
	c, err := Lookup(collection)
	if err != nil {
		return nil, err
	}
	if filterOwner != "" && filterOwner != ownerID {
		return nil, ErrForbidden
	}

	rows, err := s.repo.Select(ctx, c, ownerID)
	if err != nil {
		failureCounter.WithLabelValues(c.Name, "select").Inc()
		return nil, fmt.Errorf("выборка из %s: %w", c.Name, err)
	}
	if rows == nil {
		rows = []map[string]any{}
	}

	selectCounter.WithLabelValues(c.Name).Add(float64(len(rows)))
	return rows, nil
}

func (s *Service) Update(ctx context.Context, ownerID, collection, id string, patch map[string]any) (map[string]any, error) {
	c, err := Lookup(collection)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: пустой id", ErrInvalidRow)
	}

	clean := make(map[string]any, len(patch))
	for k, v := range patch {
		if c.immutable(k) || k == "sync_status" {
			continue
		}
		clean[k] = v
	}

	stored, err := s.repo.Update(ctx, c, ownerID, id, clean)
	if err != nil {
		failureCounter.WithLabelValues(c.Name, "update").Inc()
		return nil, fmt.Errorf("обновление %s/%s: %w", c.Name, id, err)
	}

	return stored, nil
}
