package rows

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"pacekeeper/internal/app/server/api/http/middleware/auth"
	"pacekeeper/internal/domain/profile"
	"pacekeeper/internal/domain/store"
)

// ProfileFinder сопоставляет пользователя с его профилем.
type ProfileFinder interface {
	Me(ctx context.Context, userID int) (profile.Profile, error)
}

type Handler struct {
	service    store.Servicer
	profiles   ProfileFinder
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service store.Servicer, profiles ProfileFinder, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		profiles:   profiles,
		log:        log.With("component", "rows_handler"),
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.upsertOp(), h.upsert)
	huma.Register(api, h.selectOp(), h.selectRows)
	huma.Register(api, h.updateOp(), h.update)
}

func (h *Handler) upsert(ctx context.Context, input *upsertInput) (*rowOutput, error) {
	ownerID, err := h.owner(ctx)
	if err != nil {
		return nil, err
	}

	row, err := h.service.Upsert(ctx, ownerID, input.Collection, input.Body)
	if err != nil {
		return nil, h.storeError(err)
	}

	return &rowOutput{Body: row}, nil
}

func (h *Handler) selectRows(ctx context.Context, input *selectInput) (*selectOutput, error) {
	ownerID, err := h.owner(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := h.service.Select(ctx, ownerID, input.Collection, input.OwnerID)
	if err != nil {
		return nil, h.storeError(err)
	}

	return &selectOutput{Body: SelectResponse{Rows: rows}}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*rowOutput, error) {
	ownerID, err := h.owner(ctx)
	if err != nil {
		return nil, err
	}

	row, err := h.service.Update(ctx, ownerID, input.Collection, input.ID, input.Body)
	if err != nil {
		return nil, h.storeError(err)
	}

	return &rowOutput{Body: row}, nil
}

// owner id профиля из сессии; строки всегда пишутся от его имени
func (h *Handler) owner(ctx context.Context) (string, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return "", huma.Error401Unauthorized("Unauthorized")
	}

	p, err := h.profiles.Me(ctx, userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return "", huma.Error403Forbidden("profile is not provisioned")
		}
		h.log.Error("profile lookup failed", "user_id", userID, "error", err)
		return "", huma.Error500InternalServerError("profile lookup failed")
	}

	return p.ID, nil
}

func (h *Handler) storeError(err error) error {
	switch {
	case errors.Is(err, store.ErrUnknownCollection):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, store.ErrMissingParent):
		return huma.NewError(http.StatusFailedDependency, err.Error())
	case errors.Is(err, store.ErrForbidden):
		return huma.Error403Forbidden(err.Error())
	case errors.Is(err, store.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, store.ErrInvalidRow):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, store.ErrConflict):
		return huma.Error409Conflict(err.Error())
	default:
		h.log.Error("row operation failed", "error", err)
		return huma.Error500InternalServerError("row operation failed")
	}
}
