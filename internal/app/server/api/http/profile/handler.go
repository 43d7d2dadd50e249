package profile

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"pacekeeper/internal/app/server/api/http/middleware/auth"
	"pacekeeper/internal/domain/profile"
)

type Handler struct {
	service    profile.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service profile.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With("component", "profile_handler"),
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.meOp(), h.me)
	huma.Register(api, h.updateOp(), h.update)
}

func (h *Handler) me(ctx context.Context, _ *meInput) (*profileOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	p, err := h.service.Me(ctx, userID)
	if err != nil {
		return nil, h.profileError(err)
	}

	return &profileOutput{Body: p}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*profileOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	p, err := h.service.SetPremium(ctx, userID, input.Body.IsPremium)
	if err != nil {
		return nil, h.profileError(err)
	}

	return &profileOutput{Body: p}, nil
}

func (h *Handler) profileError(err error) error {
	if errors.Is(err, profile.ErrNotFound) {
		return huma.Error404NotFound("profile not found")
	}
	h.log.Error("profile operation failed", "error", err)
	return huma.Error500InternalServerError("profile operation failed")
}
