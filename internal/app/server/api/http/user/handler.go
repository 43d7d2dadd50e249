package user

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"pacekeeper/internal/domain/profile"
	"pacekeeper/internal/domain/session"
	"pacekeeper/internal/domain/user"
)

type Handler struct {
	service    user.Servicer
	session    session.Servicer
	profiles   profile.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service user.Servicer, session session.Servicer, profiles profile.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		session:    session,
		profiles:   profiles,
		log:        log.With("component", "user_handler"),
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	userID, err := h.service.Register(ctx, input.Body.Login, input.Body.Password)
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		return nil, huma.Error400BadRequest(err.Error())
	case errors.Is(err, user.ErrAlreadyExists):
		return nil, huma.Error409Conflict("login already taken")
	case err != nil:
		h.log.Error("register failed", "error", err)
		return nil, huma.Error500InternalServerError("register failed")
	}

	out := &registerOutput{Body: RegisterResponse{ID: userID, Status: "Ok"}}

	// без профиля пользователь работает анонимно до следующего входа
	p, err := h.profiles.Provision(ctx, userID)
	if err != nil {
		h.log.Error("provision profile failed", "user_id", userID, "error", err)
		return out, nil
	}
	out.Body.ProfileID = p.ID

	return out, nil
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Login, input.Body.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidAuth) {
			return nil, huma.Error401Unauthorized("Invalid credentials")
		}
		h.log.Error("authenticate failed", "error", err)
		return nil, huma.Error500InternalServerError("login failed")
	}

	token, err := h.session.Create(ctx, u.ID)
	if err != nil {
		h.log.Error("create session failed", "user_id", u.ID, "error", err)
		return nil, huma.Error500InternalServerError("create session failed")
	}

	if _, err := h.profiles.Provision(ctx, u.ID); err != nil {
		h.log.Warn("provision profile failed", "user_id", u.ID, "error", err)
	}

	return &loginOutput{
		Body: LoginResponse{
			Token:  token,
			Status: "Ok",
		},
	}, nil
}
