package profile

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) meOp() huma.Operation {
	return huma.Operation{
		OperationID: "profile-me",
		Method:      http.MethodGet,
		Path:        "/api/v1/profiles/me",
		Summary:     "Профиль текущего пользователя",
		Tags:        []string{"profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "profile-update",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profiles/me",
		Summary:     "Обновление премиум-статуса",
		Tags:        []string{"profiles"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
