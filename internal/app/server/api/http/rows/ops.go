package rows

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) upsertOp() huma.Operation {
	return huma.Operation{
		OperationID: "rows-upsert",
		Method:      http.MethodPost,
		Path:        "/api/v1/rows/{collection}",
		Summary:     "Идемпотентная вставка строки",
		Description: "Повторная вставка с тем же ключом обновляет строку. Отсутствующий родитель даёт 424.",
		Tags:        []string{"rows"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) selectOp() huma.Operation {
	return huma.Operation{
		OperationID: "rows-select",
		Method:      http.MethodGet,
		Path:        "/api/v1/rows/{collection}",
		Summary:     "Строки коллекции текущего владельца",
		Tags:        []string{"rows"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "rows-update",
		Method:      http.MethodPatch,
		Path:        "/api/v1/rows/{collection}/{id}",
		Summary:     "Частичное обновление строки",
		Tags:        []string{"rows"},
		Security:    bearer,
		Middlewares: h.middleware,
	}
}
