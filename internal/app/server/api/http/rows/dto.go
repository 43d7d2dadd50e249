package rows

type upsertInput struct {
	Collection string `path:"collection" doc:"Имя коллекции"`
	Body       map[string]any
}

type selectInput struct {
	Collection string `path:"collection" doc:"Имя коллекции"`
	OwnerID    string `query:"owner_id" doc:"Фильтр по владельцу, только свой профиль"`
}

type updateInput struct {
	Collection string `path:"collection" doc:"Имя коллекции"`
	ID         string `path:"id"`
	Body       map[string]any
}

type rowOutput struct {
	Body map[string]any
}

type SelectResponse struct {
	Rows []map[string]any `json:"rows"`
}

type selectOutput struct {
	Body SelectResponse
}
