package health

import "time"

type Input struct{}

type Output struct {
	Body Response
}

// Response состояние сервиса для мониторинга и клиента (CheckConnection)
type Response struct {
	Status      string    `json:"status" example:"OK" doc:"Состояние сервиса"`
	Database    string    `json:"database" example:"OK" doc:"Доступность базы"`
	Collections []string  `json:"collections" doc:"Коллекции строкового хранилища"`
	ServerTime  time.Time `json:"server_time" doc:"Время сервера, UTC"`
}
