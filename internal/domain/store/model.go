package store

import (
	"fmt"
	"strconv"
)

// Row строка коллекции. Data хранится целиком как jsonb, остальные поля
// вынесены в колонки для ссылок и уникальности.
type Row struct {
	ID         string
	OwnerID    string
	ParentID   string
	NaturalKey string
	Data       map[string]any
}

func stringField(data map[string]any, field string) string {
	if field == "" {
		return ""
	}
	switch v := data[field].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
