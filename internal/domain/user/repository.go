package user

import (
	"context"
)

// Repository хранилище пользователей; логин уникален,
// повторный Create возвращает ErrAlreadyExists.
type Repository interface {
	Create(ctx context.Context, login, passwordHash string) (int, error)
	// FindByLogin возвращает ErrNotFound, если логина нет
	FindByLogin(ctx context.Context, login string) (User, error)
}
