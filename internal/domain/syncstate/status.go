package syncstate

import "fmt"

// Status отражает, подтверждена ли локальная запись удалённым хранилищем.
type Status string

const (
	// Pending запись сохранена локально и ждёт выгрузки.
	Pending Status = "pending"
	// Synced удалённое хранилище подтвердило запись.
	Synced Status = "synced"
	// LocalOnly запись анонимного пользователя, на сервер не отправляется.
	LocalOnly Status = "local-only"
)

// Validate проверяет, что статус известен.
func (s Status) Validate() error {
	switch s {
	case Pending, Synced, LocalOnly:
		return nil
	}
	return fmt.Errorf("неизвестный статус синхронизации: %q", string(s))
}

// String возвращает строковое представление статуса.
func (s Status) String() string {
	return string(s)
}

// DisplayName возвращает человекочитаемое название статуса.
func (s Status) DisplayName() string {
	switch s {
	case Pending:
		return "ожидает синхронизации"
	case Synced:
		return "синхронизировано"
	case LocalOnly:
		return "только на устройстве"
	default:
		return "неизвестно"
	}
}

// Normalize заменяет пустой или неизвестный статус на Pending.
func (s Status) Normalize() Status {
	if s.Validate() != nil {
		return Pending
	}
	return s
}
