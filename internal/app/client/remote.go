package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Имена коллекций удалённого хранилища.
const (
	CollectionActivities  = "activities"
	CollectionCompletions = "completed_workouts"
	CollectionPlans       = "training_plans"
	CollectionSessions    = "plan_sessions"
)

var (
	ErrUnavailable    = errors.New("remote store unavailable")
	ErrReferential    = errors.New("referenced parent row is missing")
	ErrRejected       = errors.New("remote store rejected the request")
	ErrUnauthorized   = errors.New("not authenticated")
	ErrProfileMissing = errors.New("profile is not provisioned")
)

// StatusError ответ сервера с кодом ошибки. Unwrap отдаёт одну из сигнальных ошибок выше.
type StatusError struct {
	Status int
	Detail string
	kind   error
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ошибка сервера %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("ошибка сервера: статус %d", e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

// Filter ограничивает выборку строками одного владельца.
type Filter struct {
	OwnerID string
}

// RemoteStore строковое API удалённого хранилища. Insert является upsert по id.
type RemoteStore interface {
	Insert(ctx context.Context, collection string, row json.RawMessage) (json.RawMessage, error)
	Select(ctx context.Context, collection string, filter Filter) ([]json.RawMessage, error)
	Update(ctx context.Context, collection, id string, patch json.RawMessage) (json.RawMessage, error)
}

// Profile профиль, связанный с учётной записью.
type Profile struct {
	ID        string `json:"id"`
	UserID    int    `json:"user_id"`
	IsPremium bool   `json:"is_premium"`
}

// SessionSource источник сведений об активной сессии.
type SessionSource interface {
	HasSession() bool
	// SessionKey отпечаток токена, по нему сверяется зеркало личности в кэше.
	SessionKey() string
	CurrentProfile(ctx context.Context) (Profile, error)
}

// rowID достаёт id из строки, которую вернул сервер.
func rowID(row json.RawMessage) (string, error) {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(row, &head); err != nil {
		return "", fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	if head.ID == "" {
		return "", fmt.Errorf("%w: ответ без id", ErrRejected)
	}
	return head.ID, nil
}
