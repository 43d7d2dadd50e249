package profile

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("profile not found")

// Profile публичная личность пользователя, ею владеют строки коллекций.
type Profile struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	IsPremium bool      `json:"is_premium"`
	CreatedAt time.Time `json:"created_at"`
}
