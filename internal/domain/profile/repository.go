package profile

import "context"

type Repository interface {
	Create(ctx context.Context, id string, userID int) (Profile, error)
	FindByUser(ctx context.Context, userID int) (Profile, error)
	SetPremium(ctx context.Context, userID int, premium bool) (Profile, error)
}
