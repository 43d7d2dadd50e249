package profile

import "pacekeeper/internal/domain/profile"

type meInput struct{}

type updateInput struct {
	Body struct {
		IsPremium bool `json:"is_premium"`
	}
}

type profileOutput struct {
	Body profile.Profile
}
