package workout

import "errors"

var (
	ErrMissingWorkout = errors.New("workout id is required")
	ErrInvalidPlan    = errors.New("invalid training plan")
)
