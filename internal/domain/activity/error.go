package activity

import "errors"

var (
	ErrMalformedDuration = errors.New("malformed duration")
	ErrMalformedNumber   = errors.New("malformed number")
)
