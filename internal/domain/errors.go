package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidOdds    = errors.New("invalid american odds")
	ErrInvalidInput   = errors.New("invalid input")
	ErrAmbiguousMatch = errors.New("ambiguous match")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrRateLimited    = errors.New("rate limited")
	ErrLockHeld       = errors.New("lock already held")
)
