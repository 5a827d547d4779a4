package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrAuthOrQuota          = errors.New("credential rejected or quota exceeded")
	ErrCredentialsExhausted = errors.New("all credentials exhausted")
	ErrLockHeld             = errors.New("lock already held")
	ErrRunInProgress        = errors.New("scan run already in progress")
)
