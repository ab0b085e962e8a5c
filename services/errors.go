package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation rejects a submission before anything is written.
	ErrValidation       = errors.New("validation error")
	ErrDayFinished      = fmt.Errorf("%w: day already finished", ErrValidation)
	ErrNoPendingCapture = fmt.Errorf("%w: photo and km are required", ErrValidation)

	// ErrPersistence means the store refused a read or write; the rider should retry.
	ErrPersistence = errors.New("could not save, please try again")

	// Reporting emptiness, kept apart so callers can word them differently.
	ErrNoLogs   = errors.New("no logs match the filter")
	ErrNoPhotos = errors.New("no photos in range")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRiderNotFound      = errors.New("rider not found")
	ErrLogNotFound        = errors.New("log not found")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
