package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCategory  = errors.New("invalid category")
	ErrMissingSourceKey = errors.New("source_uid or source_url is required")
	ErrMissingContact   = errors.New("name and email are required")
	ErrInvalidEmail     = errors.New("invalid email address")
)

// UpsertError means the deal could not be stored; nothing after the upsert ran.
type UpsertError struct {
	Stage string
	Err   error
}

func (e *UpsertError) Error() string {
	return fmt.Sprintf("deal %s failed: %v", e.Stage, e.Err)
}

func (e *UpsertError) Unwrap() error { return e.Err }

// IsValidation reports whether err was caused by bad input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrMissingSourceKey) || errors.Is(err, ErrMissingContact) ||
		errors.Is(err, ErrInvalidEmail)
}
