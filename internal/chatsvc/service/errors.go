package service

import "errors"

// Error categories surfaced to callers. Wrap with fmt.Errorf("...: %w", Err...)
// and check with errors.Is. ErrConflict covers the expected policy rejections
// (wrong turn, wrong phase, already hinted, eliminated) and is not a fault.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)
