package engine

import "errors"

var (
	// ErrValidation indicates a validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrStaging indicates the staging root could not be populated.
	ErrStaging = errors.New("staging failed")

	// ErrTeardown indicates the staging root could not be removed.
	ErrTeardown = errors.New("failed to remove staging root")
)
