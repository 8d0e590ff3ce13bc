package model

import "errors"

var (
	// ErrJobNotFound is returned for ids that were never enqueued or have been evicted
	ErrJobNotFound = errors.New("job not found")

	// ErrValidation marks a rejected enqueue request
	ErrValidation = errors.New("validation failed")

	// ErrUnknownEnvironment is returned when no environment matches the requested name
	ErrUnknownEnvironment = errors.New("unknown environment")
)
