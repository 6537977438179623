package service

import "errors"

var (
	// ErrValidation marks a request missing required fields
	ErrValidation = errors.New("validation failed")
	// ErrGeneration marks a reply generator failure
	ErrGeneration = errors.New("reply generation failed")
	// ErrDispatch marks a gateway send failure
	ErrDispatch = errors.New("message dispatch failed")
	// ErrPersistence marks a store failure. It is never returned to the
	// gateway, only logged and reported on the Outcome.
	ErrPersistence = errors.New("persistence failed")
)
