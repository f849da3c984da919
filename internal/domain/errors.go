package domain

import "errors"

var (
	// ErrRenderFailure marks a renderer error after validation passed.
	ErrRenderFailure = errors.New("render failure")
	// ErrPersistence marks a metric store write or read failure.
	ErrPersistence = errors.New("persistence failure")
)
