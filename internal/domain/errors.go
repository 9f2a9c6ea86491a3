// Package domain holds the core types and sentinel errors of the writer registry.
package domain

import "errors"

var (
	// ErrWriterNotFound signals a missing writer record.
	ErrWriterNotFound = errors.New("writer not found")
	// ErrAlreadyExists signals a duplicate writer record.
	ErrAlreadyExists = errors.New("writer already exists")
	// ErrValidation signals rejected input. The wrapping message carries the
	// user-facing detail.
	ErrValidation = errors.New("validation failed")
	// ErrIndexUnavailable signals a search index transport failure or
	// non-success response. Always recoverable: readers fall back to the store.
	ErrIndexUnavailable = errors.New("search index unavailable")
)
