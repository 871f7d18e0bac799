package domain

import "errors"

var (
	// ErrNotFound signals a missing product.
	ErrNotFound = errors.New("not found")
	// ErrNotReady signals that the text index has not been loaded yet.
	ErrNotReady = errors.New("search index not ready")
	// ErrUpstreamUnavailable signals a catalog or index collaborator failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidArgument signals a malformed request value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidProduct signals a catalog record that fails validation.
	ErrInvalidProduct = errors.New("invalid product")
)
