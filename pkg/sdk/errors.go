package prodsearch

import "github.com/kailas-cloud/prodsearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound            = domain.ErrNotFound
	ErrNotReady            = domain.ErrNotReady
	ErrUpstreamUnavailable = domain.ErrUpstreamUnavailable
	ErrInvalidArgument     = domain.ErrInvalidArgument
)
