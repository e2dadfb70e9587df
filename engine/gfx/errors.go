package gfx

import "errors"

var (
	// ErrUnsupported is returned when a requested backend cannot be provided.
	ErrUnsupported = errors.New("gfx: backend unsupported")

	// ErrNotInitialized is returned when a resource is used before its native
	// context exists. Callers may retry on a later frame.
	ErrNotInitialized = errors.New("gfx: not initialized")

	// ErrInvalidShader is returned when a shader in the Invalid state is bound
	// or used to build a pipeline.
	ErrInvalidShader = errors.New("gfx: invalid shader")

	// ErrDisposed is returned for operations on a disposed resource.
	ErrDisposed = errors.New("gfx: resource disposed")

	// ErrMissingShader is returned when a backend does not supply one of the
	// well-known shaders.
	ErrMissingShader = errors.New("gfx: missing well-known shader")

	// ErrNoPipeline is returned by explicit-pipeline backends when a draw is
	// issued without a bound pipeline matching the draw mode.
	ErrNoPipeline = errors.New("gfx: no pipeline bound")
)
