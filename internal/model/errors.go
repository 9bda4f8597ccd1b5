package model

import "errors"

// Validation errors returned by domain constructors.
var (
	// ErrInvalidNBack is returned for an n-back level outside [MinNBack, MaxNBack].
	ErrInvalidNBack = errors.New("invalid n-back level")

	// ErrInvalidPosition is returned for a grid index outside [0, GridCells).
	ErrInvalidPosition = errors.New("invalid grid position")

	// ErrInvalidMode is returned for an unknown training mode.
	ErrInvalidMode = errors.New("invalid training mode")

	// ErrInvalidConfig is returned when a session configuration is unusable.
	ErrInvalidConfig = errors.New("invalid session config")
)
